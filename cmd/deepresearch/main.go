package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/extract"
	"github.com/quorralabs/deepresearch/internal/llm/openai"
	"github.com/quorralabs/deepresearch/internal/research"
	"github.com/quorralabs/deepresearch/internal/server"
	"github.com/quorralabs/deepresearch/internal/sources"
	"github.com/quorralabs/deepresearch/internal/sources/arxiv"
	"github.com/quorralabs/deepresearch/internal/sources/brave"
	"github.com/quorralabs/deepresearch/internal/sources/github"
	"github.com/quorralabs/deepresearch/internal/sources/hackernews"
	"github.com/quorralabs/deepresearch/internal/sources/serper"
	"github.com/quorralabs/deepresearch/internal/sources/wikipedia"
	"github.com/quorralabs/deepresearch/internal/store"
	"github.com/quorralabs/deepresearch/internal/telemetry"
	"github.com/quorralabs/deepresearch/internal/trust"
)

func main() {
	root := &cobra.Command{Use: "deepresearch", Short: "LLM-driven research pipeline"}

	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "config directory")

	var serveAddr string
	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if serveAddr != "" {
				cfg.Server.Addr = serveAddr
			}
			orch, st, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return server.New(*cfg, orch, st).Run(ctx)
		},
	}
	serve.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides config)")

	var depth string
	run := &cobra.Command{
		Use:   "run [query]",
		Short: "Run one research query and print the report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig(configPath)
			if err != nil {
				return err
			}
			orch, _, err := buildPipeline(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			d, err := research.ParseDepth(depth)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := orch.Start(ctx, args[0], d)
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				session.Cancel()
			}()
			printEvents(session)

			result, err := session.Wait()
			if err != nil {
				return err
			}
			if result.Report != nil {
				fmt.Println(result.Report.Narrative)
				for _, q := range result.Report.FollowUps {
					fmt.Printf("follow-up: %s\n", q)
				}
			}
			fmt.Printf("\n%s: %d sources, %d findings in %v\n",
				result.Phase, result.Stats.SourcesFound, result.Stats.Findings, result.Stats.Elapsed)
			return nil
		},
	}
	run.Flags().StringVar(&depth, "depth", "standard", "research depth: quick, standard or deep")

	root.AddCommand(serve, run)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// buildPipeline wires adapters, extractor, classifier and stores from config.
func buildPipeline(ctx context.Context, cfg *config.Config) (*research.Orchestrator, store.ResultStore, error) {
	if cfg.LLM.APIKey == "" {
		return nil, nil, fmt.Errorf("no completion-service API key configured (set OPENAI_API_KEY)")
	}
	provider := openai.New(cfg.LLM)
	tel := telemetry.NewTelemetry(prometheus.DefaultRegisterer)
	classifier := trust.NewClassifier(cfg.Trust)
	httpClient := sources.NewHTTPClient(cfg.Sources.Timeout)

	var adapters []sources.Adapter
	wiki := wikipedia.New(httpClient)
	arx := arxiv.New(httpClient)
	if cfg.Sources.Wikipedia.Enabled {
		adapters = append(adapters, wiki)
	}
	if cfg.Sources.Arxiv.Enabled {
		adapters = append(adapters, arx)
	}
	if cfg.Sources.HackerNews.Enabled {
		adapters = append(adapters, hackernews.New(httpClient))
	}
	if cfg.Sources.GitHub.Enabled {
		adapters = append(adapters, github.New(cfg.Sources.GitHub.Token, httpClient))
	}
	if cfg.Sources.Brave.Enabled {
		adapters = append(adapters, brave.New(cfg.Sources.Brave.APIKey, httpClient))
	}
	if cfg.Sources.Serper.Enabled {
		adapters = append(adapters, serper.New(cfg.Sources.Serper.APIKey, httpClient))
	}
	if len(adapters) == 0 {
		return nil, nil, fmt.Errorf("no source adapters enabled")
	}

	// The curated providers double as extraction fast paths regardless of
	// whether they are enabled for search.
	extractor := extract.New(extract.Config{
		Timeout:        cfg.Extract.Timeout,
		MaxRedirects:   cfg.Extract.MaxRedirects,
		MinRegionChars: cfg.Extract.MinRegionChars,
		MaxChars:       cfg.Extract.MaxChars,
		UserAgent:      cfg.Extract.UserAgent,
	}, wiki, arx)

	var st store.ResultStore
	if cfg.Storage.Redis.Addr != "" {
		rs, err := store.NewRedisStore(ctx, cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password,
			cfg.Storage.Redis.DB, cfg.Storage.Redis.TTL)
		if err != nil {
			return nil, nil, err
		}
		st = rs
	} else {
		log.Printf("no redis configured, keeping results in memory")
		st = store.NewMemoryStore()
	}

	orch := research.NewOrchestrator(*cfg, provider, adapters, extractor, classifier, tel)
	return orch, st, nil
}

func printEvents(session *research.Session) {
	for ev := range session.Events() {
		switch e := ev.(type) {
		case research.StatusEvent:
			fmt.Printf("== %s: %s\n", e.Phase, e.Message)
		case research.PlanEvent:
			for _, q := range e.Plan.SubQueries {
				fmt.Printf("   sub-query: %s\n", q)
			}
		case research.ThoughtEvent:
			fmt.Printf("   [%s] %s\n", e.Agent, e.Text)
		case research.SourceEvent:
			fmt.Printf("   + %s (%s, %s)\n", e.Source.Title, e.Source.Adapter, e.Source.Tier)
		case research.FindingEvent:
			fmt.Printf("   * finding: %s\n", e.Title)
		case research.ErrorEvent:
			fmt.Printf("   ! %s\n", e.Message)
		}
	}
}
