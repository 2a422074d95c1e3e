// Package server exposes the research pipeline over HTTP: run creation,
// a Server-Sent Events progress stream, cancellation and result retrieval.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/quorralabs/deepresearch/config"
	"github.com/quorralabs/deepresearch/internal/research"
	"github.com/quorralabs/deepresearch/internal/store"
)

// Server routes HTTP requests to the orchestrator and result store.
type Server struct {
	cfg    config.Config
	orch   *research.Orchestrator
	store  store.ResultStore
	logger *log.Logger

	mu       sync.Mutex
	sessions map[string]*research.Session
}

// New creates a Server over the given orchestrator and store.
func New(cfg config.Config, orch *research.Orchestrator, st store.ResultStore) *Server {
	return &Server{
		cfg:      cfg,
		orch:     orch,
		store:    st,
		logger:   log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
		sessions: make(map[string]*research.Session),
	}
}

// Router builds the echo instance with all routes registered.
func (s *Server) Router() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		s.logger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]any{"error": msg})
		}
	}

	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/research", s.startResearch)
	api.GET("/research/:id", s.getResearch)
	api.GET("/research/:id/events", s.streamEvents)
	api.POST("/research/:id/cancel", s.cancelResearch)
	return e
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	e := s.Router()
	go func() {
		<-ctx.Done()
		_ = e.Shutdown(context.Background())
	}()
	s.logger.Printf("listening on %s", s.cfg.Server.Addr)
	if err := e.Start(s.cfg.Server.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type startRequest struct {
	Query string `json:"query"`
	Depth string `json:"depth"`
}

func (s *Server) startResearch(c echo.Context) error {
	var req startRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	depth, err := research.ParseDepth(req.Depth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	session, err := s.orch.Start(context.Background(), req.Query, depth)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.mu.Unlock()

	// Persist the terminal result and release the session once it settles.
	go func() {
		result, err := session.Wait()
		if err == nil && result != nil {
			if serr := s.store.Save(context.Background(), result); serr != nil {
				s.logger.Printf("persist result %s: %v", session.ID, serr)
			}
		}
		s.mu.Lock()
		delete(s.sessions, session.ID)
		s.mu.Unlock()
	}()

	return c.JSON(http.StatusAccepted, map[string]string{"id": session.ID, "depth": string(depth)})
}

func (s *Server) session(id string) *research.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *Server) getResearch(c echo.Context) error {
	id := c.Param("id")
	if session := s.session(id); session != nil {
		return c.JSON(http.StatusOK, map[string]string{
			"id":    session.ID,
			"query": session.Query,
			"phase": string(session.Phase()),
		})
	}
	result, err := s.store.Get(c.Request().Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "research not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) cancelResearch(c echo.Context) error {
	session := s.session(c.Param("id"))
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no running research with that id")
	}
	session.Cancel()
	return c.JSON(http.StatusAccepted, map[string]string{"id": session.ID, "status": "cancelling"})
}

// streamEvents forwards the session's typed events as Server-Sent Events,
// one envelope per message, until the run reaches a terminal phase or the
// client disconnects.
func (s *Server) streamEvents(c echo.Context) error {
	session := s.session(c.Param("id"))
	if session == nil {
		return echo.NewHTTPError(http.StatusNotFound, "no running research with that id")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, open := <-session.Events():
			if !open {
				return nil
			}
			data, err := json.Marshal(research.NewEnvelope(ev))
			if err != nil {
				s.logger.Printf("marshal event: %v", err)
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", ev.Kind(), data); err != nil {
				return nil
			}
			flusher.Flush()
		}
	}
}
