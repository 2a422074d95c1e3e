package research

import (
	"fmt"
	"strings"
)

const plannerSystem = `You are a research planner. You decompose a research question into focused sub-queries suitable for web and academic search engines. Respond with JSON only, no prose.`

const analystSystem = `You are a research analyst. You extract the substance of a document relative to a research question. Respond with JSON only, no prose.`

const synthesistSystem = `You are a research synthesist. You combine per-source findings into consensus, disagreement and open gaps. Respond with JSON only, no prose.`

const reporterSystem = `You are a research writer. You produce clear, cited, well-structured narrative reports in Markdown.`

func planningPrompt(query string, count int) string {
	return fmt.Sprintf(`Decompose the following research question into exactly %d search sub-queries.

Research question: %s

Return a JSON object with this shape:
{
  "main_topic": "one-line restatement of the topic",
  "goal": "what a good answer would establish",
  "sub_queries": ["...", "..."],
  "key_aspects": ["aspect to cover", "..."]
}

Each sub-query must be a standalone search-engine query, not a question addressed to a person.`, count, query)
}

func analysisPrompt(query string, aspects []string, title, body string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question: %s\n", query)
	if len(aspects) > 0 {
		fmt.Fprintf(&b, "Key aspects: %s\n", strings.Join(aspects, "; "))
	}
	fmt.Fprintf(&b, "\nDocument title: %s\n\nDocument content:\n%s\n\n", title, body)
	b.WriteString(`Analyze the document relative to the research question. Return a JSON object:
{
  "key_points": ["..."],
  "facts": ["verifiable factual claim", "..."],
  "credibility": "short note on how trustworthy this document seems",
  "relevance": "high|medium|low"
}`)
	return b.String()
}

func synthesisPrompt(query string, findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question: %s\n\nFindings from %d sources:\n\n", query, len(findings))
	for i, f := range findings {
		fmt.Fprintf(&b, "Source %d: %s (%s, reliability %s)\n", i+1, f.Source.Title, f.Source.URL, f.Source.Tier)
		for _, p := range f.Analysis.KeyPoints {
			fmt.Fprintf(&b, "  - %s\n", p)
		}
		for _, fact := range f.Analysis.Facts {
			fmt.Fprintf(&b, "  * fact: %s\n", fact)
		}
		b.WriteString("\n")
	}
	b.WriteString(`Synthesize these findings. Return a JSON object:
{
  "consensus": ["statement most sources support", "..."],
  "controversies": ["point where sources disagree", "..."],
  "gaps": ["aspect the sources do not cover", "..."],
  "confidence": "high|medium|low",
  "summary": "a few sentences summarizing the state of the evidence"
}`)
	return b.String()
}

func narrativePrompt(query string, syn *Synthesis, findings []Finding) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write a research report in Markdown answering: %s\n\n", query)
	fmt.Fprintf(&b, "Synthesis summary: %s\nConfidence: %s\n", syn.Summary, syn.Confidence)
	if len(syn.Consensus) > 0 {
		fmt.Fprintf(&b, "Consensus: %s\n", strings.Join(syn.Consensus, "; "))
	}
	if len(syn.Controversies) > 0 {
		fmt.Fprintf(&b, "Controversies: %s\n", strings.Join(syn.Controversies, "; "))
	}
	b.WriteString("\nSources to cite inline as [title](url):\n")
	for _, f := range findings {
		fmt.Fprintf(&b, "- %s (%s)\n", f.Source.Title, f.Source.URL)
	}
	b.WriteString("\nThe report should have a short introduction, thematic sections, and a conclusion stating confidence and caveats. Cite sources inline.")
	return b.String()
}

func followUpsPrompt(query string, syn *Synthesis) string {
	return fmt.Sprintf(`Research question: %s
Summary of findings: %s

Suggest follow-up research questions a reader would naturally ask next.
Return a JSON array of strings, e.g. ["...", "..."]. No prose.`, query, syn.Summary)
}

func gapsPrompt(query string, syn *Synthesis) string {
	return fmt.Sprintf(`Research question: %s
Summary of findings: %s
Gaps already identified: %s

List the knowledge gaps in the current research that further work should address.
Return a JSON array of strings. No prose.`, query, syn.Summary, strings.Join(syn.Gaps, "; "))
}
