package llm

import (
	"context"
	"strings"
	"testing"
)

type stubProvider struct {
	response string
	err      error
}

func (s *stubProvider) Generate(ctx context.Context, system, prompt string, opts Options) (string, error) {
	return s.response, s.err
}

func TestStripCodeFences(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  ```json\n[1,2]\n```  ", `[1,2]`},
		{"plain text answer", "plain text answer"},
	}
	for _, tc := range cases {
		if got := StripCodeFences(tc.in); got != tc.want {
			t.Fatalf("StripCodeFences(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestGenerateJSONDecodesFencedResponse(t *testing.T) {
	p := &stubProvider{response: "```json\n{\"topic\": \"compilers\", \"count\": 3}\n```"}
	var out struct {
		Topic string `json:"topic"`
		Count int    `json:"count"`
	}
	if err := GenerateJSON(context.Background(), p, "", "prompt", Options{Model: "m"}, &out); err != nil {
		t.Fatalf("GenerateJSON: %v", err)
	}
	if out.Topic != "compilers" || out.Count != 3 {
		t.Fatalf("decoded %+v", out)
	}
}

func TestGenerateJSONReportsMalformedResponse(t *testing.T) {
	p := &stubProvider{response: "I cannot answer in JSON."}
	var out map[string]any
	err := GenerateJSON(context.Background(), p, "", "prompt", Options{Model: "m"}, &out)
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "decode model response") {
		t.Fatalf("unexpected error: %v", err)
	}
}
