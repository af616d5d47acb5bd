package sentiment

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

type roundTrip func(*http.Request) *http.Response

func (rt roundTrip) RoundTrip(req *http.Request) (*http.Response, error) {
	return rt(req), nil
}

func reply(content string) *http.Response {
	body, _ := json.Marshal(map[string]any{
		"choices": []any{map[string]any{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return &http.Response{
		StatusCode: 200,
		Body:       io.NopCloser(strings.NewReader(string(body))),
		Header:     make(http.Header),
	}
}

func TestClassifyMemoizes(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("Authorization = %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[1].Content != "最悪の一日だった" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Negative"}}]}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Model: "test", APIKey: "secret"})
	for i := 0; i < 2; i++ {
		l, err := c.Classify(context.Background(), "最悪の一日だった")
		if err != nil {
			t.Fatalf("Classify: %v", err)
		}
		if l != Negative {
			t.Errorf("label = %q, want negative", l)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("endpoint called %d times, want 1", calls.Load())
	}
}

func TestClassifyEmptyIsNeutral(t *testing.T) {
	c := New(Options{})
	if l, err := c.Classify(context.Background(), "  "); err != nil || l != Neutral {
		t.Errorf("Classify(blank) = %q, %v", l, err)
	}
}

func TestClassifyErrors(t *testing.T) {
	tests := []struct {
		name string
		resp *http.Response
	}{
		{"api error", &http.Response{StatusCode: 500, Body: io.NopCloser(strings.NewReader(`{"error":{"message":"bad"}}`)), Header: make(http.Header)}},
		{"no choices", &http.Response{StatusCode: 200, Body: io.NopCloser(strings.NewReader(`{"choices":[]}`)), Header: make(http.Header)}},
		{"unknown label", reply("たぶん怒っている")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := New(Options{BaseURL: "https://api.test/v1/chat/completions", Model: "m"})
			c.HTTPClient = &http.Client{Transport: roundTrip(func(*http.Request) *http.Response { return tt.resp })}
			if _, err := c.Classify(context.Background(), "テキスト"); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestChatRequiresEndpoint(t *testing.T) {
	if _, err := New(Options{}).Classify(context.Background(), "テキスト"); err == nil {
		t.Error("expected configuration error")
	}
}

func TestParseLabel(t *testing.T) {
	tests := map[string]Label{
		"negative":     Negative,
		" Positive.\n": Positive,
		"neutral":      Neutral,
		"ネガティブ":        Negative,
		"ポジティブです":      Positive,
		"中立":           Neutral,
	}
	for in, want := range tests {
		got, err := ParseLabel(in)
		if err != nil || got != want {
			t.Errorf("ParseLabel(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseLabel("わからない"); !errors.Is(err, ErrUnrecognized) {
		t.Errorf("error = %v, want ErrUnrecognized", err)
	}
}
