// Package providers wraps the external services the assistant relies on:
// Wikipedia summaries, DuckDuckGo search, Tesseract OCR and Wolfram Alpha.
//
// Every call returns either the text to send or an *Error whose Reply is
// safe to show to the user.
package providers

import (
	"context"
	"net/http"
	"time"

	"studybot/core/metrics"
	"studybot/core/netutil"
	studyconfig "studybot/study/config"
)

// Summarizer builds a topic summary.
type Summarizer interface {
	Summary(ctx context.Context, topic string) (string, error)
}

// Searcher answers a free-text query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Recognizer extracts text from an image file.
type Recognizer interface {
	Recognize(ctx context.Context, path string) (string, error)
}

// Solver solves a math expression or word problem.
type Solver interface {
	Solve(ctx context.Context, expr string) (string, error)
}

// Set bundles the four providers.
type Set struct {
	Summarizer Summarizer
	Searcher   Searcher
	Recognizer Recognizer
	Solver     Solver
}

// NewHTTPClient returns the retrying client shared by HTTP providers.
// Per-call deadlines come from the provider timeouts.
func NewHTTPClient() *http.Client {
	return netutil.NewClient(netutil.ClientOptions{
		MaxRetries: 1,
		Backoff:    500 * time.Millisecond,
	})
}

// New builds the production providers.
func New(cfg studyconfig.ProvidersConfig, collector *metrics.Collector) Set {
	client := NewHTTPClient()
	return Set{
		Summarizer: NewWikipedia(cfg.Wikipedia, cfg.Breaker, client, collector),
		Searcher:   NewDuckDuckGo(cfg.Search, cfg.Breaker, client, collector),
		Recognizer: NewTesseract(cfg.OCR, cfg.Breaker, collector),
		Solver:     NewWolfram(cfg.Math, cfg.Breaker, client, collector),
	}
}
