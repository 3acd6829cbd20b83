package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"studybot/core/metrics"
	studyconfig "studybot/study/config"
)

const (
	wikiNotFoundReply = "😢 Не удалось найти информацию по этой теме. Попробуйте уточнить запрос."
	wikiFailReply     = "⚠️ Ошибка получения данных. Попробуйте другую тему."
)

var headingRe = regexp.MustCompile(`^(={2,6})\s*(.*?)\s*={2,6}$`)

// Section is one top-level section of an article.
type Section struct {
	Title string
	Text  string
}

// Wikipedia builds topic summaries from MediaWiki plain-text extracts.
type Wikipedia struct {
	endpoint     string
	maxSections  int
	sectionRunes int
	client       *http.Client
	guard        *guard
}

// NewWikipedia returns a summary provider for cfg.
func NewWikipedia(cfg studyconfig.WikipediaConfig, bc studyconfig.BreakerConfig, client *http.Client, collector *metrics.Collector) *Wikipedia {
	return &Wikipedia{
		endpoint:     cfg.Endpoint,
		maxSections:  cfg.MaxSections,
		sectionRunes: cfg.SectionRunes,
		client:       client,
		guard:        newGuard("wikipedia", wikiFailReply, cfg.Timeout, bc, collector),
	}
}

// Summary returns a structured summary of topic: up to maxSections top-level
// sections, each cut to sectionRunes characters.
func (w *Wikipedia) Summary(ctx context.Context, topic string) (string, error) {
	return w.guard.run(ctx, "summary", func(ctx context.Context) (string, error) {
		extract, err := w.fetchExtract(ctx, topic)
		if err != nil {
			return "", err
		}
		return FormatSummary(topic, ParseSections(extract), w.maxSections, w.sectionRunes), nil
	})
}

func (w *Wikipedia) fetchExtract(ctx context.Context, topic string) (string, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("prop", "extracts")
	q.Set("explaintext", "1")
	q.Set("exsectionformat", "wiki")
	q.Set("redirects", "1")
	q.Set("format", "json")
	q.Set("formatversion", "2")
	q.Set("titles", topic)

	body, err := getBody(ctx, w.client, w.endpoint+"?"+q.Encode())
	if err != nil {
		return "", err
	}
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("wikipedia: invalid json response")
	}
	page := gjson.GetBytes(body, "query.pages.0")
	if !page.Exists() || page.Get("missing").Bool() || page.Get("invalid").Bool() {
		return "", &Error{Provider: "wikipedia", Kind: KindNotFound, Reply: wikiNotFoundReply}
	}
	return page.Get("extract").String(), nil
}

// ParseSections splits a plain-text extract into its level-2 sections. Text
// before the first heading and text of nested subsections is skipped.
func ParseSections(extract string) []Section {
	var (
		sections []Section
		cur      *Section
		body     []string
		inTop    bool
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.TrimSpace(strings.Join(body, "\n"))
			sections = append(sections, *cur)
		}
		cur, body = nil, nil
	}
	for _, line := range strings.Split(extract, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := headingRe.FindStringSubmatch(trimmed); m != nil {
			if len(m[1]) == 2 {
				flush()
				cur = &Section{Title: m[2]}
				inTop = true
			} else {
				inTop = false
			}
			continue
		}
		if cur != nil && inTop {
			body = append(body, line)
		}
	}
	flush()
	return sections
}

// FormatSummary renders sections the way they are sent to the user.
func FormatSummary(topic string, sections []Section, maxSections, sectionRunes int) string {
	if maxSections > 0 && len(sections) > maxSections {
		sections = sections[:maxSections]
	}
	parts := make([]string, 0, len(sections))
	for _, s := range sections {
		parts = append(parts, fmt.Sprintf("## %s\n%s...", s.Title, truncateRunes(s.Text, sectionRunes)))
	}
	return fmt.Sprintf("📘 Конспект по теме '%s':\n\n", topic) + strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

const maxBodyBytes = 4 << 20

func getBody(ctx context.Context, client *http.Client, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "studybot/1.0")
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return body, nil
}
