package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"studybot/core/metrics"
	studyconfig "studybot/study/config"
)

const (
	searchNotFoundReply = "🔍 Информация не найдена. Попробуйте сформулировать запрос иначе."
	searchFailReply     = "⚠️ Ошибка поиска. Попробуйте позже."
)

// DuckDuckGo answers queries with the instant answer abstract.
type DuckDuckGo struct {
	endpoint string
	client   *http.Client
	guard    *guard
}

// NewDuckDuckGo returns a search provider for cfg.
func NewDuckDuckGo(cfg studyconfig.SearchConfig, bc studyconfig.BreakerConfig, client *http.Client, collector *metrics.Collector) *DuckDuckGo {
	return &DuckDuckGo{
		endpoint: cfg.Endpoint,
		client:   client,
		guard:    newGuard("search", searchFailReply, cfg.Timeout, bc, collector),
	}
}

// Search returns the abstract for query with its source attribution.
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	return d.guard.run(ctx, "search", func(ctx context.Context) (string, error) {
		q := url.Values{}
		q.Set("q", query)
		q.Set("format", "json")
		q.Set("no_redirect", "1")
		q.Set("no_html", "1")
		q.Set("skip_disambig", "1")

		body, err := getBody(ctx, d.client, d.endpoint+"?"+q.Encode())
		if err != nil {
			return "", err
		}
		if !gjson.ValidBytes(body) {
			return "", fmt.Errorf("search: invalid json response")
		}
		res := gjson.GetManyBytes(body, "AbstractText", "AbstractURL")
		abstract := strings.TrimSpace(res[0].String())
		if abstract == "" {
			return "", &Error{Provider: "search", Kind: KindNotFound, Reply: searchNotFoundReply}
		}
		source := strings.TrimSpace(res[1].String())
		if source == "" {
			source = "DuckDuckGo"
		}
		return fmt.Sprintf("🔍 Результаты по запросу '%s':\n\n%s\n\nИсточник: %s", query, abstract, source), nil
	})
}
