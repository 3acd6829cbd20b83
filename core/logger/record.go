package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// record is one log line before encoding.
type record map[string]any

func (r record) str(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func (r record) setDefault(key string, val any) {
	if _, ok := r[key]; !ok {
		r[key] = val
	}
}

// fromContext fills correlation fields the record does not set itself.
func (r record) fromContext(ctx context.Context) {
	if ctx == nil {
		return
	}
	if rid := RIDFrom(ctx); rid != "" {
		r.setDefault("rid", rid)
	}
	if id := UpdateIDFrom(ctx); id != 0 {
		r.setDefault("update_id", id)
	}
	if id := UserIDFrom(ctx); id != 0 {
		r.setDefault("user_id", id)
	}
	if id := ChatIDFrom(ctx); id != 0 {
		r.setDefault("chat_id", id)
	}
	if h := HandlerFrom(ctx); h != "" {
		r.setDefault("handler", h)
	}
}

// normalize maps status and outcome onto the known vocabulary and drops
// empty values. Unknown outcomes are removed; unknown statuses are kept
// lowercased.
func (r record) normalize() {
	if s := r.str("status"); s != "" {
		r["status"], _ = enumValue(s, statuses)
	}
	if o := r.str("outcome"); o != "" {
		if norm, ok := enumValue(o, outcomes); ok {
			r["outcome"] = norm
		} else {
			delete(r, "outcome")
		}
	}
	for k, v := range r {
		if v == nil || v == "" {
			delete(r, k)
		}
	}
}

// keys returns the keys listed in order first, then the rest sorted.
func (r record) keys(order []string) []string {
	out := make([]string, 0, len(r))
	listed := make(map[string]bool, len(order))
	for _, k := range order {
		listed[k] = true
		if _, ok := r[k]; ok {
			out = append(out, k)
		}
	}
	n := len(out)
	for k := range r {
		if !listed[k] {
			out = append(out, k)
		}
	}
	slices.Sort(out[n:])
	return out
}

func (r record) encodeKV(order []string) []byte {
	var b strings.Builder
	for i, k := range r.keys(order) {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(kvValue(r[k]))
	}
	return []byte(b.String())
}

func (r record) encodeJSON(order []string) ([]byte, error) {
	b := []byte{'{'}
	for i, k := range r.keys(order) {
		v, err := json.Marshal(r[k])
		if err != nil {
			return nil, fmt.Errorf("logger: encode %s: %w", k, err)
		}
		if i > 0 {
			b = append(b, ',')
		}
		b = strconv.AppendQuote(b, k)
		b = append(b, ':')
		b = append(b, v...)
	}
	return append(b, '}'), nil
}

func kvValue(v any) string {
	s, ok := v.(string)
	if !ok {
		s = fmt.Sprint(v)
	}
	if strings.ContainsFunc(s, func(r rune) bool { return r <= ' ' || r == '=' || r == '"' }) {
		return strconv.Quote(s)
	}
	return s
}
