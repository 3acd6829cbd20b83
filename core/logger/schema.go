package logger

import (
	"slices"
	"strings"
)

// Vocabulary of the status and outcome fields.
var (
	statuses = []string{"ok", "fail", "skip", "retry", "rate_limited", "cancelled"}
	outcomes = []string{"ok", "fail", "cancelled", "rate_limited", "not_found", "unavailable"}
)

// levelName renders a slog level name; "WARNING" folds into "WARN".
func levelName(level string) string {
	switch l := strings.ToUpper(strings.TrimSpace(level)); l {
	case "":
		return "INFO"
	case "WARNING":
		return "WARN"
	default:
		return l
	}
}

// enumValue lowercases v and reports whether it belongs to known.
func enumValue(v string, known []string) (string, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	return v, v != "" && slices.Contains(known, v)
}

// defaultKeyOrder puts correlation ids first and errors last.
var defaultKeyOrder = []string{
	"ts", "level", "component", "event", "status",
	"rid", "rid_full", "ts_unix_nano",
	"update_id", "user_id", "chat_id", "chat_type",
	"handler", "state", "provider", "op", "outcome",
	"duration_ms", "messages", "kb",
	"note_id", "notes", "index", "chunks", "file_id",
	"checked", "due", "sent", "failed",
	"payload", "lang", "username",
	"mode", "listen", "public_url", "http_code",
	"driver", "db",
	"err", "err_code", "cause", "attempts", "breaker",
}
