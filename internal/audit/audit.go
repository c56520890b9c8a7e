// Package audit records security events as structured log lines.
package audit

import (
	"context"
	"log/slog"
	"strings"
	"time"
)

// Severity ranks a security event.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (s Severity) level() slog.Level {
	switch s {
	case SeverityLow:
		return slog.LevelInfo
	case SeverityHigh, SeverityCritical:
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// Event is one security-relevant occurrence.
type Event struct {
	Name      string
	Severity  Severity
	UserID    string
	IP        string
	UserAgent string
	Details   map[string]string
}

// Logger writes audit events.
type Logger struct {
	logger *slog.Logger
	now    func() time.Time
}

// New returns an audit logger writing through logger.
func New(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger.With("component", "audit"), now: time.Now}
}

// Log writes e. Missing identity fields are recorded as anonymous/unknown.
func (l *Logger) Log(ctx context.Context, e Event) {
	if e.Severity == "" {
		e.Severity = SeverityMedium
	}

	attrs := []slog.Attr{
		slog.String("event", e.Name),
		slog.String("severity", string(e.Severity)),
		slog.Time("timestamp", l.now().UTC()),
		slog.String("user_id", orDefault(e.UserID, "anonymous")),
		slog.String("ip", orDefault(e.IP, "unknown")),
		slog.String("user_agent", orDefault(e.UserAgent, "unknown")),
	}

	if len(e.Details) > 0 {
		details := make([]any, 0, len(e.Details))
		for k, v := range e.Details {
			details = append(details, slog.String(k, v))
		}
		attrs = append(attrs, slog.Group("details", details...))
	}

	l.logger.LogAttrs(ctx, e.Severity.level(), "[SECURITY "+strings.ToUpper(string(e.Severity))+"]", attrs...)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
