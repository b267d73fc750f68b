package kanban

import (
	"context"
	"log/slog"

	"github.com/mesh-intelligence/slate/pkg/types"
)

// Analyzer produces structured analysis for a scene body. A false result
// means no analysis was produced.
type Analyzer interface {
	Analyze(ctx context.Context, body string) (*types.Analysis, bool)
}

// Alerter surfaces a one-line failure message to the user.
type Alerter interface {
	Alert(message string)
}

// AlertFunc adapts a function to Alerter.
type AlertFunc func(message string)

// Alert calls f(message).
func (f AlertFunc) Alert(message string) { f(message) }

// Option configures an Engine.
type Option func(*Engine)

// WithAnalyzer sets the analyzer used by Analyze and Edit.
func WithAnalyzer(a Analyzer) Option {
	return func(e *Engine) { e.analyzer = a }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithAlerter sets where store failures are reported.
func WithAlerter(a Alerter) Option {
	return func(e *Engine) {
		if a != nil {
			e.alerter = a
		}
	}
}

// WithSortKey sets the initial sort key.
func WithSortKey(k SortKey) Option {
	return func(e *Engine) { e.sortKey = k }
}
