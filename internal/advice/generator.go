// Package advice produces tips and short written feedback for a scored day.
//
// A Generator has two strategies. The rule-based one is deterministic and
// always available. The generative one asks an external text service and is
// used only when the Generator is built with the service enabled; any failure
// on that path (transport error, service error, unparseable reply, panic in
// the adapter) silently falls back to the rule-based or templated output.
package advice

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ecotrack/backend/internal/fn"
	"github.com/ecotrack/backend/internal/scoring"
)

// DefaultAverageCarbon is the daily kg CO2 baseline used by Comparison.
const DefaultAverageCarbon = 12.0

// Fixed chat replies.
const (
	ChatUnavailable = "AI chatbot is not available. Please configure GEMINI_API_KEY."
	ChatFailed      = "I'm having trouble processing your question. Please try again."
)

// Completer sends one prompt to a text-generation service.
type Completer interface {
	Complete(ctx context.Context, prompt string) fn.Result[string]
}

// Config selects the strategy. ServiceEnabled is normally true exactly when a
// service credential is configured.
type Config struct {
	ServiceEnabled bool
	AverageCarbon  float64
}

// Generator is safe for concurrent use.
type Generator struct {
	completer Completer
	enabled   bool
	average   float64
	logger    *slog.Logger
}

// New creates a Generator. The generative path stays off when completer is
// nil, whatever cfg says.
func New(cfg Config, completer Completer, logger *slog.Logger) *Generator {
	if logger == nil {
		logger = slog.Default()
	}
	avg := cfg.AverageCarbon
	if avg <= 0 {
		avg = DefaultAverageCarbon
	}
	return &Generator{
		completer: completer,
		enabled:   cfg.ServiceEnabled && completer != nil,
		average:   avg,
		logger:    logger,
	}
}

// Enabled reports whether the generative path is in use.
func (g *Generator) Enabled() bool { return g.enabled }

// AverageCarbon returns the comparison baseline.
func (g *Generator) AverageCarbon() float64 { return g.average }

// Tips returns one to MaxTips tips. With the service disabled or failing the
// result is exactly RuleTips(in, s.Carbon).
func (g *Generator) Tips(ctx context.Context, in scoring.Input, s scoring.Scores) []string {
	if !g.enabled {
		return RuleTips(in, s.Carbon)
	}
	res := fn.Then(g.complete(ctx, tipsPrompt(in, s)), ParseTips)
	return res.UnwrapOrElse(func(err error) []string {
		g.fallback("tips", err)
		return RuleTips(in, s.Carbon)
	})
}

// Analysis returns a short paragraph about the day's impact. It is never empty.
func (g *Generator) Analysis(ctx context.Context, in scoring.Input, s scoring.Scores) string {
	if !g.enabled {
		return fmt.Sprintf("Your environmental rating is %s. Focus on reducing your carbon footprint "+
			"through sustainable transportation and energy conservation.", s.Rating)
	}
	return g.text(ctx, "analysis", analysisPrompt(in, s), func() string {
		return fmt.Sprintf("Your environmental rating is %s with a carbon footprint of %s kg CO2. "+
			"Focus on your highest impact areas.", s.Rating, num(s.Carbon))
	})
}

// Comparison returns one sentence comparing carbon with the baseline.
func (g *Generator) Comparison(ctx context.Context, carbon float64) string {
	diff := carbon - g.average
	if !g.enabled {
		if diff > 0 {
			return fmt.Sprintf("Your carbon footprint is %.1f kg CO2 higher than average.", math.Abs(diff))
		}
		return fmt.Sprintf("Great job! Your carbon footprint is %.1f kg CO2 lower than average.", math.Abs(diff))
	}
	return g.text(ctx, "comparison", comparisonPrompt(carbon, g.average), func() string {
		return fmt.Sprintf("Your footprint differs by %.1f kg CO2 from average.", math.Abs(diff))
	})
}

// Chat answers a free-text question, optionally grounded in the user's
// latest profile.
func (g *Generator) Chat(ctx context.Context, message string, profile *Profile) string {
	if !g.enabled {
		return ChatUnavailable
	}
	return g.text(ctx, "chat", chatPrompt(message, profile), func() string { return ChatFailed })
}

func (g *Generator) text(ctx context.Context, op, prompt string, fallback func() string) string {
	res := fn.Then(g.complete(ctx, prompt), nonBlank)
	return res.UnwrapOrElse(func(err error) string {
		g.fallback(op, err)
		return fallback()
	})
}

// complete calls the Completer, turning a panic into a failed Result so the
// caller's goroutine survives it.
func (g *Generator) complete(ctx context.Context, prompt string) (res fn.Result[string]) {
	defer func() {
		if r := recover(); r != nil {
			res = fn.Errf[string]("advice: completer panicked: %v", r)
		}
	}()
	return g.completer.Complete(ctx, prompt)
}

func (g *Generator) fallback(op string, err error) {
	g.logger.Warn("generative advice failed, using fallback", "operation", op, "error", err)
}

func nonBlank(s string) fn.Result[string] {
	s = strings.TrimSpace(s)
	if s == "" {
		return fn.Errf[string]("advice: empty response")
	}
	return fn.Ok(s)
}
