package intent

import (
	"context"
	"log/slog"
	"time"
)

// Service implements the layered Classifier.
// Layer 1: rule matching, no model call, answers most messages.
// Layer 2: LLM classification for whatever the rules cannot decide.
// A model failure degrades to a booking-biased default instead of
// surfacing an error, so one flaky call never stalls a conversation.
type Service struct {
	rules *RuleMatcher
	llm   *LLMClassifier
}

// Config contains the classifier service dependencies.
type Config struct {
	LLMClassifier *LLMClassifier
}

// NewService creates a layered classifier service.
func NewService(cfg Config) *Service {
	return &Service{
		rules: NewRuleMatcher(),
		llm:   cfg.LLMClassifier,
	}
}

// Classify classifies the message, rules first, then LLM.
func (s *Service) Classify(ctx context.Context, input string, history []string) (Result, error) {
	start := time.Now()

	if intent, confidence, matched := s.rules.Match(input); matched {
		slog.Debug("intent classified by rules",
			"input", truncate(input, 50),
			"intent", intent,
			"confidence", confidence,
			"latency_ms", time.Since(start).Milliseconds())
		return Result{Intent: intent, Confidence: confidence, Method: "rules"}, nil
	}

	if s.llm != nil {
		result, err := s.llm.Classify(ctx, input, history)
		if err == nil {
			slog.Debug("intent classified by llm",
				"input", truncate(input, 50),
				"intent", result.Intent,
				"confidence", result.Confidence,
				"latency_ms", time.Since(start).Milliseconds())
			return result, nil
		}
		slog.Warn("llm intent classification failed, using default", "error", err)
	}

	// In a travel assistant an undecidable message is most often a
	// booking attempt phrased unusually, so bias the default that way.
	return Result{Intent: IntentBookTrip, Confidence: 0.3, Method: "fallback"}, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

var _ Classifier = (*Service)(nil)
