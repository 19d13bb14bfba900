package chat

import (
	"context"
	"sync"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
)

// IntentService classifies whether a free-text reply means the respondent
// is ready to start the survey.
type IntentService interface {
	AnalyzeIntent(ctx context.Context, text string) (*backend.IntentResult, error)
}

// ReadinessGate is a short-lived intercept: while armed, the next user
// submission is classified instead of dispatched to the active mode.
type ReadinessGate struct {
	mu      sync.Mutex
	armed   bool
	intents IntentService
}

// NewReadinessGate creates a disarmed gate.
func NewReadinessGate(intents IntentService) *ReadinessGate {
	return &ReadinessGate{intents: intents}
}

// Arm makes the gate intercept the next submission.
func (g *ReadinessGate) Arm() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.armed = true
}

// Armed reports whether the gate will intercept the next submission.
func (g *ReadinessGate) Armed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.armed
}

// Resolve classifies text. A positive verdict disarms the gate; a negative
// verdict or a classification failure leaves it armed.
func (g *ReadinessGate) Resolve(ctx context.Context, text string) (bool, error) {
	res, err := g.intents.AnalyzeIntent(ctx, text)
	if err != nil {
		return false, err
	}
	if !res.Success || !res.Data.WantsToStart {
		return false, nil
	}

	g.mu.Lock()
	g.armed = false
	g.mu.Unlock()
	return true, nil
}
