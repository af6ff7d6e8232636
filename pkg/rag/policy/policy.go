package policy

import (
	"log"

	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/rag/router"
	"ai-procedure-assistant-be/pkg/store"
)

// Policy blends the current routing confidence with recent session
// context so an established topic is not lost on a weak follow-up
// ("how much does it cost?" scores low standalone but almost always
// belongs to the previous turn's collection).
type Policy struct {
	thresholds rag.Thresholds
	logger     *log.Logger
}

// NewPolicy creates a stateful routing policy.
func NewPolicy(thresholds rag.Thresholds, logger *log.Logger) *Policy {
	return &Policy{thresholds: thresholds, logger: logger}
}

// Decide returns a copy of the routing result, overridden with the
// session's last successful collection when, and only when, all of:
//
//  1. the standalone confidence is below VeryHighGate,
//  2. the session's last successful confidence is at least
//     MinContextConfidence, and
//  3. no clarification dialogue is pending.
//
// A confidently scored new topic always wins regardless of history.
// Neither input is mutated.
func (p *Policy) Decide(routing *router.RoutingResult, session *store.Session) *router.RoutingResult {
	decided := routing.Clone()

	if session == nil || session.LastCollection == "" {
		return decided
	}
	if routing.Confidence >= p.thresholds.VeryHighGate {
		return decided
	}
	if session.LastConfidence < p.thresholds.MinContextConfidence {
		return decided
	}
	if session.Stage != store.StageIdle {
		return decided
	}

	decided.WasOverridden = true
	decided.OriginalConfidence = routing.Confidence
	decided.TargetCollection = session.LastCollection
	if session.LastDocument != "" {
		decided.SourceDocument = session.LastDocument
	}
	// Carry the trusted context confidence so tier selection treats
	// the follow-up as a continuation rather than a cold query.
	decided.Confidence = session.LastConfidence

	p.logger.Printf("[POLICY] Override: %s (%.4f standalone) -> %s (context %.4f)",
		routing.TargetCollection, routing.Confidence,
		session.LastCollection, session.LastConfidence)

	return decided
}
