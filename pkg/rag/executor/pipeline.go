package executor

import (
	"context"
	"fmt"
	"log"

	"ai-procedure-assistant-be/pkg/embedding"
	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/rag/catalog"
	"ai-procedure-assistant-be/pkg/rag/clarify"
	ragcontext "ai-procedure-assistant-be/pkg/rag/context"
	"ai-procedure-assistant-be/pkg/rag/policy"
	"ai-procedure-assistant-be/pkg/rag/response"
	"ai-procedure-assistant-be/pkg/rag/router"
	"ai-procedure-assistant-be/pkg/rag/search"
	"ai-procedure-assistant-be/pkg/rag/session"
	"ai-procedure-assistant-be/pkg/store"
)

// PipelineExecutor orchestrates one assistant turn:
// embed -> route -> policy -> auto-route or clarify -> retrieve -> answer.
// Session state is mutated on a clone and committed only after the turn
// fully succeeds, so a failed turn leaves the dialogue untouched.
type PipelineExecutor struct {
	embedder   embedding.Provider
	catalogs   *catalog.Provider
	router     *router.Router
	policy     *policy.Policy
	clarifier  *clarify.Engine
	searcher   *search.Orchestrator
	expander   *ragcontext.Expander
	generator  *response.Generator
	sessions   *session.Manager
	thresholds rag.Thresholds
	searchCfg  search.Config
	logger     *log.Logger
}

// NewPipelineExecutor wires the full turn pipeline.
func NewPipelineExecutor(
	embedder embedding.Provider,
	catalogs *catalog.Provider,
	rt *router.Router,
	pol *policy.Policy,
	clarifier *clarify.Engine,
	searcher *search.Orchestrator,
	expander *ragcontext.Expander,
	generator *response.Generator,
	sessions *session.Manager,
	thresholds rag.Thresholds,
	searchCfg search.Config,
	logger *log.Logger,
) *PipelineExecutor {
	return &PipelineExecutor{
		embedder:   embedder,
		catalogs:   catalogs,
		router:     rt,
		policy:     pol,
		clarifier:  clarifier,
		searcher:   searcher,
		expander:   expander,
		generator:  generator,
		sessions:   sessions,
		thresholds: thresholds,
		searchCfg:  searchCfg,
		logger:     logger,
	}
}

// Status discriminates the turn outcome.
type Status string

const (
	StatusAnswer              Status = "answer"
	StatusClarificationNeeded Status = "clarification_needed"
	StatusNoResults           Status = "no_results"
	StatusError               Status = "error"
)

// ExecutionResult is the union outcome of one turn. Exactly the fields
// implied by Status are set: Answer for answer, Clarification for
// clarification_needed, Message for no_results and error.
type ExecutionResult struct {
	Status        Status
	SessionID     string
	Answer        *response.Answer
	Clarification *clarify.Prompt
	Collection    string
	Confidence    float64
	WasOverridden bool
	Message       string
}

// Execute runs one free-text query turn.
func (p *PipelineExecutor) Execute(ctx context.Context, sessionID, query string) (*ExecutionResult, error) {
	work, unlock := p.sessions.Acquire(sessionID)
	defer unlock()
	sid := work.ID

	p.logger.Printf("[PIPELINE] Turn start session=%s query=%s", sid, truncate(query, 60))

	// A free-text query while a clarification is pending is the user
	// typing their own question instead of picking an option.
	if work.Stage != store.StageIdle {
		p.logger.Printf("[PIPELINE] Pending clarification abandoned by free-text query")
		p.clarifier.Advance(work, nil, clarify.Option{Action: clarify.ActionManualInput})
	}

	vector, err := p.embed(ctx, query, embedding.TaskRetrievalQuery)
	if err != nil {
		p.logger.Printf("[ERROR] Query embedding failed twice: %v", err)
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, fmt.Errorf("embed query: %w", err)
	}

	routing := p.router.Route(vector)
	decided := p.policy.Decide(routing, work)

	p.logger.Printf("[PIPELINE] Routed to %q confidence=%.4f overridden=%v",
		decided.TargetCollection, decided.Confidence, decided.WasOverridden)

	if p.thresholds.TierFor(decided.Confidence) == rag.TierAutoRoute && decided.TargetCollection != "" {
		return p.answer(ctx, sid, work, query, vector, decided.TargetCollection, decided)
	}

	prompt := p.clarifier.BuildInitial(decided, vector, work)
	work.PreservedQuery = query
	work.LowConfidenceStreak++
	p.sessions.Commit(work)

	return &ExecutionResult{
		Status:        StatusClarificationNeeded,
		SessionID:     sid,
		Clarification: prompt,
		Collection:    decided.TargetCollection,
		Confidence:    decided.Confidence,
		WasOverridden: decided.WasOverridden,
	}, nil
}

// answer runs retrieval and generation for a settled routing decision,
// then commits the session as the new last-successful context.
func (p *PipelineExecutor) answer(
	ctx context.Context,
	sid string,
	work *store.Session,
	query string,
	vector []float32,
	collectionID string,
	decided *router.RoutingResult,
) (*ExecutionResult, error) {

	chunks, err := p.searcher.Execute(ctx, collectionID, query, vector, p.searchCfg)
	if err != nil {
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, err
	}

	if len(chunks) == 0 {
		p.logger.Printf("[PIPELINE] No chunks above floor in %s", collectionID)
		return &ExecutionResult{
			Status:     StatusNoResults,
			SessionID:  sid,
			Collection: collectionID,
			Confidence: decided.Confidence,
			Message:    response.MessageNoResults,
		}, nil
	}

	expansion := p.expander.Expand(ctx, chunks)

	answer, err := p.generator.Generate(ctx, query, p.collectionName(collectionID), expansion)
	if err != nil {
		// Timeouts included: the turn is terminal and the session keeps
		// its pre-turn state. Generation is never retried.
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, err
	}

	work.LastCollection = collectionID
	work.LastDocument = dominantDocument(chunks)
	work.LastConfidence = decided.Confidence
	work.LowConfidenceStreak = 0
	work.ResetDialogue()
	p.sessions.Commit(work)

	return &ExecutionResult{
		Status:        StatusAnswer,
		SessionID:     sid,
		Answer:        answer,
		Collection:    collectionID,
		Confidence:    decided.Confidence,
		WasOverridden: decided.WasOverridden,
	}, nil
}

// embed generates the query embedding, retrying once on failure.
// Embedding backends drop requests transiently often enough that a
// single retry rescues most turns.
func (p *PipelineExecutor) embed(ctx context.Context, text, taskType string) ([]float32, error) {
	vector, err := p.embedder.Generate(ctx, text, taskType)
	if err == nil {
		return vector, nil
	}
	p.logger.Printf("[WARN] Embedding failed, retrying once: %v", err)

	vector, err = p.embedder.Generate(ctx, text, taskType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", rag.ErrEmbeddingFailure, err)
	}
	return vector, nil
}

func (p *PipelineExecutor) collectionName(collectionID string) string {
	if col := p.catalogs.Current().Get(collectionID); col != nil {
		return col.Name
	}
	return collectionID
}

// dominantDocument picks the document contributing the best chunk.
func dominantDocument(chunks []store.Chunk) string {
	best := 0
	for i := range chunks {
		if chunks[i].Score() > chunks[best].Score() {
			best = i
		}
	}
	return chunks[best].DocumentID
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
