package executor

import (
	"context"

	"ai-procedure-assistant-be/pkg/embedding"
	"ai-procedure-assistant-be/pkg/rag/clarify"
	"ai-procedure-assistant-be/pkg/rag/response"
	"ai-procedure-assistant-be/pkg/store"
)

// SubmitClarification applies the user's selected option to the pending
// dialogue. A terminal selection answers the chosen question with full
// confidence; an intermediate one returns the next prompt.
func (p *PipelineExecutor) SubmitClarification(ctx context.Context, sessionID string, selected clarify.Option) (*ExecutionResult, error) {
	work, unlock, err := p.sessions.AcquireExisting(sessionID)
	if err != nil {
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sessionID,
			Message:   "Phiên làm việc không tồn tại hoặc đã hết hạn.",
		}, err
	}
	defer unlock()

	p.logger.Printf("[PIPELINE] Clarification session=%s action=%s", sessionID, selected.Action)

	// Option ranking keeps following the originally preserved query.
	var queryVec []float32
	if work.PreservedQuery != "" {
		queryVec, err = p.embed(ctx, work.PreservedQuery, embedding.TaskRetrievalQuery)
		if err != nil {
			return &ExecutionResult{
				Status:    StatusError,
				SessionID: sessionID,
				Message:   response.MessageGenerationFailed,
			}, err
		}
	}

	outcome := p.clarifier.Advance(work, queryVec, selected)

	if outcome.Resolution != nil {
		return p.answerResolution(ctx, sessionID, work, outcome.Resolution)
	}

	p.sessions.Commit(work)
	return &ExecutionResult{
		Status:        StatusClarificationNeeded,
		SessionID:     sessionID,
		Clarification: outcome.Prompt,
	}, nil
}

// answerResolution answers an explicitly selected reference question.
// The selection fixes collection and document, so routing is bypassed
// and the turn proceeds at full confidence.
func (p *PipelineExecutor) answerResolution(ctx context.Context, sid string, work *store.Session, res *clarify.Resolution) (*ExecutionResult, error) {
	vector, err := p.embed(ctx, res.Question, embedding.TaskRetrievalQuery)
	if err != nil {
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, err
	}

	chunks, err := p.searcher.Execute(ctx, res.CollectionID, res.Question, vector, p.searchCfg)
	if err != nil {
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, err
	}
	if len(chunks) == 0 {
		return &ExecutionResult{
			Status:     StatusNoResults,
			SessionID:  sid,
			Collection: res.CollectionID,
			Confidence: 1.0,
			Message:    response.MessageNoResults,
		}, nil
	}

	expansion := p.expander.Expand(ctx, chunks)

	answer, err := p.generator.Generate(ctx, res.Question, p.collectionName(res.CollectionID), expansion)
	if err != nil {
		return &ExecutionResult{
			Status:    StatusError,
			SessionID: sid,
			Message:   response.MessageGenerationFailed,
		}, err
	}

	work.LastCollection = res.CollectionID
	work.LastDocument = res.DocumentID
	work.LastConfidence = 1.0
	work.LowConfidenceStreak = 0
	work.ResetDialogue()
	p.sessions.Commit(work)

	return &ExecutionResult{
		Status:     StatusAnswer,
		SessionID:  sid,
		Answer:     answer,
		Collection: res.CollectionID,
		Confidence: 1.0,
	}, nil
}
