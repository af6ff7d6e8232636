package clarify

import (
	"fmt"
	"log"

	"ai-procedure-assistant-be/pkg/rag"
	"ai-procedure-assistant-be/pkg/rag/catalog"
	"ai-procedure-assistant-be/pkg/rag/router"
	"ai-procedure-assistant-be/pkg/store"
)

// Prompt is one clarification turn shown to the user: the stage the
// session is now waiting in, the tier that produced it, and the
// selectable options.
type Prompt struct {
	Stage   store.ClarificationStage `json:"stage"`
	Tier    rag.Tier                 `json:"tier"`
	Message string                   `json:"message"`
	Options []Option                 `json:"options"`
}

// Resolution terminates the dialogue: target collection and document
// are fixed and the selected question proceeds to answer generation.
type Resolution struct {
	CollectionID string
	DocumentID   string
	Question     string
}

// Outcome of advancing the state machine: exactly one of Prompt or
// Resolution is set. SessionCleared reports that manual_input wiped
// the session because no narrowing had happened yet.
type Outcome struct {
	Prompt         *Prompt
	Resolution     *Resolution
	SessionCleared bool
}

// Config tunes option list sizes.
type Config struct {
	TopQuestions   int // candidate questions in the document_questions tier
	TopCollections int // collections offered in the multiple_choices tier
	// WideningStreak widens multiple_choices to category_suggestions
	// once this many consecutive turns ended in clarification.
	WideningStreak int
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{TopQuestions: 5, TopCollections: 3, WideningStreak: 3}
}

// Engine drives the Collection -> Document -> Question narrowing
// dialogue. It mutates only the session clone handed to it; committing
// the clone is the orchestrator's job.
type Engine struct {
	catalogs   *catalog.Provider
	thresholds rag.Thresholds
	cfg        Config
	logger     *log.Logger
}

// NewEngine creates a clarification engine.
func NewEngine(catalogs *catalog.Provider, thresholds rag.Thresholds, cfg Config, logger *log.Logger) *Engine {
	return &Engine{catalogs: catalogs, thresholds: thresholds, cfg: cfg, logger: logger}
}

// BuildInitial opens a dialogue for a routing decision that did not
// clear the auto-route bar. queryVec is the embedding of the original
// query; it drives the similarity ranking of every option list.
func (e *Engine) BuildInitial(decided *router.RoutingResult, queryVec []float32, session *store.Session) *Prompt {
	tier := e.thresholds.TierFor(decided.Confidence)
	if decided.TargetCollection == "" {
		// Nothing matched at all: ranking is meaningless
		tier = rag.TierCategorySuggestions
	}
	if tier == rag.TierMultipleChoices && session.LowConfidenceStreak >= e.cfg.WideningStreak {
		// Ranking has been wrong repeatedly for this session
		tier = rag.TierCategorySuggestions
	}

	switch tier {
	case rag.TierDocumentQuestions:
		if p := e.buildQuestionStage(session, decided.TargetCollection, decided.SourceDocument, queryVec, tier); p != nil {
			return p
		}
		// Matched document has no questions: broaden
		fallthrough
	case rag.TierMultipleChoices:
		if p := e.buildTopCollections(session, decided, tier); p != nil {
			return p
		}
		fallthrough
	default:
		return e.buildAllCollections(session)
	}
}

// Advance applies a selected option to the pending dialogue.
func (e *Engine) Advance(session *store.Session, queryVec []float32, selected Option) *Outcome {
	switch selected.Action {
	case ActionManualInput:
		return e.handleManualInput(session)

	case ActionProceedWithCollection:
		if session.Stage != store.StageAwaitingCollection || selected.Payload.CollectionID == "" {
			return &Outcome{Prompt: e.Reprompt()}
		}
		session.PendingCollection = selected.Payload.CollectionID
		if p := e.buildDocumentStage(session, selected.Payload.CollectionID, queryVec); p != nil {
			return &Outcome{Prompt: p}
		}
		// Collection holds no documents: back to the broader stage
		return &Outcome{Prompt: e.buildAllCollections(session)}

	case ActionProceedWithDocument:
		if session.Stage != store.StageAwaitingDocument || selected.Payload.DocumentID == "" {
			return &Outcome{Prompt: e.Reprompt()}
		}
		collectionID := selected.Payload.CollectionID
		if collectionID == "" {
			collectionID = session.PendingCollection
		}
		session.PendingDocument = selected.Payload.DocumentID
		if p := e.buildQuestionStage(session, collectionID, selected.Payload.DocumentID, queryVec, rag.TierDocumentQuestions); p != nil {
			return &Outcome{Prompt: p}
		}
		// Document holds no questions: back to the document list
		if p := e.buildDocumentStage(session, collectionID, queryVec); p != nil {
			return &Outcome{Prompt: p}
		}
		return &Outcome{Prompt: e.buildAllCollections(session)}

	case ActionAnswerQuestion:
		if selected.Payload.Question == "" {
			return &Outcome{Prompt: e.Reprompt()}
		}
		collectionID := selected.Payload.CollectionID
		if collectionID == "" {
			collectionID = session.PendingCollection
		}
		documentID := selected.Payload.DocumentID
		if documentID == "" {
			documentID = session.PendingDocument
		}
		return &Outcome{Resolution: &Resolution{
			CollectionID: collectionID,
			DocumentID:   documentID,
			Question:     selected.Payload.Question,
		}}

	default:
		e.logger.Printf("[CLARIFY] Unknown action %q, reprompting", selected.Action)
		return &Outcome{Prompt: e.Reprompt()}
	}
}

// Reprompt is the degraded "please rephrase" clarification used when
// option generation fails or an option arrives out of order. It does
// not hold a stage, so the next input is treated as a fresh query.
func (e *Engine) Reprompt() *Prompt {
	return &Prompt{
		Stage:   store.StageIdle,
		Tier:    rag.TierCategorySuggestions,
		Message: "Xin lỗi, tôi chưa hiểu rõ. Vui lòng diễn đạt lại câu hỏi của bạn.",
		Options: []Option{manualInputOption()},
	}
}

func (e *Engine) handleManualInput(session *store.Session) *Outcome {
	if session.PendingCollection != "" {
		// Narrowing already happened: keep it as last-successful
		// context so the next fresh query benefits from the override.
		session.LastCollection = session.PendingCollection
		session.LastDocument = session.PendingDocument
		if session.LastConfidence < e.thresholds.MinContextConfidence {
			session.LastConfidence = e.thresholds.MinContextConfidence
		}
		session.ResetDialogue()
		e.logger.Printf("[CLARIFY] Manual input, narrowed context kept: %s/%s",
			session.LastCollection, session.LastDocument)
		return &Outcome{Prompt: e.Reprompt()}
	}

	// No narrowing yet: a stale guess is worse than nothing
	id, created := session.ID, session.CreatedAt
	*session = store.Session{ID: id, CreatedAt: created, Stage: store.StageIdle}
	e.logger.Printf("[CLARIFY] Manual input before narrowing, session cleared")
	return &Outcome{Prompt: e.Reprompt(), SessionCleared: true}
}

// buildQuestionStage lists the top candidate questions of one
// document. Returns nil when the document has no reference questions.
func (e *Engine) buildQuestionStage(session *store.Session, collectionID, documentID string, queryVec []float32, tier rag.Tier) *Prompt {
	ranked := e.catalogs.Current().RankQuestions(collectionID, documentID, queryVec)
	if len(ranked) == 0 {
		return nil
	}
	if len(ranked) > e.cfg.TopQuestions {
		ranked = ranked[:e.cfg.TopQuestions]
	}

	options := make([]Option, 0, len(ranked)+1)
	for i, sq := range ranked {
		options = append(options, Option{
			ID:     fmt.Sprintf("question_%d", i+1),
			Title:  sq.Question.Text,
			Action: ActionAnswerQuestion,
			Payload: Payload{
				CollectionID: collectionID,
				DocumentID:   documentID,
				Question:     sq.Question.Text,
			},
		})
	}
	options = append(options, manualInputOption())

	session.Stage = store.StageAwaitingQuestion
	session.PendingCollection = collectionID
	session.PendingDocument = documentID

	return &Prompt{
		Stage:   store.StageAwaitingQuestion,
		Tier:    tier,
		Message: "Có phải bạn muốn hỏi một trong những câu sau không?",
		Options: options,
	}
}

// buildDocumentStage lists one collection's documents ranked by the
// preserved query's similarity to each document's reference questions.
// Never alphabetical: the original query stays the ranking signal.
func (e *Engine) buildDocumentStage(session *store.Session, collectionID string, queryVec []float32) *Prompt {
	ranked := e.catalogs.Current().RankDocuments(collectionID, queryVec)
	if len(ranked) == 0 {
		return nil
	}

	options := make([]Option, 0, len(ranked)+1)
	for i, sd := range ranked {
		options = append(options, Option{
			ID:          fmt.Sprintf("document_%d", i+1),
			Title:       sd.Document.Title,
			Description: sd.Document.Metadata["agency"],
			Action:      ActionProceedWithDocument,
			Payload:     Payload{CollectionID: collectionID, DocumentID: sd.Document.ID},
		})
	}
	options = append(options, manualInputOption())

	session.Stage = store.StageAwaitingDocument
	session.PendingCollection = collectionID

	return &Prompt{
		Stage:   store.StageAwaitingDocument,
		Tier:    rag.TierMultipleChoices,
		Message: "Vui lòng chọn thủ tục bạn quan tâm:",
		Options: options,
	}
}

// buildTopCollections offers the best-scoring collections. Returns nil
// when fewer than two collections scored, which leaves nothing worth
// choosing between.
func (e *Engine) buildTopCollections(session *store.Session, decided *router.RoutingResult, tier rag.Tier) *Prompt {
	cat := e.catalogs.Current()

	type scored struct {
		col   *catalog.Collection
		score float64
	}
	var candidates []scored
	for i := range cat.Collections() {
		col := &cat.Collections()[i]
		if s, ok := decided.AllScores[col.ID]; ok {
			candidates = append(candidates, scored{col: col, score: s})
		}
	}
	if len(candidates) < 2 {
		return nil
	}
	// Stable selection sort keeps catalog order on equal scores
	for i := 0; i < len(candidates); i++ {
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].score > candidates[i].score {
				candidates[i], candidates[j] = candidates[j], candidates[i]
			}
		}
	}
	if len(candidates) > e.cfg.TopCollections {
		candidates = candidates[:e.cfg.TopCollections]
	}

	options := make([]Option, 0, len(candidates)+1)
	for i, c := range candidates {
		options = append(options, Option{
			ID:     fmt.Sprintf("collection_%d", i+1),
			Title:  c.col.Name,
			Action: ActionProceedWithCollection,
			Payload: Payload{
				CollectionID: c.col.ID,
			},
		})
	}
	options = append(options, manualInputOption())

	session.Stage = store.StageAwaitingCollection

	return &Prompt{
		Stage:   store.StageAwaitingCollection,
		Tier:    tier,
		Message: "Câu hỏi của bạn có thể thuộc các lĩnh vực sau. Vui lòng chọn một lĩnh vực:",
		Options: options,
	}
}

// buildAllCollections offers every known collection. The ranking is
// untrustworthy at this confidence, so catalog order is used as-is.
func (e *Engine) buildAllCollections(session *store.Session) *Prompt {
	cat := e.catalogs.Current()

	options := make([]Option, 0, len(cat.Collections())+1)
	for i := range cat.Collections() {
		col := &cat.Collections()[i]
		options = append(options, Option{
			ID:     fmt.Sprintf("collection_%d", i+1),
			Title:  col.Name,
			Action: ActionProceedWithCollection,
			Payload: Payload{
				CollectionID: col.ID,
			},
		})
	}
	options = append(options, manualInputOption())

	session.Stage = store.StageAwaitingCollection

	return &Prompt{
		Stage:   store.StageAwaitingCollection,
		Tier:    rag.TierCategorySuggestions,
		Message: "Tôi chưa xác định được lĩnh vực phù hợp. Vui lòng chọn một trong các lĩnh vực dưới đây:",
		Options: options,
	}
}
