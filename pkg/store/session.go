package store

import "time"

// ClarificationStage tracks where a session is inside the guided
// narrowing dialogue. Stages only move forward or reset to Idle.
type ClarificationStage string

const (
	StageIdle               ClarificationStage = "IDLE"
	StageAwaitingCollection ClarificationStage = "AWAITING_COLLECTION"
	StageAwaitingDocument   ClarificationStage = "AWAITING_DOCUMENT"
	StageAwaitingQuestion   ClarificationStage = "AWAITING_QUESTION"
)

// Session represents the active conversation state in memory.
// It is the only mutable state in the system; everything else is
// read-only at query time.
type Session struct {
	ID             string    `json:"id"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`

	// Context from the last turn that resolved to a direct answer.
	// Feeds the routing override on weak follow-up queries.
	LastCollection string  `json:"last_collection,omitempty"`
	LastDocument   string  `json:"last_document,omitempty"`
	LastConfidence float64 `json:"last_confidence"`

	// Number of consecutive turns that ended in a clarification
	// instead of an answer. Reset on every direct answer.
	LowConfidenceStreak int `json:"low_confidence_streak"`

	// Clarification dialogue state
	Stage          ClarificationStage `json:"stage"`
	PreservedQuery string             `json:"preserved_query,omitempty"`

	// Narrowing chosen during the current dialogue but not yet
	// committed as "last successful". Promoted or discarded when the
	// dialogue terminates.
	PendingCollection string `json:"pending_collection,omitempty"`
	PendingDocument   string `json:"pending_document,omitempty"`
}

// Clone returns an independent copy. Turn processing works on a clone
// and commits it back only once the whole turn succeeded.
func (s *Session) Clone() *Session {
	c := *s
	return &c
}

// ResetDialogue clears the clarification state, leaving the
// last-successful context untouched.
func (s *Session) ResetDialogue() {
	s.Stage = StageIdle
	s.PreservedQuery = ""
	s.PendingCollection = ""
	s.PendingDocument = ""
}

// Chunk is a retrieved slice of a procedure document. Similarity and
// RerankScore are ephemeral per-query values, never persisted.
type Chunk struct {
	ID            string   `json:"id"`
	CollectionID  string   `json:"collection_id"`
	DocumentID    string   `json:"document_id"`
	DocumentTitle string   `json:"document_title"`
	Index         int      `json:"index"`
	Text          string   `json:"text"`
	Similarity    float64  `json:"similarity"`
	RerankScore   *float64 `json:"rerank_score,omitempty"`
}

// Score returns the ranking score for this chunk: the cross-encoder
// score when reranking ran, raw similarity otherwise.
func (c *Chunk) Score() float64 {
	if c.RerankScore != nil {
		return *c.RerankScore
	}
	return c.Similarity
}
