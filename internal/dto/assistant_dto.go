package dto

import (
	"time"
)

type CreateSessionResponse struct {
	SessionId string    `json:"session_id"`
	CreatedAt time.Time `json:"created_at"`
}

type GetSessionResponse struct {
	SessionId           string    `json:"session_id"`
	Stage               string    `json:"stage"`
	LastCollection      string    `json:"last_collection,omitempty"`
	LastDocument        string    `json:"last_document,omitempty"`
	LastConfidence      float64   `json:"last_confidence,omitempty"`
	LowConfidenceStreak int       `json:"low_confidence_streak"`
	CreatedAt           time.Time `json:"created_at"`
	LastAccessedAt      time.Time `json:"last_accessed_at"`
}

type QueryRequest struct {
	SessionId string `json:"session_id,omitempty"`
	Query     string `json:"query" validate:"required,min=1,max=2000"`
}

type ClarifyRequest struct {
	SessionId string        `json:"session_id" validate:"required"`
	Option    ClarifyOption `json:"option" validate:"required"`
}

type ClarifyOption struct {
	Id           string `json:"id"`
	Action       string `json:"action" validate:"required"`
	CollectionId string `json:"collection_id,omitempty"`
	DocumentId   string `json:"document_id,omitempty"`
	Question     string `json:"question,omitempty"`
}

type ClarificationOptionDTO struct {
	Id           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description,omitempty"`
	Action       string `json:"action"`
	CollectionId string `json:"collection_id,omitempty"`
	DocumentId   string `json:"document_id,omitempty"`
	Question     string `json:"question,omitempty"`
}

type ClarificationDTO struct {
	Stage   string                   `json:"stage"`
	Tier    string                   `json:"tier"`
	Message string                   `json:"message"`
	Options []ClarificationOptionDTO `json:"options"`
}

type AnswerDTO struct {
	Text      string   `json:"text"`
	Strategy  string   `json:"strategy,omitempty"`
	Citations []string `json:"citations,omitempty"`
}

// QueryResponse is the union turn outcome. Status decides which
// optional field is present: "answer", "clarification_needed",
// "no_results" or "error".
type QueryResponse struct {
	Status        string            `json:"status"`
	SessionId     string            `json:"session_id"`
	Answer        *AnswerDTO        `json:"answer,omitempty"`
	Clarification *ClarificationDTO `json:"clarification,omitempty"`
	Collection    string            `json:"collection,omitempty"`
	Confidence    float64           `json:"confidence,omitempty"`
	WasOverridden bool              `json:"was_overridden,omitempty"`
	Message       string            `json:"message,omitempty"`
}

type CollectionDTO struct {
	Id            string `json:"id"`
	Name          string `json:"name"`
	DocumentCount int    `json:"document_count"`
	QuestionCount int    `json:"question_count"`
}
