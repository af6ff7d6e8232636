package clarify

// Action discriminates what selecting an option does. The transition
// table in Engine.Advance switches exhaustively over these values.
type Action string

const (
	ActionProceedWithCollection Action = "proceed_with_collection"
	ActionProceedWithDocument   Action = "proceed_with_document"
	ActionAnswerQuestion        Action = "answer_question"
	ActionManualInput           Action = "manual_input"
)

// Payload carries the identifiers an action needs. Which fields are
// set depends on the action: collection actions set CollectionID,
// document actions add DocumentID, question actions add Question.
// manual_input carries nothing.
type Payload struct {
	CollectionID string `json:"collection_id,omitempty"`
	DocumentID   string `json:"document_id,omitempty"`
	Question     string `json:"question,omitempty"`
}

// Option is one selectable choice presented to the user.
type Option struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	Action      Action  `json:"action"`
	Payload     Payload `json:"payload"`
}

func manualInputOption() Option {
	return Option{
		ID:     "manual_input",
		Title:  "Nhập câu hỏi khác",
		Action: ActionManualInput,
	}
}
