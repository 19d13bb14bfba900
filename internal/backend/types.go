package backend

import "context"

// Survey session status values reported by the survey engine.
const (
	StatusInProgress = "IN_PROGRESS"
	StatusCompleted  = "COMPLETED"
	StatusNotStarted = "NOT_STARTED"
)

// Question is one survey question as served by the survey engine.
type Question struct {
	Code    string   `json:"code"`
	Text    string   `json:"text"`
	Type    string   `json:"type,omitempty"`
	Unit    string   `json:"unit,omitempty"`
	Options []string `json:"options,omitempty"`
}

// SubmitResult is the survey-respond payload returned after submitting a
// free-text answer.
type SubmitResult struct {
	Success         bool      `json:"success"`
	SessionID       string    `json:"session_id,omitempty"`
	Status          string    `json:"status,omitempty"`
	CurrentQuestion *Question `json:"current_question,omitempty"`
	SystemMessage   string    `json:"system_message,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// CurrentQuestionData is the inner payload of the current-question service.
type CurrentQuestionData struct {
	Status          string    `json:"status,omitempty"`
	CurrentQuestion *Question `json:"current_question,omitempty"`
	SessionID       string    `json:"session_id,omitempty"`
	Message         string    `json:"message,omitempty"`
}

// CurrentQuestionResult is the current-question service response.
type CurrentQuestionResult struct {
	Success bool                `json:"success"`
	Data    CurrentQuestionData `json:"data"`
}

// KnowledgeAnswer is the QA (RAG) service response.
type KnowledgeAnswer struct {
	Error   bool   `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
	Answer  string `json:"answer,omitempty"`
	Source  string `json:"source,omitempty"`
}

// IntentData is the inner payload of the intent-classification service.
type IntentData struct {
	WantsToStart bool `json:"wants_to_start"`
}

// IntentResult is the intent-classification service response.
type IntentResult struct {
	Success bool       `json:"success"`
	Data    IntentData `json:"data"`
}

// MessageRecord is one persisted conversation turn. UserMessage is nil for
// system-injected entries.
type MessageRecord struct {
	UserMessage    *string `json:"user_message"`
	SystemResponse any     `json:"system_response"`
	Mode           string  `json:"mode"`
}

// Backend is the set of collaborator services the chat core talks to.
type Backend interface {
	// SubmitResponse sends a free-text survey answer.
	SubmitResponse(ctx context.Context, answer string) (*SubmitResult, error)

	// CurrentQuestion fetches the survey question the respondent is on.
	CurrentQuestion(ctx context.Context) (*CurrentQuestionResult, error)

	// QueryKnowledge asks the knowledge base a free-form question.
	QueryKnowledge(ctx context.Context, question string) (*KnowledgeAnswer, error)

	// AnalyzeIntent classifies whether a reply means "ready to start".
	AnalyzeIntent(ctx context.Context, text string) (*IntentResult, error)

	// AppendMessage persists one conversation turn. Best effort from the
	// caller's perspective; failures are logged, not retried inline.
	AppendMessage(ctx context.Context, rec MessageRecord) error
}
