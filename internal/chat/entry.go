package chat

import (
	"time"

	"github.com/google/uuid"
)

// Author identifies who produced a chat entry.
type Author string

const (
	AuthorUser   Author = "user"
	AuthorSystem Author = "system"
)

// Mode is the conversational mode a chat entry was produced under.
type Mode string

const (
	ModeSurvey Mode = "survey"
	ModeQA     Mode = "qa"
)

// DisplayKind selects which renderer and affordance set applies to an entry.
type DisplayKind string

const (
	KindText                DisplayKind = "text"
	KindQuestion            DisplayKind = "question"
	KindAutoResumedQuestion DisplayKind = "auto_resumed_question"
	KindQAAnswer            DisplayKind = "qa_answer"
	KindCompletion          DisplayKind = "completion"
)

// QuestionRef points an entry at the survey question it corresponds to.
type QuestionRef struct {
	Code    string
	Text    string
	Options []string
}

// ChatEntry is one turn in the conversation. Entries are ordered by
// insertion into the MessageLog and never re-sorted; ID is the only
// stable handle for later patch or replace operations.
type ChatEntry struct {
	ID        string
	Text      string
	Author    Author
	Mode      Mode
	Kind      DisplayKind
	IsLoading bool

	// Question is set for entries that display a survey question.
	Question *QuestionRef

	// OptionsVisible gates the option affordances; text reveals first,
	// options follow (synchronously for the carve-out question).
	OptionsVisible bool

	// InfoText is a secondary informational line shown above the entry.
	InfoText string

	// InfoSource names the knowledge-base source of a QA answer.
	InfoSource string

	// CreatedAt is display-only and never used for ordering.
	CreatedAt time.Time
}

// NewID returns a fresh opaque entry id.
func NewID() string {
	return uuid.New().String()
}

// UserEntry builds a user-authored entry for the given mode.
func UserEntry(text string, mode Mode) ChatEntry {
	return ChatEntry{
		ID:        NewID(),
		Text:      text,
		Author:    AuthorUser,
		Mode:      mode,
		Kind:      KindText,
		CreatedAt: time.Now(),
	}
}

// LoadingEntry builds a system placeholder shown while a dispatch is in
// flight. Its id is later targeted by a replace or patch.
func LoadingEntry(mode Mode) ChatEntry {
	return ChatEntry{
		ID:        NewID(),
		Author:    AuthorSystem,
		Mode:      mode,
		Kind:      KindText,
		IsLoading: true,
		CreatedAt: time.Now(),
	}
}
