package chat

import (
	"time"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
)

const (
	// noAnswerFallback is shown when the knowledge base returns no answer text.
	noAnswerFallback = "No response available"

	// completionPreamble opens every completion message.
	completionPreamble = "Survei telah selesai. Terima kasih atas partisipasi Anda."

	// autoResumeInfo annotates a question injected when returning from QA mode.
	autoResumeInfo = "Melanjutkan pertanyaan terakhir. Jawablah pertanyaan berikut ini."

	// immediateOptionsCode marks the one question whose options are shown
	// without the staged reveal.
	immediateOptionsCode = "KR004"
)

// DisplayContent is the canonical display-ready shape every backend payload
// family normalizes into.
type DisplayContent struct {
	Text       string
	Kind       DisplayKind
	Question   *QuestionRef
	Options    []string
	InfoText   string
	InfoSource string

	// OptionsImmediate requests the option list be visible as soon as the
	// entry lands, instead of after the text reveal completes.
	OptionsImmediate bool
}

// AdaptQuestion normalizes a survey question into display content.
func AdaptQuestion(q *backend.Question) DisplayContent {
	ref := &QuestionRef{
		Code:    q.Code,
		Text:    q.Text,
		Options: append([]string(nil), q.Options...),
	}
	return DisplayContent{
		Text:             q.Text,
		Kind:             KindQuestion,
		Question:         ref,
		Options:          ref.Options,
		OptionsImmediate: q.Code == immediateOptionsCode && len(q.Options) > 0,
	}
}

// AdaptAutoResumed normalizes a question injected on return to survey mode.
func AdaptAutoResumed(q *backend.Question) DisplayContent {
	c := AdaptQuestion(q)
	c.Kind = KindAutoResumedQuestion
	c.InfoText = autoResumeInfo
	return c
}

// AdaptKnowledgeAnswer normalizes a QA payload. The caller must not invoke
// this for payloads the backend marked as errors.
func AdaptKnowledgeAnswer(ans *backend.KnowledgeAnswer) DisplayContent {
	text := ans.Answer
	if text == "" {
		text = noAnswerFallback
	}
	return DisplayContent{
		Text:       text,
		Kind:       KindQAAnswer,
		InfoSource: ans.Source,
	}
}

// AdaptCompletion normalizes a survey-completed payload. The canonical text
// is the fixed preamble followed by the backend-supplied message, if any.
func AdaptCompletion(message string) DisplayContent {
	text := completionPreamble
	if message != "" {
		text += " " + message
	}
	return DisplayContent{
		Text: text,
		Kind: KindCompletion,
	}
}

// AdaptSubmitResult normalizes a survey-respond payload into one of the
// three display families: completion, question, or plain text.
func AdaptSubmitResult(res *backend.SubmitResult) DisplayContent {
	if res.Status == backend.StatusCompleted {
		return AdaptCompletion(res.Message)
	}
	if res.CurrentQuestion != nil {
		return AdaptQuestion(res.CurrentQuestion)
	}

	text := res.SystemMessage
	if text == "" {
		text = res.Message
	}
	return DisplayContent{
		Text: text,
		Kind: KindText,
	}
}

// entryFrom builds a system ChatEntry carrying the given content.
func entryFrom(content DisplayContent, mode Mode) ChatEntry {
	return ChatEntry{
		ID:             NewID(),
		Text:           content.Text,
		Author:         AuthorSystem,
		Mode:           mode,
		Kind:           content.Kind,
		Question:       content.Question,
		OptionsVisible: content.OptionsImmediate,
		InfoText:       content.InfoText,
		InfoSource:     content.InfoSource,
		CreatedAt:      time.Now(),
	}
}
