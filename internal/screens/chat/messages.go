package chat

import (
	"time"

	corechat "github.com/skripsifalana/wisnus-chatbot-survey/internal/chat"
)

// animTickMsg drives reveal frames and the popup countdown.
type animTickMsg time.Time

// submitDoneMsg is sent when a submission has run to completion.
type submitDoneMsg struct {
	Err error
}

// switchDoneMsg is sent when a mode switch has completed.
type switchDoneMsg struct {
	Target corechat.Mode
}

// engagementPromptMsg is sent when the QA engagement timer raises the
// return-to-survey confirmation.
type engagementPromptMsg struct{}

// noticeMsg carries a transient error notification for the toast.
type noticeMsg string

// noticeExpiredMsg dismisses the toast.
type noticeExpiredMsg struct{}
