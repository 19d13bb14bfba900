package chat

import (
	"context"
	"testing"
	"time"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/backend"
)

func newModeFixture(t *testing.T, opts ModeControllerOptions) (*ModeController, *MessageLog, *backend.MockBackend) {
	t.Helper()
	log := NewMessageLog()
	mock := backend.NewMockBackend()
	opts.Log = log
	opts.Animator = NewAnimator(log)
	opts.Questions = mock
	opts.Store = mock
	c := NewModeController(opts)
	t.Cleanup(c.Close)
	return c, log, mock
}

func TestModeController_StartsInSurvey(t *testing.T) {
	c, _, _ := newModeFixture(t, ModeControllerOptions{})
	if c.Mode() != ModeSurvey {
		t.Errorf("initial mode = %v, want survey", c.Mode())
	}
}

func TestSwitchToSurvey_InjectsQuestionAfterUserEntry(t *testing.T) {
	var gotQuestion *backend.Question
	c, log, mock := newModeFixture(t, ModeControllerOptions{
		OnQuestion: func(q *backend.Question) { gotQuestion = q },
	})

	c.SwitchToQA()
	log.Append(UserEntry("Apa itu wisnus?", ModeQA))

	mock.QueueQuestion(&backend.CurrentQuestionResult{
		Success: true,
		Data: backend.CurrentQuestionData{
			Status: backend.StatusInProgress,
			CurrentQuestion: &backend.Question{
				Code:    "S003",
				Text:    "Kapan perjalanan terakhir Anda?",
				Options: []string{"Bulan ini", "Bulan lalu"},
			},
		},
	}, nil)

	c.SwitchToSurvey(context.Background())

	last, ok := log.Last()
	if !ok {
		t.Fatal("no entry injected")
	}
	if last.Kind != KindAutoResumedQuestion {
		t.Errorf("injected kind = %v, want auto-resumed question", last.Kind)
	}
	if last.Mode != ModeSurvey {
		t.Errorf("injected mode = %v, want survey", last.Mode)
	}
	if gotQuestion == nil || gotQuestion.Code != "S003" {
		t.Error("current question not reported to observer")
	}
	if len(mock.AppendCalls) != 1 {
		t.Fatalf("persisted %d turns, want 1", len(mock.AppendCalls))
	}
	if mock.AppendCalls[0].UserMessage != nil {
		t.Error("injected entry persisted with a user message")
	}

	// Option list stays hidden until the reveal finishes.
	if last.OptionsVisible {
		t.Error("options visible before reveal completed")
	}
	waitFor(t, 5*time.Second, func() bool {
		e, _ := log.Get(last.ID)
		return e.OptionsVisible
	})
}

func TestSwitchToSurvey_InjectsAfterQASystemEntry(t *testing.T) {
	c, log, mock := newModeFixture(t, ModeControllerOptions{})

	c.SwitchToQA()
	log.Append(entryFrom(DisplayContent{Text: "Jawaban.", Kind: KindQAAnswer}, ModeQA))

	mock.QueueQuestion(&backend.CurrentQuestionResult{
		Success: true,
		Data: backend.CurrentQuestionData{
			Status:          backend.StatusInProgress,
			CurrentQuestion: &backend.Question{Code: "S001", Text: "Siapa nama Anda?"},
		},
	}, nil)

	c.SwitchToSurvey(context.Background())
	if mock.QuestionCalls != 1 {
		t.Errorf("question fetches = %d, want 1", mock.QuestionCalls)
	}
}

func TestSwitchToSurvey_NoInjectionAfterSurveySystemEntry(t *testing.T) {
	c, log, mock := newModeFixture(t, ModeControllerOptions{})

	log.Append(entryFrom(DisplayContent{Text: "Siapa nama Anda?", Kind: KindQuestion}, ModeSurvey))
	c.SwitchToQA()
	c.SwitchToSurvey(context.Background())

	if mock.QuestionCalls != 0 {
		t.Errorf("question fetches = %d, want none", mock.QuestionCalls)
	}
	if log.Len() != 1 {
		t.Errorf("log length = %d, want unchanged", log.Len())
	}
}

func TestSwitchToSurvey_CompletedSurveyInjectsCompletion(t *testing.T) {
	c, log, mock := newModeFixture(t, ModeControllerOptions{})

	c.SwitchToQA()
	log.Append(UserEntry("Sudah selesai?", ModeQA))

	mock.QueueQuestion(&backend.CurrentQuestionResult{
		Success: true,
		Data: backend.CurrentQuestionData{
			Status:  backend.StatusCompleted,
			Message: "Data Anda telah tersimpan.",
		},
	}, nil)

	c.SwitchToSurvey(context.Background())

	last, _ := log.Last()
	if last.Kind != KindCompletion {
		t.Errorf("injected kind = %v, want completion", last.Kind)
	}
	if len(mock.AppendCalls) != 1 {
		t.Errorf("persisted %d turns, want 1", len(mock.AppendCalls))
	}
}

func TestSwitchToSurvey_FetchFailureInjectsNothing(t *testing.T) {
	c, log, mock := newModeFixture(t, ModeControllerOptions{})

	c.SwitchToQA()
	log.Append(UserEntry("Apa itu wisnus?", ModeQA))
	mock.QueueQuestion(nil, &backend.ErrServiceUnavailable{Service: "current-question"})

	c.SwitchToSurvey(context.Background())

	if log.Len() != 1 {
		t.Errorf("log length = %d, want only the user entry", log.Len())
	}
}

func TestSwitchToSurvey_ReportsSessionID(t *testing.T) {
	var adopted string
	c, log, mock := newModeFixture(t, ModeControllerOptions{
		OnSessionID: func(id string) { adopted = id },
	})

	c.SwitchToQA()
	log.Append(UserEntry("Halo", ModeQA))
	mock.QueueQuestion(&backend.CurrentQuestionResult{
		Success: true,
		Data: backend.CurrentQuestionData{
			Status:          backend.StatusInProgress,
			SessionID:       "sess-42",
			CurrentQuestion: &backend.Question{Code: "S001", Text: "Siapa nama Anda?"},
		},
	}, nil)

	c.SwitchToSurvey(context.Background())
	if adopted != "sess-42" {
		t.Errorf("adopted session id = %q, want sess-42", adopted)
	}
}

func TestEngagementTimer_FiresAfterContinuousQA(t *testing.T) {
	prompted := make(chan struct{}, 1)
	c, _, _ := newModeFixture(t, ModeControllerOptions{
		EngagementTimeout: 30 * time.Millisecond,
		OnPrompt:          func() { prompted <- struct{}{} },
	})

	c.SwitchToQA()
	select {
	case <-prompted:
	case <-time.After(2 * time.Second):
		t.Fatal("engagement prompt never fired")
	}
}

func TestEngagementTimer_RearmsOnExchange(t *testing.T) {
	prompted := make(chan struct{}, 4)
	c, _, _ := newModeFixture(t, ModeControllerOptions{
		EngagementTimeout: 60 * time.Millisecond,
		OnPrompt:          func() { prompted <- struct{}{} },
	})

	c.SwitchToQA()
	for i := 0; i < 3; i++ {
		time.Sleep(25 * time.Millisecond)
		c.RecordQAExchange()
	}
	select {
	case <-prompted:
		t.Fatal("prompt fired while exchanges kept arriving")
	default:
	}

	select {
	case <-prompted:
	case <-time.After(2 * time.Second):
		t.Fatal("prompt never fired after exchanges stopped")
	}
}

func TestEngagementTimer_CancelledByModeSwitch(t *testing.T) {
	prompted := make(chan struct{}, 1)
	c, log, _ := newModeFixture(t, ModeControllerOptions{
		EngagementTimeout: 50 * time.Millisecond,
		OnPrompt:          func() { prompted <- struct{}{} },
	})

	log.Append(entryFrom(DisplayContent{Text: "Siapa nama Anda?", Kind: KindQuestion}, ModeSurvey))
	c.SwitchToQA()
	c.SwitchToSurvey(context.Background())

	select {
	case <-prompted:
		t.Fatal("prompt fired after returning to survey mode")
	case <-time.After(150 * time.Millisecond):
	}
}

func TestClose_CancelsPendingTimer(t *testing.T) {
	prompted := make(chan struct{}, 1)
	c, _, _ := newModeFixture(t, ModeControllerOptions{
		EngagementTimeout: 50 * time.Millisecond,
		OnPrompt:          func() { prompted <- struct{}{} },
	})

	c.SwitchToQA()
	c.Close()

	select {
	case <-prompted:
		t.Fatal("prompt fired after Close")
	case <-time.After(150 * time.Millisecond):
	}
}
