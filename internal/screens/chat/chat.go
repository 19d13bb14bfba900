package chat

import (
	"context"
	"errors"
	"time"

	tea "charm.land/bubbletea/v2"

	corechat "github.com/skripsifalana/wisnus-chatbot-survey/internal/chat"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/screen"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/components"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/layout"
)

const (
	// animInterval paces transcript re-renders while text is revealing.
	animInterval = 100 * time.Millisecond

	// noticeLifetime is how long the toast stays up.
	noticeLifetime = 4 * time.Second
)

// busyNotice is shown when a submission arrives mid-turn.
const busyNotice = "Tunggu sampai respons sebelumnya selesai."

// ChatScreen implements screen.Screen for the dual-mode conversation.
type ChatScreen struct {
	orch  *corechat.Orchestrator
	input components.TextInput

	// confirmCountdown is the popup's self-dismiss budget.
	confirmCountdown time.Duration

	showingConfirm  bool
	confirmDeadline time.Time

	notice string
}

var _ screen.Screen = (*ChatScreen)(nil)
var _ screen.KeyHintProvider = (*ChatScreen)(nil)

// New creates a ChatScreen over the given orchestrator.
func New(orch *corechat.Orchestrator, confirmCountdown time.Duration) *ChatScreen {
	if confirmCountdown <= 0 {
		confirmCountdown = 10 * time.Second
	}
	return &ChatScreen{
		orch:             orch,
		input:            components.NewTextInput("Ketik pesan Anda...", 500),
		confirmCountdown: confirmCountdown,
	}
}

func (s *ChatScreen) Init() tea.Cmd {
	s.orch.Begin()
	return tea.Batch(
		s.input.Init(),
		animTick(),
		s.waitForPrompt(),
		s.waitForNotice(),
	)
}

func (s *ChatScreen) Title() string {
	if s.orch.Mode() == corechat.ModeQA {
		return "Tanya Jawab"
	}
	return "Survei Wisnus"
}

func (s *ChatScreen) KeyHints() []layout.KeyHint {
	if s.showingConfirm {
		return []layout.KeyHint{
			{Key: "Y", Description: "Kembali ke survei"},
			{Key: "N", Description: "Tetap di tanya jawab"},
		}
	}
	hints := []layout.KeyHint{
		{Key: "Enter", Description: "Kirim"},
		{Key: "Tab", Description: "Ganti mode"},
	}
	if s.orch.Generating() {
		hints = append(hints, layout.KeyHint{Key: "Ctrl+X", Description: "Hentikan"})
	}
	return hints
}

func (s *ChatScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case animTickMsg:
		return s.handleTick(time.Time(msg))

	case submitDoneMsg:
		return s.handleSubmitDone(msg)

	case switchDoneMsg:
		return s, nil

	case engagementPromptMsg:
		s.showingConfirm = true
		s.confirmDeadline = time.Now().Add(s.confirmCountdown)
		return s, s.waitForPrompt()

	case noticeMsg:
		s.notice = string(msg)
		return s, tea.Batch(s.waitForNotice(), noticeExpiry())

	case noticeExpiredMsg:
		s.notice = ""
		return s, nil

	case tea.KeyMsg:
		return s.handleKey(msg)
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) handleTick(now time.Time) (screen.Screen, tea.Cmd) {
	// A popup left unanswered counts as consent: the countdown running
	// out returns the conversation to the survey. Staying in QA takes an
	// explicit decline (N / Esc).
	if s.showingConfirm && now.After(s.confirmDeadline) {
		s.showingConfirm = false
		return s, tea.Batch(animTick(), s.switchMode(corechat.ModeSurvey))
	}
	return s, animTick()
}

func (s *ChatScreen) handleSubmitDone(msg submitDoneMsg) (screen.Screen, tea.Cmd) {
	if msg.Err == nil {
		return s, nil
	}
	if errors.Is(msg.Err, corechat.ErrBusy) {
		s.notice = busyNotice
		return s, noticeExpiry()
	}
	var authErr *corechat.ErrAuthMissing
	if errors.As(msg.Err, &authErr) {
		s.notice = "Sesi Anda belum siap. Periksa token dan profil responden."
		return s, noticeExpiry()
	}
	// Dispatch failures already surfaced in the transcript.
	return s, nil
}

func (s *ChatScreen) handleKey(msg tea.KeyMsg) (screen.Screen, tea.Cmd) {
	key := msg.String()

	if s.showingConfirm {
		switch key {
		case "y", "Y", "enter":
			s.showingConfirm = false
			return s, s.switchMode(corechat.ModeSurvey)
		case "n", "N", "esc":
			s.showingConfirm = false
			return s, nil
		}
		return s, nil
	}

	switch key {
	case "enter":
		return s.submit()
	case "tab":
		target := corechat.ModeQA
		if s.orch.Mode() == corechat.ModeQA {
			target = corechat.ModeSurvey
		}
		return s, s.switchMode(target)
	case "ctrl+x":
		s.orch.StopGeneration()
		return s, nil
	}

	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return s, cmd
}

func (s *ChatScreen) submit() (screen.Screen, tea.Cmd) {
	text := s.input.Value()
	if text == "" {
		return s, nil
	}
	if s.orch.Generating() {
		s.notice = busyNotice
		return s, noticeExpiry()
	}
	s.input.Reset()

	orch := s.orch
	return s, func() tea.Msg {
		return submitDoneMsg{Err: orch.Submit(context.Background(), text)}
	}
}

func (s *ChatScreen) switchMode(target corechat.Mode) tea.Cmd {
	orch := s.orch
	return func() tea.Msg {
		orch.RequestModeSwitch(context.Background(), target)
		return switchDoneMsg{Target: target}
	}
}

// waitForPrompt blocks on the orchestrator's prompt channel.
func (s *ChatScreen) waitForPrompt() tea.Cmd {
	prompts := s.orch.Prompts()
	return func() tea.Msg {
		if _, ok := <-prompts; !ok {
			return nil
		}
		return engagementPromptMsg{}
	}
}

// waitForNotice blocks on the orchestrator's notice channel.
func (s *ChatScreen) waitForNotice() tea.Cmd {
	notices := s.orch.Notices()
	return func() tea.Msg {
		msg, ok := <-notices
		if !ok {
			return nil
		}
		return noticeMsg(msg)
	}
}

func animTick() tea.Cmd {
	return tea.Tick(animInterval, func(t time.Time) tea.Msg {
		return animTickMsg(t)
	})
}

func noticeExpiry() tea.Cmd {
	return tea.Tick(noticeLifetime, func(time.Time) tea.Msg {
		return noticeExpiredMsg{}
	})
}
