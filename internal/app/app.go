package app

import (
	"fmt"
	"os"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	corechat "github.com/skripsifalana/wisnus-chatbot-survey/internal/chat"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/router"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/screen"
	chatscreen "github.com/skripsifalana/wisnus-chatbot-survey/internal/screens/chat"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/screens/welcome"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/layout"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/theme"
)

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router *router.Router
	orch   *corechat.Orchestrator
	width  int
	height int
}

// newAppModel creates a new AppModel showing the welcome screen, which
// hands off to the chat screen on keypress.
func newAppModel(orch *corechat.Orchestrator, confirmCountdown time.Duration) AppModel {
	chatFactory := func() screen.Screen {
		return chatscreen.New(orch, confirmCountdown)
	}
	return AppModel{
		router: router.New(welcome.New(chatFactory)),
		orch:   orch,
	}
}

func (m AppModel) Init() tea.Cmd {
	active := m.router.Active()
	if active == nil {
		return nil
	}
	return active.Init()
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.orch.Close()
			return m, tea.Quit
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	if active != nil {
		title = active.Title()
	}

	header := layout.RenderHeader(title, m.modeBadge(), m.width)

	footerHints := []layout.KeyHint{{Key: "Ctrl+C", Description: "Keluar"}}
	if provider, ok := active.(screen.KeyHintProvider); ok {
		footerHints = append(provider.KeyHints(), footerHints...)
	}
	footer := layout.RenderFooter(footerHints, m.width)

	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := m.height - headerHeight - footerHeight
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	frame := layout.RenderFrame(header, content, footer, m.width, m.height)

	v.SetContent(frame)
	return v
}

// modeBadge renders the current chat mode for the header. The welcome
// screen has an empty title, so the badge only shows once chat starts.
func (m AppModel) modeBadge() string {
	active := m.router.Active()
	if active == nil || active.Title() == "" {
		return ""
	}
	if m.orch.Mode() == corechat.ModeQA {
		return theme.ModeQA.Render("Tanya Jawab")
	}
	return theme.ModeSurvey.Render("Survei")
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(orch *corechat.Orchestrator, confirmCountdown time.Duration) error {
	p := tea.NewProgram(newAppModel(orch, confirmCountdown))
	_, err := p.Run()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error running program:", err)
		return err
	}
	return nil
}
