package chat

import (
	"fmt"
	"strings"
	"time"

	"charm.land/lipgloss/v2"

	corechat "github.com/skripsifalana/wisnus-chatbot-survey/internal/chat"
	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/theme"
)

const loadingIndicator = "..."

func (s *ChatScreen) View(width, height int) string {
	if s.showingConfirm {
		return s.renderConfirm(width, height)
	}

	inputLine := s.renderInput(width)
	toast := s.renderToast(width)

	reserved := lipgloss.Height(inputLine)
	if toast != "" {
		reserved += lipgloss.Height(toast)
	}
	transcript := s.renderTranscript(width, height-reserved-1)

	var b strings.Builder
	b.WriteString(transcript)
	b.WriteString("\n")
	if toast != "" {
		b.WriteString(toast)
		b.WriteString("\n")
	}
	b.WriteString(inputLine)
	return b.String()
}

// renderTranscript renders the newest entries that fit the given height.
func (s *ChatScreen) renderTranscript(width, height int) string {
	entries := s.orch.Entries()
	frames := s.orch.Frames()

	blocks := make([]string, 0, len(entries))
	for _, e := range entries {
		blocks = append(blocks, s.renderEntry(e, frames, width))
	}
	body := strings.Join(blocks, "\n")

	// Keep the tail in view.
	lines := strings.Split(body, "\n")
	if height > 0 && len(lines) > height {
		lines = lines[len(lines)-height:]
	}
	return strings.Join(lines, "\n")
}

func (s *ChatScreen) renderEntry(e corechat.ChatEntry, frames map[string]string, width int) string {
	bubbleWidth := width * 3 / 4
	if bubbleWidth < 20 {
		bubbleWidth = width
	}

	if e.Author == corechat.AuthorUser {
		bubble := theme.UserBubble.MaxWidth(bubbleWidth).Render(e.Text)
		return lipgloss.PlaceHorizontal(width, lipgloss.Right, bubble)
	}

	text := e.Text
	if prefix, revealing := frames[e.ID]; revealing {
		text = prefix + "▌"
	} else if e.IsLoading {
		text = loadingIndicator
	}

	var b strings.Builder
	if e.InfoText != "" {
		b.WriteString(theme.BubbleMeta.Render(e.InfoText))
		b.WriteString("\n")
	}
	b.WriteString(theme.BotBubble.MaxWidth(bubbleWidth).Render(text))

	if e.OptionsVisible && e.Question != nil && len(e.Question.Options) > 0 {
		b.WriteString("\n")
		for i, opt := range e.Question.Options {
			b.WriteString(theme.Unselected.Render(fmt.Sprintf("  %d) %s", i+1, opt)))
			b.WriteString("\n")
		}
	}

	if e.InfoSource != "" {
		b.WriteString("\n")
		b.WriteString(theme.BubbleMeta.Render("Sumber: " + e.InfoSource))
	}
	return b.String()
}

func (s *ChatScreen) renderInput(width int) string {
	badge := theme.ModeSurvey.Render("[Survei]")
	if s.orch.Mode() == corechat.ModeQA {
		badge = theme.ModeQA.Render("[Tanya Jawab]")
	}
	return badge + " " + s.input.View()
}

func (s *ChatScreen) renderToast(width int) string {
	if s.notice == "" {
		return ""
	}
	return lipgloss.NewStyle().
		Foreground(theme.Error).
		Bold(true).
		Render("  ⚠ " + s.notice)
}

// renderConfirm renders the return-to-survey confirmation popup with its
// countdown.
func (s *ChatScreen) renderConfirm(width, height int) string {
	remaining := time.Until(s.confirmDeadline)
	if remaining < 0 {
		remaining = 0
	}
	secs := int(remaining.Seconds() + 0.999)

	var b strings.Builder
	b.WriteString("\n\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Bold(true).
		Render("Kembali ke survei?"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render("Anda sudah cukup lama di mode tanya jawab."))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Success).
		Render("[Y] Ya, lanjutkan survei"))
	b.WriteString("\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.Primary).
		Render("[N] Tidak, tetap di tanya jawab"))
	b.WriteString("\n\n")
	b.WriteString(lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Foreground(theme.TextDim).
		Render(fmt.Sprintf("Melanjutkan survei dalam %d detik", secs)))

	return b.String()
}
