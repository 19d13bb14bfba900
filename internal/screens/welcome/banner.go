package welcome

import (
	"charm.land/lipgloss/v2"

	"github.com/skripsifalana/wisnus-chatbot-survey/internal/ui/theme"
)

const bannerArt = `
 ██╗    ██╗██╗███████╗███╗   ██╗██╗   ██╗███████╗
 ██║    ██║██║██╔════╝████╗  ██║██║   ██║██╔════╝
 ██║ █╗ ██║██║███████╗██╔██╗ ██║██║   ██║███████╗
 ██║███╗██║██║╚════██║██║╚██╗██║██║   ██║╚════██║
 ╚███╔███╔╝██║███████║██║ ╚████║╚██████╔╝███████║
  ╚══╝╚══╝ ╚═╝╚══════╝╚═╝  ╚═══╝ ╚═════╝ ╚══════╝`

const bannerCompact = "W I S N U S"

// RenderBanner returns the WISNUS banner styled in the primary color.
// Uses a compact fallback for terminals narrower than 54 columns.
func RenderBanner(width int) string {
	style := lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true)

	if width < 54 {
		return style.Render(bannerCompact)
	}
	return style.Render(bannerArt)
}
