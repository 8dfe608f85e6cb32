// Copyright (c) 2025 Cosmos Coderrs Technologies
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling system for the mira TUI.
package styles

import (
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// MODE RESOLUTION
// =============================================================================

// Mode is a resolved display mode.
type Mode string

const (
	ModeDark  Mode = "dark"
	ModeLight Mode = "light"
)

// AutoMode picks dark or light from the clock: dark from darkStart to
// darkEnd (hours, wrapping midnight), light otherwise.
func AutoMode(now time.Time, darkStart, darkEnd int) Mode {
	hour := now.Hour()
	var dark bool
	if darkStart > darkEnd {
		// Window wraps midnight, e.g. 20:00 to 06:00
		dark = hour >= darkStart || hour < darkEnd
	} else {
		dark = hour >= darkStart && hour < darkEnd
	}
	if dark {
		return ModeDark
	}
	return ModeLight
}

// ResolveMode resolves the display mode from the configured theme, the
// user's saved toggle override, and the clock. The override wins over
// everything; "auto" follows the clock window.
func ResolveMode(theme string, override string, hasOverride bool, now time.Time, darkStart, darkEnd int) Mode {
	if hasOverride {
		if override == "true" {
			return ModeDark
		}
		return ModeLight
	}
	switch theme {
	case "dark":
		return ModeDark
	case "light":
		return ModeLight
	default:
		return AutoMode(now, darkStart, darkEnd)
	}
}

// =============================================================================
// PALETTE
// =============================================================================

// Mira's palette leans pink and violet; the dark variant keeps the accents
// and swaps the surfaces.
var (
	Pink      = lipgloss.AdaptiveColor{Light: "#d6548e", Dark: "#f48fb1"}
	Violet    = lipgloss.AdaptiveColor{Light: "#7e57c2", Dark: "#b39ddb"}
	Rose      = lipgloss.AdaptiveColor{Light: "#c62828", Dark: "#ef9a9a"}
	Lavender  = lipgloss.AdaptiveColor{Light: "#f3e5f5", Dark: "#311b3f"}
	Surface   = lipgloss.AdaptiveColor{Light: "#faf5fa", Dark: "#1b1423"}
	Overlay   = lipgloss.AdaptiveColor{Light: "#e1d5e7", Dark: "#4a3b57"}
	TextMain  = lipgloss.AdaptiveColor{Light: "#2e2135", Dark: "#f5eef8"}
	TextSoft  = lipgloss.AdaptiveColor{Light: "#7a6a85", Dark: "#b5a8c0"}
	TextMuted = lipgloss.AdaptiveColor{Light: "#a898b3", Dark: "#84738f"}
	Emerald   = lipgloss.AdaptiveColor{Light: "#2e7d32", Dark: "#a5d6a7"}
)

// =============================================================================
// THEME
// =============================================================================

// Theme holds the styled components for the application.
type Theme struct {
	Mode         Mode
	ColorProfile termenv.Profile

	Width  int
	Height int

	// Chrome
	Header      lipgloss.Style
	HeaderTitle lipgloss.Style
	StatusBar   lipgloss.Style
	StatusKey   lipgloss.Style
	StatusDesc  lipgloss.Style

	// Sidebar
	Sidebar          lipgloss.Style
	SidebarTitle     lipgloss.Style
	SidebarItem      lipgloss.Style
	SidebarSelected  lipgloss.Style
	SidebarPreview   lipgloss.Style
	SidebarRecency   lipgloss.Style
	SidebarDeleteTag lipgloss.Style

	// Message bubbles
	UserBubble   lipgloss.Style
	MiraBubble   lipgloss.Style
	SystemNote   lipgloss.Style
	SenderLabel  lipgloss.Style
	MessageTime  lipgloss.Style
	TypingDots   lipgloss.Style
	VoiceBar     lipgloss.Style
	VoiceBarHot  lipgloss.Style
	VoiceCaption lipgloss.Style

	// Input
	InputBox    lipgloss.Style
	InputPrompt lipgloss.Style

	// Auth screen
	AuthBox      lipgloss.Style
	AuthTitle    lipgloss.Style
	AuthSubtitle lipgloss.Style
	AuthError    lipgloss.Style
	AuthSwitch   lipgloss.Style

	// Call bar
	CallBar      lipgloss.Style
	CallLabel    lipgloss.Style
	CallTimer    lipgloss.Style
	CallWaveBar  lipgloss.Style
	CallWaveHot  lipgloss.Style
	CallHangup   lipgloss.Style

	// Mood picker
	MoodPicker   lipgloss.Style
	MoodOption   lipgloss.Style
	MoodSelected lipgloss.Style
}

// NewTheme builds a theme for the given mode.
func NewTheme(mode Mode) *Theme {
	t := &Theme{
		Mode:         mode,
		ColorProfile: termenv.ColorProfile(),
	}
	t.initStyles()
	return t
}

func (t *Theme) initStyles() {
	// Chrome
	t.Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Pink).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet).
		Padding(0, 2)
	t.HeaderTitle = lipgloss.NewStyle().Bold(true).Foreground(Pink)
	t.StatusBar = lipgloss.NewStyle().Foreground(TextSoft).Padding(0, 1)
	t.StatusKey = lipgloss.NewStyle().Foreground(Violet).Bold(true)
	t.StatusDesc = lipgloss.NewStyle().Foreground(TextMuted)

	// Sidebar
	t.Sidebar = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderRight(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.SidebarTitle = lipgloss.NewStyle().Bold(true).Foreground(Violet).Padding(0, 1)
	t.SidebarItem = lipgloss.NewStyle().Foreground(TextSoft).Padding(0, 1)
	t.SidebarSelected = lipgloss.NewStyle().
		Foreground(TextMain).
		Background(Lavender).
		Bold(true).
		Padding(0, 1)
	t.SidebarPreview = lipgloss.NewStyle().Foreground(TextMain)
	t.SidebarRecency = lipgloss.NewStyle().Foreground(TextMuted).Italic(true)
	t.SidebarDeleteTag = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	// Message bubbles
	t.UserBubble = lipgloss.NewStyle().
		Foreground(TextMain).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Pink).
		Padding(0, 2).
		MarginLeft(8)
	t.MiraBubble = lipgloss.NewStyle().
		Foreground(TextMain).
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet).
		Padding(0, 2).
		MarginRight(8)
	t.SystemNote = lipgloss.NewStyle().
		Foreground(TextMuted).
		Italic(true).
		Align(lipgloss.Center)
	t.SenderLabel = lipgloss.NewStyle().Bold(true).Foreground(Violet)
	t.MessageTime = lipgloss.NewStyle().Foreground(TextMuted)
	t.TypingDots = lipgloss.NewStyle().Foreground(Pink).Bold(true)
	t.VoiceBar = lipgloss.NewStyle().Foreground(Overlay)
	t.VoiceBarHot = lipgloss.NewStyle().Foreground(Pink).Bold(true)
	t.VoiceCaption = lipgloss.NewStyle().Foreground(TextSoft)

	// Input
	t.InputBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(Overlay).
		Padding(0, 1)
	t.InputPrompt = lipgloss.NewStyle().Foreground(Pink).Bold(true)

	// Auth
	t.AuthBox = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Violet).
		Padding(1, 4)
	t.AuthTitle = lipgloss.NewStyle().Bold(true).Foreground(Pink)
	t.AuthSubtitle = lipgloss.NewStyle().Foreground(TextSoft).Italic(true)
	t.AuthError = lipgloss.NewStyle().Foreground(Rose).Bold(true)
	t.AuthSwitch = lipgloss.NewStyle().Foreground(TextMuted)

	// Call bar
	t.CallBar = lipgloss.NewStyle().
		BorderStyle(lipgloss.DoubleBorder()).
		BorderForeground(Pink).
		Padding(0, 2)
	t.CallLabel = lipgloss.NewStyle().Foreground(TextMain).Bold(true)
	t.CallTimer = lipgloss.NewStyle().Foreground(TextSoft)
	t.CallWaveBar = lipgloss.NewStyle().Foreground(Overlay)
	t.CallWaveHot = lipgloss.NewStyle().Foreground(Pink)
	t.CallHangup = lipgloss.NewStyle().Foreground(Rose).Bold(true)

	// Mood picker
	t.MoodPicker = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(Pink).
		Padding(0, 1)
	t.MoodOption = lipgloss.NewStyle().Foreground(TextSoft).Padding(0, 1)
	t.MoodSelected = lipgloss.NewStyle().
		Foreground(TextMain).
		Background(Lavender).
		Bold(true).
		Padding(0, 1)
}

// SetSize records the current terminal dimensions.
func (t *Theme) SetSize(width, height int) {
	t.Width = width
	t.Height = height
}
