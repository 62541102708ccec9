package color

import (
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var (
	// Success marks passed steps and scenarios
	Success = lipgloss.AdaptiveColor{Light: "#1A7F37", Dark: "#3FB950"}
	// Failure marks unmet expectations
	Failure = lipgloss.AdaptiveColor{Light: "#CF222E", Dark: "#F85149"}
	// Warning marks errors and interruptions
	Warning = lipgloss.AdaptiveColor{Light: "#9A6700", Dark: "#D29922"}
	// Muted de-emphasises secondary text
	Muted = lipgloss.AdaptiveColor{Light: "#6E7781", Dark: "#8B949E"}
	// Accent highlights headers
	Accent = lipgloss.AdaptiveColor{Light: "#0969DA", Dark: "#58A6FF"}
)

var (
	SuccessStyle = lipgloss.NewStyle().Foreground(Success)
	FailureStyle = lipgloss.NewStyle().Foreground(Failure).Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(Muted)
	HeaderStyle  = lipgloss.NewStyle().Foreground(Accent).Bold(true)
)

// Initialize sets the background lipgloss adapts colors to.
func Initialize(isDarkMode bool) {
	lipgloss.SetHasDarkBackground(isDarkMode)
}

// Configure disables colors when NO_COLOR is set and applies STACKPROBE_THEME
// ("dark" or "light") when present.
func Configure() {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
	switch strings.ToLower(os.Getenv("STACKPROBE_THEME")) {
	case "dark":
		Initialize(true)
	case "light":
		Initialize(false)
	}
}

// ForStatus returns the style used for a PASSED/FAILED/ERROR/... status.
func ForStatus(status string) lipgloss.Style {
	switch strings.ToUpper(status) {
	case "PASSED":
		return SuccessStyle
	case "FAILED":
		return FailureStyle
	case "ERROR", "INTERRUPTED":
		return WarningStyle
	default:
		return MutedStyle
	}
}
