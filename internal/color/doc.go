// Package color holds the terminal palette shared by the console reporter
// and the interactive view.
//
// Colors are lipgloss adaptive colors, so they follow the detected terminal
// background. Configure honours two environment variables:
//   - NO_COLOR: render plain text
//   - STACKPROBE_THEME: force a "dark" or "light" background
//
// Styles are package-level values and safe for concurrent use.
package color
