// Package styles provides shared lipgloss styles for terminal output.
//
// Colors come from the active Theme (see Init). Status tables and
// watch event lines render through the styles defined here so a single
// [theme] setting controls all output.
package styles

import (
	"image/color"

	"charm.land/lipgloss/v2"
)

// Colors of the active theme
var (
	Primary color.Color = DefaultTheme.Primary
	Accent  color.Color = DefaultTheme.Accent
	Success color.Color = DefaultTheme.Success
	Error   color.Color = DefaultTheme.Error
	Muted   color.Color = DefaultTheme.Muted
	Normal  color.Color = DefaultTheme.Normal
	Info    color.Color = DefaultTheme.Info
	Warning color.Color = DefaultTheme.Warning
)

// Common styles
var (
	Bold = lipgloss.NewStyle().Bold(true)

	// HeaderStyle is used for table headers
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(DefaultTheme.Primary)

	SuccessStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Success)
	ErrorStyle   = lipgloss.NewStyle().Foreground(DefaultTheme.Error)
	WarningStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Warning)
	MutedStyle   = lipgloss.NewStyle().Foreground(DefaultTheme.Muted)
	InfoStyle    = lipgloss.NewStyle().Foreground(DefaultTheme.Info).Italic(true)

	// AccentStyle highlights repository names
	AccentStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Accent).Bold(true)
)

// Change and status styles
var (
	AddedStyle    = lipgloss.NewStyle().Foreground(DefaultTheme.Success)
	ModifiedStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Warning)
	RemovedStyle  = lipgloss.NewStyle().Foreground(DefaultTheme.Error)
	CleanStyle    = lipgloss.NewStyle().Foreground(DefaultTheme.Success)
	DirtyStyle    = lipgloss.NewStyle().Foreground(DefaultTheme.Warning)
	ConflictStyle = lipgloss.NewStyle().Foreground(DefaultTheme.Error).Bold(true)
)
