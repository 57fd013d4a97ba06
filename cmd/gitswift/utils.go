package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/gitswift/gitswift/internal/sync"
)

var (
	// https://github.com/muesli/termenv/blob/master/ansicolors.go
	red       = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	green     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	yellow    = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	cyan      = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	gray      = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	lightGray = lipgloss.NewStyle().Foreground(lipgloss.Color("248"))
	bold      = lipgloss.NewStyle().Bold(true)
)

func actionStyle(a sync.Action) lipgloss.Style {
	switch a {
	case sync.ActionCreated:
		return green
	case sync.ActionUpdated:
		return cyan
	case sync.ActionFailed:
		return red
	default:
		return gray
	}
}
