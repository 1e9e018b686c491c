// Package ui renders the nanohttpd command output with lipgloss.
//
// Every renderer takes a styled flag. Callers pass IsTerminal(os.Stdout) so
// colours and borders only reach interactive terminals.
package ui
