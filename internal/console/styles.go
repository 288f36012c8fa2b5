package console

import "github.com/charmbracelet/lipgloss"

const labelWidth = 14

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))
	labelStyle     = lipgloss.NewStyle().Width(labelWidth)
	focusStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dimStyle       = lipgloss.NewStyle().Faint(true)
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	noticeStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dialogStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("63")).Padding(0, 1)
	tabStyle       = lipgloss.NewStyle().Padding(0, 1)
	activeTabStyle = tabStyle.Foreground(lipgloss.Color("212")).Bold(true).Underline(true)
)
