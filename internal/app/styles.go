package app

import "github.com/charmbracelet/lipgloss"

var (
	popupStyle   = lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Padding(0, 1).BorderForeground(lipgloss.Color("62"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252")).Background(lipgloss.Color("57"))
	titleStyle   = lipgloss.NewStyle().Bold(true)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	dragStatus   = lipgloss.NewStyle().Foreground(lipgloss.Color("211"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	dirtyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	activeTab    = lipgloss.NewStyle().Bold(true).Reverse(true)
	inactiveTab  = mutedStyle
	dropZoneMark = lipgloss.NewStyle().Foreground(lipgloss.Color("204")).Bold(true)

	cardStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("236"))
	cursorCard    = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("62")).Bold(true)
	cursorBlurred = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Background(lipgloss.Color("239"))
	placedCard    = lipgloss.NewStyle().Foreground(lipgloss.Color("242")).Background(lipgloss.Color("235"))
	liftedCard    = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Background(lipgloss.Color("234")).Faint(true)
	dropCard      = lipgloss.NewStyle().Foreground(lipgloss.Color("231")).Background(lipgloss.Color("204")).Bold(true)
)
