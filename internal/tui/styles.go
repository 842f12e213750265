package tui

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles for the two-pane chat layout.
type Styles struct {
	Sidebar      lipgloss.Style
	SidebarTitle lipgloss.Style
	UserRow      lipgloss.Style
	UserRowSelf  lipgloss.Style
	Header       lipgloss.Style
	SelfBubble   lipgloss.Style
	OtherBubble  lipgloss.Style
	SenderName   lipgloss.Style
	ImageBody    lipgloss.Style
	Footer       lipgloss.Style
}

// DefaultStyles mirrors the reference palette: green for the local user,
// gray for everyone else.
func DefaultStyles() Styles {
	return Styles{
		Sidebar: lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderRight(true).
			BorderForeground(lipgloss.Color("240")).
			PaddingRight(1),
		SidebarTitle: lipgloss.NewStyle().
			Bold(true).
			Underline(true).
			MarginBottom(1),
		UserRow: lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")),
		UserRowSelf: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true),
		Header: lipgloss.NewStyle().
			Bold(true).
			MarginBottom(1),
		SelfBubble: lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("28")).
			Padding(0, 1),
		OtherBubble: lipgloss.NewStyle().
			Foreground(lipgloss.Color("235")).
			Background(lipgloss.Color("252")).
			Padding(0, 1),
		SenderName: lipgloss.NewStyle().
			Bold(true),
		ImageBody: lipgloss.NewStyle().
			Underline(true),
		Footer: lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")),
	}
}
