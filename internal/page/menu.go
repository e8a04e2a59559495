package page

import "strings"

// NavItem is one link in the navigation menu.
type NavItem struct {
	Label string `yaml:"label"`
	Path  string `yaml:"path"`
}

// Menu is the ordered navigation list rendered in every page header.
type Menu []NavItem

// String renders the menu as a <ul> of links. Labels and paths are escaped.
func (m Menu) String() string {
	var b strings.Builder
	b.WriteString("<ul>")
	for _, item := range m {
		b.WriteString("<li><a href='")
		b.WriteString(Escape(item.Path))
		b.WriteString("'>")
		b.WriteString(Escape(item.Label))
		b.WriteString("</a></li>")
	}
	b.WriteString("</ul>")
	return b.String()
}

// DefaultMenu returns the two-entry menu: file listing and configuration.
func DefaultMenu() Menu {
	return Menu{
		{Label: "Files", Path: "/"},
		{Label: "Configuration", Path: "/upload"},
	}
}
