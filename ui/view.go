package ui

import (
	"fmt"
	"strings"
)

const visibleLogLines = 8

func (a *App) View() string {
	var b strings.Builder

	b.WriteString(a.renderHeader())
	b.WriteString("\n")
	b.WriteString(a.renderInterfaces())
	b.WriteString("\n")
	b.WriteString(a.renderStatus())
	b.WriteString("\n")
	b.WriteString(a.renderControls())
	b.WriteString("\n")
	b.WriteString(a.renderLog())
	b.WriteString("\n")
	b.WriteString(a.renderFooter())
	return b.String()
}

func (a *App) renderHeader() string {
	title := bannerStyle.Render("spoofmac")
	state := "idle"
	if a.busy {
		state = progressStyle.Render(a.busyLabel + "...")
	}
	status := statusBarStyle.Render(fmt.Sprintf(
		" %s | %d interfaces | %s", a.ctl.Platform().Name(), len(a.ifaces), state,
	))
	return borderStyle.Render(title + status)
}

func (a *App) renderInterfaces() string {
	s := headerStyle.Render("  Interfaces") + "\n"
	if len(a.ifaces) == 0 {
		return s + dimStyle.Render("    none found (press l to reload)") + "\n"
	}
	for i, name := range a.ifaces {
		marker := "  "
		if name == a.selected {
			marker = "▶ "
		}
		line := fmt.Sprintf("  %s%-3d %s", marker, i+1, name)
		if i == a.cursor {
			line = selectedRowStyle.Render(line)
		}
		s += line + "\n"
	}
	return s
}

func (a *App) renderStatus() string {
	if a.selected == "" {
		return borderStyle.Render(dimStyle.Render("Select an interface with Enter"))
	}

	entry, _ := a.ctl.Store().Get(a.selected)

	original := "Not stored"
	if entry.HasOriginal {
		original = entry.Original.String()
	}
	current := "unknown"
	if a.status.hasCurrent {
		current = a.status.current.String()
		if name, ok := a.ctl.Vendors().Lookup(a.status.current); ok {
			current += dimStyle.Render("  " + name)
		}
	}

	rows := []struct{ label, value string }{
		{"Interface", a.selected},
		{"Status", StateBadge(entry.State)},
		{"Original MAC", original},
		{"Current MAC", current},
		{"IP Address", orNA(a.status.ip)},
		{"Gateway", orNA(a.status.gateway)},
	}

	lines := make([]string, 0, len(rows))
	for _, r := range rows {
		lines = append(lines, labelStyle.Render(r.label)+valueStyle.Render(r.value))
	}
	return borderStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) renderControls() string {
	vendorName := a.vendorName()
	if vendorName == "" {
		vendorName = dimStyle.Render("none (random)")
	}

	custom := a.custom.View()
	if a.editing {
		custom = successStyle.Render("✎ ") + custom
	} else if strings.TrimSpace(a.custom.Value()) == "" {
		custom = dimStyle.Render("empty")
	}

	return labelStyle.Render("  Vendor") + valueStyle.Render(vendorName) + "\n" +
		labelStyle.Render("  Custom MAC") + custom + "\n"
}

func (a *App) renderLog() string {
	s := headerStyle.Render("  Log") + "\n"
	start := max(len(a.logs)-visibleLogLines, 0)
	for _, line := range a.logs[start:] {
		style := dimStyle
		if strings.Contains(line, "Error") {
			style = failStyle
		} else if strings.Contains(line, "changed to") || strings.Contains(line, "restored") {
			style = successStyle
		}
		s += "  " + style.Render(line) + "\n"
	}
	return s
}

func (a *App) renderFooter() string {
	keys := []struct{ key, desc string }{
		{"Enter", "Select"},
		{"t", "Toggle"},
		{"r", "Random"},
		{"o", "Restore"},
		{"[ ]", "Vendor"},
		{"v/g", "Vendor MAC"},
		{"e", "Edit MAC"},
		{"q", "Quit"},
	}
	if a.editing {
		keys = []struct{ key, desc string }{
			{"Enter/Esc", "Done"},
		}
	}

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyStyle.Render("["+k.key+"]") + " " + helpStyle.Render(k.desc)
	}
	return borderStyle.Render(strings.Join(parts, "  "))
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
