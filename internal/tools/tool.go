package tools

import (
	"context"
	"os/exec"
	"regexp"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

// ExternalTool represents a dependency on an external system tool.
type ExternalTool struct {
	Name        string
	Required    bool
	Note        string   // why it's needed
	VersionArgs []string // empty: do not probe for a version
	path        string
	version     string
	checked     bool
}

// ToolStatus holds the result of a dependency check.
type ToolStatus struct {
	Name      string
	Available bool
	Path      string
	Version   string
	Required  bool
	Note      string
}

var versionRe = regexp.MustCompile(`(\d+\.\d+[\.\d]*)`)

// lookPath and probeVersion are swapped out in tests.
var (
	lookPath     = exec.LookPath
	probeVersion = getVersion
)

// Check verifies if the tool exists and gets its version. The result is
// cached after the first call.
func (t *ExternalTool) Check() ToolStatus {
	if !t.checked {
		t.checked = true
		if path, err := lookPath(t.Name); err == nil {
			t.path = path
			if len(t.VersionArgs) > 0 {
				t.version = probeVersion(t.Name, t.VersionArgs)
			}
		}
	}

	return ToolStatus{
		Name:      t.Name,
		Available: t.path != "",
		Path:      t.path,
		Version:   t.version,
		Required:  t.Required,
		Note:      t.Note,
	}
}

// Exists returns true if the tool is installed.
func (t *ExternalTool) Exists() bool {
	return t.Check().Available
}

func getVersion(name string, args []string) string {
	out, err := RunCapture(context.Background(), name, args...)
	if err != nil || out == "" {
		return ""
	}
	return versionRe.FindString(out)
}

// DependencyChecker manages all external tool dependencies.
type DependencyChecker struct {
	tools []*ExternalTool
}

// NewDependencyChecker returns a checker for the current platform's tools.
func NewDependencyChecker() *DependencyChecker {
	return &DependencyChecker{tools: platformTools()}
}

// InstallHint returns a platform-appropriate install message.
func InstallHint() string {
	return platformInstallHint()
}

// CheckAll verifies all dependencies and returns their status.
func (dc *DependencyChecker) CheckAll() []ToolStatus {
	results := make([]ToolStatus, len(dc.tools))
	for i, tool := range dc.tools {
		results[i] = tool.Check()
	}
	return results
}

// MissingRequired returns required tools that are not installed.
func (dc *DependencyChecker) MissingRequired() []string {
	var missing []string
	for _, tool := range dc.tools {
		if s := tool.Check(); s.Required && !s.Available {
			missing = append(missing, tool.Name)
		}
	}
	return missing
}

// FormatStatus renders a dependency report table.
func FormatStatus(statuses []ToolStatus) string {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"", "Tool", "Version", "Path / Note"})

	for _, s := range statuses {
		if s.Available {
			ver := s.Version
			if ver == "" {
				ver = "ok"
			}
			t.AppendRow(table.Row{"[+]", s.Name, ver, s.Path})
			continue
		}

		label := "(optional)"
		if s.Required {
			label = "(REQUIRED)"
		}
		if s.Note != "" {
			label += " " + s.Note
		}
		t.AppendRow(table.Row{"[-]", s.Name, "--", label})
	}

	return strings.TrimRight(t.Render(), "\n") + "\n"
}
