package tools

import (
	"context"
	"fmt"
	"regexp"

	"github.com/spoofmac/spoofmac/pkg/mac"
)

var macAddrRe = regexp.MustCompile(`([0-9a-fA-F]{2}(?::[0-9a-fA-F]{2}){5})`)

// Macchanger wraps the macchanger utility. The caller is responsible for
// taking the interface down and up around SetMAC and Permanent.
type Macchanger struct {
	run  Runner
	tool *ExternalTool
}

func NewMacchanger(run Runner) *Macchanger {
	return &Macchanger{
		run:  run,
		tool: &ExternalTool{Name: "macchanger", Required: false},
	}
}

func (m *Macchanger) Available() bool {
	return m.tool.Exists()
}

// SetMAC sets a specific MAC address on the interface and returns the
// address macchanger reports as new.
func (m *Macchanger) SetMAC(ctx context.Context, iface string, addr mac.Addr) (mac.Addr, error) {
	out, err := m.run.Run(ctx, "macchanger", "-m", addr.String(), iface)
	if err != nil {
		return mac.Addr{}, fmt.Errorf("macchanger: %w", err)
	}
	return lastAddr(out)
}

// Permanent reads the burned-in address without changing anything.
func (m *Macchanger) Permanent(ctx context.Context, iface string) (mac.Addr, error) {
	out, err := m.run.Run(ctx, "macchanger", "-s", iface)
	if err != nil {
		return mac.Addr{}, fmt.Errorf("macchanger: %w", err)
	}
	return lastAddr(out)
}

// macchanger prints "Current MAC", "Permanent MAC" and, after a change,
// "New MAC"; the last one is the one the caller asked about.
func lastAddr(out string) (mac.Addr, error) {
	matches := macAddrRe.FindAllString(out, -1)
	if len(matches) == 0 {
		return mac.Addr{}, fmt.Errorf("could not parse MAC from macchanger output")
	}
	return mac.Parse(matches[len(matches)-1])
}
