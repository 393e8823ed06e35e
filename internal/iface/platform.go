package iface

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/spoofmac/spoofmac/internal/tools"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

// Platform is the set of operating-system operations needed to inspect
// and change an interface's MAC address. One implementation is selected
// at startup by Detect.
type Platform interface {
	Name() string
	Interfaces(ctx context.Context) ([]string, error)
	CurrentMAC(ctx context.Context, name string) (mac.Addr, error)
	// PermanentMAC returns the burned-in address, which may differ from
	// CurrentMAC while spoofed.
	PermanentMAC(ctx context.Context, name string) (mac.Addr, error)
	// IPv4 returns "" with a nil error when the interface has no address.
	IPv4(ctx context.Context, name string) (string, error)
	Apply(ctx context.Context, name string, addr mac.Addr) error
	Restore(ctx context.Context, name string, original mac.Addr) error
}

var (
	_ Platform = (*IPRoute2)(nil)
	_ Platform = (*Ifconfig)(nil)
	_ Platform = (*Windows)(nil)
)

// Interface is a snapshot of one interface for listings.
type Interface struct {
	Name   string
	MAC    mac.Addr
	HasMAC bool
	IPv4   string
}

// Options tunes the platform returned by Detect.
type Options struct {
	// Settle is how long to wait after each adapter disable/enable on
	// Windows.
	Settle time.Duration
	Log    *slog.Logger
}

const defaultSettle = 3 * time.Second

// Detect returns the Platform for the running OS.
func Detect(run tools.Runner, opts Options) Platform {
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	if opts.Settle <= 0 {
		opts.Settle = defaultSettle
	}

	switch runtime.GOOS {
	case "linux":
		return NewIPRoute2(run, opts.Log)
	case "windows":
		return NewWindows(run, NewRegistry(), opts.Settle, opts.Log)
	default:
		return NewIfconfig(run)
	}
}

// List snapshots every interface the platform reports. Interfaces
// without a readable hardware address are included with HasMAC false.
func List(ctx context.Context, p Platform) ([]Interface, error) {
	names, err := p.Interfaces(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]Interface, 0, len(names))
	for _, name := range names {
		info := Interface{Name: name}
		if addr, err := p.CurrentMAC(ctx, name); err == nil {
			info.MAC = addr
			info.HasMAC = true
		}
		if ip, err := p.IPv4(ctx, name); err == nil {
			info.IPv4 = ip
		}
		out = append(out, info)
	}
	return out, nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
