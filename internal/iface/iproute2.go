package iface

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spoofmac/spoofmac/internal/tools"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

// fallbackSetter is satisfied by *tools.Macchanger.
type fallbackSetter interface {
	Available() bool
	SetMAC(ctx context.Context, iface string, addr mac.Addr) (mac.Addr, error)
	Permanent(ctx context.Context, iface string) (mac.Addr, error)
}

// IPRoute2 drives Linux interfaces through the ip(8) command.
type IPRoute2 struct {
	run      tools.Runner
	fallback fallbackSetter
	log      *slog.Logger
}

func NewIPRoute2(run tools.Runner, log *slog.Logger) *IPRoute2 {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &IPRoute2{
		run:      run,
		fallback: tools.NewMacchanger(run),
		log:      log,
	}
}

func (p *IPRoute2) Name() string { return "iproute2" }

func (p *IPRoute2) Interfaces(ctx context.Context) ([]string, error) {
	out, err := p.run.Run(ctx, "ip", "-o", "link", "show")
	if err != nil {
		return nil, wrapOp("list interfaces", "", err)
	}
	return ParseIPRouteLinks(out), nil
}

func (p *IPRoute2) CurrentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.run.Run(ctx, "ip", "link", "show", name)
	if err != nil {
		return mac.Addr{}, wrapOp("read address of", name, err)
	}
	addr, ok := ParseIPLinkMAC(out)
	if !ok {
		return mac.Addr{}, &OpError{Op: "read address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *IPRoute2) PermanentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.run.Run(ctx, "ethtool", "-P", name)
	if err != nil {
		if p.fallback != nil && p.fallback.Available() {
			if addr, ferr := p.fallback.Permanent(ctx, name); ferr == nil && !addr.IsZero() {
				return addr, nil
			}
		}
		return mac.Addr{}, wrapOp("read permanent address of", name, err)
	}
	addr, ok := ParseEthtoolPermanent(out)
	if !ok || addr.IsZero() {
		// virtual devices report 00:00:00:00:00:00
		return mac.Addr{}, &OpError{Op: "read permanent address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *IPRoute2) IPv4(ctx context.Context, name string) (string, error) {
	out, err := p.run.Run(ctx, "ip", "-4", "addr", "show", name)
	if err != nil {
		return "", wrapOp("read IPv4 of", name, err)
	}
	ip, _ := ParseIPv4(out)
	return ip, nil
}

// Apply takes the link down, sets the address and brings it back up.
// The link is brought up even when setting the address failed.
func (p *IPRoute2) Apply(ctx context.Context, name string, addr mac.Addr) error {
	if _, err := p.run.Run(ctx, "ip", "link", "set", name, "down"); err != nil {
		return wrapOp("bring down", name, err)
	}

	_, setErr := p.run.Run(ctx, "ip", "link", "set", name, "address", addr.String())
	if setErr != nil && p.fallback != nil && p.fallback.Available() {
		p.log.Warn("ip could not set address, trying macchanger", "iface", name, "error", setErr)
		if _, err := p.fallback.SetMAC(ctx, name, addr); err == nil {
			setErr = nil
		} else {
			setErr = errors.Join(setErr, err)
		}
	}

	_, upErr := p.run.Run(ctx, "ip", "link", "set", name, "up")

	if setErr != nil {
		return wrapOp("set address on", name, setErr)
	}
	return wrapOp("bring up", name, upErr)
}

func (p *IPRoute2) Restore(ctx context.Context, name string, original mac.Addr) error {
	return p.Apply(ctx, name, original)
}

var errNoEther = errors.New("no hardware address reported")
