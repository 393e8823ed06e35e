package iface

import (
	"context"

	"github.com/spoofmac/spoofmac/internal/tools"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

// Ifconfig drives macOS and BSD interfaces through ifconfig(8).
type Ifconfig struct {
	run tools.Runner
}

func NewIfconfig(run tools.Runner) *Ifconfig {
	return &Ifconfig{run: run}
}

func (p *Ifconfig) Name() string { return "ifconfig" }

func (p *Ifconfig) Interfaces(ctx context.Context) ([]string, error) {
	out, err := p.run.Run(ctx, "ifconfig", "-l")
	if err != nil {
		return nil, wrapOp("list interfaces", "", err)
	}
	return ParseIfconfigList(out), nil
}

func (p *Ifconfig) CurrentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.run.Run(ctx, "ifconfig", name)
	if err != nil {
		return mac.Addr{}, wrapOp("read address of", name, err)
	}
	addr, ok := ParseIfconfigMAC(out)
	if !ok {
		return mac.Addr{}, &OpError{Op: "read address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *Ifconfig) PermanentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.run.Run(ctx, "networksetup", "-getmacaddress", name)
	if err != nil {
		return mac.Addr{}, wrapOp("read permanent address of", name, err)
	}
	addr, ok := ParseNetworksetupMAC(out)
	if !ok {
		return mac.Addr{}, &OpError{Op: "read permanent address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *Ifconfig) IPv4(ctx context.Context, name string) (string, error) {
	out, err := p.run.Run(ctx, "ifconfig", name)
	if err != nil {
		return "", wrapOp("read IPv4 of", name, err)
	}
	ip, _ := ParseIPv4(out)
	return ip, nil
}

// Apply brings the interface down, sets the ether address and brings it
// back up. The interface is brought up even when the set failed.
func (p *Ifconfig) Apply(ctx context.Context, name string, addr mac.Addr) error {
	if _, err := p.run.Run(ctx, "ifconfig", name, "down"); err != nil {
		return wrapOp("bring down", name, err)
	}
	_, setErr := p.run.Run(ctx, "ifconfig", name, "ether", addr.String())
	_, upErr := p.run.Run(ctx, "ifconfig", name, "up")

	if setErr != nil {
		return wrapOp("set address on", name, setErr)
	}
	return wrapOp("bring up", name, upErr)
}

func (p *Ifconfig) Restore(ctx context.Context, name string, original mac.Addr) error {
	return p.Apply(ctx, name, original)
}
