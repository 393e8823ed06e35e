package iface

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spoofmac/spoofmac/internal/tools"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

// AdapterClassPath is the network adapter class key under HKLM. Each
// numeric subkey describes one adapter driver instance.
const AdapterClassPath = `SYSTEM\CurrentControlSet\Control\Class\{4D36E972-E325-11CE-BFC1-08002BE10318}`

// AdapterKey is one numeric subkey of AdapterClassPath.
type AdapterKey struct {
	Path        string
	Description string // DriverDesc
	InstanceID  string // NetCfgInstanceId
}

// AdapterRegistry is the slice of the Windows registry the spoofer
// touches.
type AdapterRegistry interface {
	Adapters() ([]AdapterKey, error)
	SetNetworkAddress(path, value string) error
	// DeleteNetworkAddress succeeds when the value is already absent.
	DeleteNetworkAddress(path string) error
}

// Windows overrides the adapter address through the NetworkAddress
// registry value and power-cycles the adapter with netsh so the driver
// picks it up.
type Windows struct {
	run    tools.Runner
	reg    AdapterRegistry
	settle time.Duration
	sleep  func(context.Context, time.Duration) error
	log    *slog.Logger
}

func NewWindows(run tools.Runner, reg AdapterRegistry, settle time.Duration, log *slog.Logger) *Windows {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Windows{
		run:    run,
		reg:    reg,
		settle: settle,
		sleep:  sleepCtx,
		log:    log,
	}
}

func (p *Windows) Name() string { return "windows" }

func (p *Windows) Interfaces(ctx context.Context) ([]string, error) {
	out, err := p.run.Run(ctx, "netsh", "interface", "show", "interface")
	if err != nil {
		return nil, wrapOp("list interfaces", "", err)
	}
	return ParseNetshInterfaces(out), nil
}

func (p *Windows) CurrentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.powershell(ctx, fmt.Sprintf("Get-NetAdapter -Name %s | Select-Object -ExpandProperty MacAddress", psQuote(name)))
	if err != nil {
		return mac.Addr{}, wrapOp("read address of", name, err)
	}
	addr, ok := ParseMAC(out)
	if !ok {
		return mac.Addr{}, &OpError{Op: "read address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *Windows) PermanentMAC(ctx context.Context, name string) (mac.Addr, error) {
	out, err := p.powershell(ctx, fmt.Sprintf("Get-NetAdapter -Name %s | Select-Object -ExpandProperty PermanentAddress", psQuote(name)))
	if err != nil {
		return mac.Addr{}, wrapOp("read permanent address of", name, err)
	}
	// PermanentAddress is bare hex: 001A2B3C4D5E
	addr, err := mac.ParseLoose(strings.TrimSpace(out))
	if err != nil || addr.IsZero() {
		return mac.Addr{}, &OpError{Op: "read permanent address of", Iface: name, Kind: ErrNotFound, Err: errNoEther}
	}
	return addr, nil
}

func (p *Windows) IPv4(ctx context.Context, name string) (string, error) {
	out, err := p.run.Run(ctx, "netsh", "interface", "ip", "show", "addresses", name)
	if err != nil {
		return "", wrapOp("read IPv4 of", name, err)
	}
	ip, _ := ParseNetshIPv4(out)
	return ip, nil
}

// Apply clears any previous override, power-cycles the adapter, writes
// the new NetworkAddress and power-cycles again. Only the final cycle is
// fatal: until it succeeds the driver has not loaded the new address, so
// the override is removed again rather than left for the next restart.
func (p *Windows) Apply(ctx context.Context, name string, addr mac.Addr) error {
	key, err := p.findAdapterKey(ctx, name)
	if err != nil {
		return err
	}

	if err := p.reg.DeleteNetworkAddress(key); err != nil {
		return wrapOp("clear NetworkAddress for", name, err)
	}
	if err := p.powerCycle(ctx, name); err != nil {
		p.log.Warn("adapter power cycle failed, continuing", "iface", name, "error", err)
	}

	if err := p.reg.SetNetworkAddress(key, addr.Bare()); err != nil {
		return wrapOp("write NetworkAddress for", name, err)
	}
	if err := p.powerCycle(ctx, name); err != nil {
		if derr := p.reg.DeleteNetworkAddress(key); derr != nil {
			p.log.Error("could not remove NetworkAddress after failed restart", "iface", name, "error", derr)
			err = errors.Join(err, derr)
		}
		return wrapOp("restart adapter", name, err)
	}
	return nil
}

// Restore deletes the override so the driver falls back to the burned-in
// address. original is not needed on Windows.
func (p *Windows) Restore(ctx context.Context, name string, _ mac.Addr) error {
	key, err := p.findAdapterKey(ctx, name)
	if err != nil {
		return err
	}
	if err := p.reg.DeleteNetworkAddress(key); err != nil {
		return wrapOp("clear NetworkAddress for", name, err)
	}
	if err := p.powerCycle(ctx, name); err != nil {
		return wrapOp("restart adapter", name, err)
	}
	return nil
}

func (p *Windows) powerCycle(ctx context.Context, name string) error {
	if _, err := p.run.Run(ctx, "netsh", "interface", "set", "interface", name, "disable"); err != nil {
		return err
	}
	if err := p.sleep(ctx, p.settle); err != nil {
		return err
	}
	if _, err := p.run.Run(ctx, "netsh", "interface", "set", "interface", name, "enable"); err != nil {
		return err
	}
	return p.sleep(ctx, p.settle)
}

// findAdapterKey matches the interface against DriverDesc (substring in
// either direction, case-insensitive) and then against NetCfgInstanceId.
// The adapter GUID is only looked up when no description matched.
func (p *Windows) findAdapterKey(ctx context.Context, name string) (string, error) {
	keys, err := p.reg.Adapters()
	if err != nil {
		return "", wrapOp("enumerate adapter keys for", name, err)
	}

	if path, ok := MatchAdapterKey(keys, name, ""); ok {
		return path, nil
	}

	guid, err := p.adapterGUID(ctx, name)
	if err != nil {
		p.log.Debug("adapter GUID lookup failed", "iface", name, "error", err)
	}
	if path, ok := MatchAdapterKey(keys, name, guid); ok {
		return path, nil
	}

	return "", &OpError{Op: "find registry key for", Iface: name, Kind: ErrNotFound, Err: errNoAdapterKey}
}

func (p *Windows) adapterGUID(ctx context.Context, name string) (string, error) {
	script := fmt.Sprintf(
		"Get-NetAdapter | Where-Object {$_.Name -eq %s -or $_.InterfaceDescription -like %s} | Select-Object -First 1 -ExpandProperty InterfaceGuid",
		psQuote(name), psQuote("*"+name+"*"),
	)
	out, err := p.powershell(ctx, script)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (p *Windows) powershell(ctx context.Context, script string) (string, error) {
	return p.run.Run(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

// MatchAdapterKey picks the registry key for an interface. An empty guid
// disables the NetCfgInstanceId comparison.
func MatchAdapterKey(keys []AdapterKey, name, guid string) (string, bool) {
	lname := strings.ToLower(name)
	for _, k := range keys {
		desc := strings.ToLower(k.Description)
		if desc == "" {
			continue
		}
		if strings.Contains(desc, lname) || strings.Contains(lname, desc) {
			return k.Path, true
		}
	}

	if guid == "" {
		return "", false
	}
	for _, k := range keys {
		if k.InstanceID != "" && strings.EqualFold(k.InstanceID, guid) {
			return k.Path, true
		}
	}
	return "", false
}

// psQuote renders s as a single-quoted PowerShell string literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

var errNoAdapterKey = errors.New("no adapter registry key matches")
