package ui

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spoofmac/spoofmac/internal/iface"
	"github.com/spoofmac/spoofmac/internal/spoof"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakePlatform struct {
	mu       sync.Mutex
	current  map[string]mac.Addr
	applyErr error
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{current: map[string]mac.Addr{
		"eth0":  mac.MustParse("00:1b:21:0a:0b:0c"),
		"wlan0": mac.MustParse("3c:22:fb:01:02:03"),
	}}
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Interfaces(context.Context) ([]string, error) {
	return []string{"eth0", "wlan0"}, nil
}

func (p *fakePlatform) CurrentMAC(_ context.Context, name string) (mac.Addr, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	a, ok := p.current[name]
	if !ok {
		return mac.Addr{}, iface.ErrNotFound
	}
	return a, nil
}

func (p *fakePlatform) PermanentMAC(ctx context.Context, name string) (mac.Addr, error) {
	return mac.Addr{}, iface.ErrUnsupported
}

func (p *fakePlatform) IPv4(_ context.Context, name string) (string, error) {
	if name == "wlan0" {
		return "192.168.1.23", nil
	}
	return "", nil
}

func (p *fakePlatform) Apply(_ context.Context, name string, addr mac.Addr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.applyErr != nil {
		return p.applyErr
	}
	p.current[name] = addr
	return nil
}

func (p *fakePlatform) Restore(ctx context.Context, name string, original mac.Addr) error {
	return p.Apply(ctx, name, original)
}

func newTestApp(t *testing.T, p iface.Platform, opts Options) *App {
	t.Helper()
	return newTestAppVerify(t, p, opts, spoof.Verify{Attempts: 1})
}

func newTestAppVerify(t *testing.T, p iface.Platform, opts Options, v spoof.Verify) *App {
	t.Helper()
	ctl := spoof.NewController(p, spoof.NewStore(), spoof.Options{Verify: v})
	opts.Elevated = true
	a := NewApp(ctl, opts)
	a.gateway = func() (net.IP, error) { return net.IPv4(192, 168, 1, 1), nil }
	t.Cleanup(a.cancel)
	return a
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// step feeds msg to the app and runs the resulting command once.
func step(t *testing.T, a *App, msg tea.Msg) tea.Msg {
	t.Helper()
	_, cmd := a.Update(msg)
	if cmd == nil {
		return nil
	}
	return cmd()
}

// selectIface loads the interface list and selects name.
func selectIface(t *testing.T, a *App, name string) {
	t.Helper()
	a.preferred = name
	done := step(t, a, interfacesMsg{names: []string{"eth0", "wlan0"}})
	require.IsType(t, opDoneMsg{}, done)
	poll := step(t, a, done)
	require.IsType(t, pollMsg{}, poll)
	a.Update(poll)
	require.Equal(t, name, a.selected)
	require.False(t, a.busy)
}

func logText(a *App) string {
	return strings.Join(a.logs, "\n")
}

func TestSelectPreferredInterface(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{Interface: "wlan0"})

	selectIface(t, a, "wlan0")

	assert.Equal(t, 1, a.cursor)
	assert.Equal(t, "3c:22:fb:01:02:03", a.status.current.String())
	assert.Equal(t, "192.168.1.23", a.status.ip)
	assert.Equal(t, "192.168.1.1", a.status.gateway)
	assert.Contains(t, logText(a), "Selected interface: wlan0")

	view := a.View()
	assert.Contains(t, view, "ORIGINAL")
	assert.Contains(t, view, "192.168.1.1")
}

func TestMissingPreferredInterfaceIsLogged(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{Interface: "en9"})

	_, cmd := a.Update(interfacesMsg{names: []string{"eth0"}})

	assert.Nil(t, cmd)
	assert.Empty(t, a.selected)
	assert.Contains(t, logText(a), "Interface en9 not found")
}

func TestToggleSpoofsThenRestores(t *testing.T) {
	p := newFakePlatform()
	a := newTestApp(t, p, Options{})
	selectIface(t, a, "eth0")

	done := step(t, a, key("t"))
	require.IsType(t, opDoneMsg{}, done)
	a.Update(done)

	e, ok := a.ctl.Store().Get("eth0")
	require.True(t, ok)
	assert.Equal(t, spoof.Spoofed, e.State)
	assert.True(t, e.Current.IsLocallyAdministered())
	assert.Contains(t, logText(a), "MAC address changed to "+e.Current.String())
	assert.Contains(t, a.View(), "SPOOFED")

	a.Update(step(t, a, key("t")))

	e, _ = a.ctl.Store().Get("eth0")
	assert.Equal(t, spoof.Original, e.State)
	assert.Equal(t, "00:1b:21:0a:0b:0c", p.current["eth0"].String())
	assert.Contains(t, logText(a), "Original MAC address restored: 00:1b:21:0a:0b:0c")
}

func TestToggleUsesCustomAddress(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	selectIface(t, a, "eth0")

	a.Update(key("e"))
	require.True(t, a.editing)
	for _, r := range "02:aa:bb:cc:dd:ee" {
		a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	a.Update(key("enter"))
	require.False(t, a.editing)

	a.Update(step(t, a, key("t")))

	e, _ := a.ctl.Store().Get("eth0")
	assert.Equal(t, "02:aa:bb:cc:dd:ee", e.Current.String())
}

func TestInvalidCustomAddressWarns(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})

	a.Update(key("e"))
	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("zz")})
	a.Update(key("esc"))

	assert.Contains(t, logText(a), `Custom MAC "zz" is not valid`)
}

func TestOperationsNeedSelection(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})

	for _, k := range []string{"t", "r", "o"} {
		_, cmd := a.Update(key(k))
		assert.Nil(t, cmd, k)
	}
	assert.Contains(t, logText(a), "Please select a network interface first")
}

func TestBusyRejectsSecondOperation(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	selectIface(t, a, "eth0")

	_, first := a.Update(key("r"))
	require.NotNil(t, first)
	require.True(t, a.busy)

	_, second := a.Update(key("o"))
	assert.Nil(t, second)
	assert.Contains(t, logText(a), "Busy: spoof in progress")

	a.Update(first())
	assert.False(t, a.busy)
}

func TestRestoreWithoutOriginalIsLogged(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	a.selected = "eth0"

	a.Update(step(t, a, key("o")))

	assert.False(t, a.busy)
	assert.Contains(t, logText(a), "Error (restore")
	assert.Contains(t, logText(a), spoof.ErrNoOriginal.Error())
}

func TestApplyFailureKeepsState(t *testing.T) {
	p := newFakePlatform()
	a := newTestApp(t, p, Options{})
	selectIface(t, a, "eth0")
	p.applyErr = errors.New("boom")

	a.Update(step(t, a, key("r")))

	e, _ := a.ctl.Store().Get("eth0")
	assert.Equal(t, spoof.Original, e.State)
	assert.Contains(t, logText(a), "boom")
}

func TestVendorCycling(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	names := a.ctl.Vendors().Names()
	require.NotEmpty(t, names)

	assert.Empty(t, a.vendorName())
	a.Update(key("]"))
	assert.Equal(t, names[0], a.vendorName())
	a.Update(key("["))
	assert.Empty(t, a.vendorName())
	a.Update(key("["))
	assert.Equal(t, names[len(names)-1], a.vendorName())
	a.Update(key("]"))
	assert.Empty(t, a.vendorName())
}

func TestPreselectedVendorPreview(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{Vendor: "apple"})
	require.Equal(t, "Apple (USA)", a.vendorName())

	a.Update(key("g"))

	addr, err := mac.Parse(a.custom.Value())
	require.NoError(t, err)
	name, ok := a.ctl.Vendors().Lookup(addr)
	require.True(t, ok)
	assert.Equal(t, "Apple (USA)", name)
	assert.True(t, addr.IsLocallyAdministered())
}

func TestRandomVendorPreviewSelectsVendor(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})

	a.Update(key("v"))

	addr, err := mac.Parse(a.custom.Value())
	require.NoError(t, err)
	name, _ := a.ctl.Vendors().Lookup(addr)
	assert.Equal(t, name, a.vendorName())

	a.Update(key("c"))
	assert.Empty(t, a.custom.Value())
}

func TestPollForOtherInterfaceIgnored(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	a.selected = "eth0"

	a.Update(pollMsg{name: "wlan0", ip: "10.0.0.2", gateway: "10.0.0.1"})

	assert.Empty(t, a.status.ip)
}

func TestStalePollAfterOperationIgnored(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})
	selectIface(t, a, "eth0")
	stale := pollMsg{seq: a.opSeq, name: "eth0", current: mac.MustParse("00:1b:21:0a:0b:0c"), ok: true, ip: "N/A", gateway: "N/A"}

	a.Update(step(t, a, key("t")))
	spoofed := a.status.current
	require.NotEqual(t, stale.current, spoofed)

	a.Update(stale)
	assert.Equal(t, spoofed, a.status.current)

	fresh := a.pollCmd("eth0")()
	a.Update(fresh)
	assert.Equal(t, spoofed, a.status.current)
}

func TestUnverifiedNoticeOnlyWhenVerifying(t *testing.T) {
	p := &stickyPlatform{fakePlatform: newFakePlatform()}

	off := newTestAppVerify(t, p, Options{}, spoof.Verify{})
	selectIface(t, off, "eth0")
	off.Update(step(t, off, key("r")))
	assert.NotContains(t, logText(off), "has not confirmed")

	on := newTestAppVerify(t, p, Options{}, spoof.Verify{Attempts: 1})
	selectIface(t, on, "eth0")
	on.Update(step(t, on, key("r")))
	assert.Contains(t, logText(on), "has not confirmed")
}

// stickyPlatform accepts Apply without the interface ever reporting the
// new address.
type stickyPlatform struct {
	*fakePlatform
}

func (p *stickyPlatform) Apply(context.Context, string, mac.Addr) error { return nil }

func TestTickSchedulesPoll(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})

	_, cmd := a.Update(tickMsg{})
	assert.NotNil(t, cmd)
}

func TestQuit(t *testing.T) {
	a := newTestApp(t, newFakePlatform(), Options{})

	_, cmd := a.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Error(t, a.ctx.Err())
}
