package spoof

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/spoofmac/spoofmac/internal/iface"
	"github.com/spoofmac/spoofmac/internal/vendor"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakePlatform keeps one address per interface and records calls.
type fakePlatform struct {
	mu        sync.Mutex
	current   map[string]mac.Addr
	permanent map[string]mac.Addr
	calls     []string
	applied   []mac.Addr
	restored  []mac.Addr
	applyErr  error
	// partial makes a failing Apply still change the reported address.
	partial bool
	// sticky makes Apply succeed without changing the reported address.
	sticky bool
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		current:   map[string]mac.Addr{"eth0": mac.MustParse("00:1b:21:0a:0b:0c")},
		permanent: map[string]mac.Addr{"eth0": mac.MustParse("00:1b:21:0a:0b:0c")},
	}
}

func (p *fakePlatform) Name() string { return "fake" }

func (p *fakePlatform) Interfaces(context.Context) ([]string, error) {
	return []string{"eth0"}, nil
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

func (p *fakePlatform) PermanentMAC(_ context.Context, name string) (mac.Addr, error) {
	a, ok := p.permanent[name]
	if !ok {
		return mac.Addr{}, iface.ErrNotFound
	}
	return a, nil
}

func (p *fakePlatform) IPv4(context.Context, string) (string, error) { return "", nil }

func (p *fakePlatform) Apply(_ context.Context, name string, addr mac.Addr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "apply")
	if p.applyErr != nil {
		if p.partial {
			p.current[name] = addr
		}
		return p.applyErr
	}
	p.applied = append(p.applied, addr)
	if !p.sticky {
		p.current[name] = addr
	}
	return nil
}

func (p *fakePlatform) Restore(_ context.Context, name string, original mac.Addr) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, "restore")
	p.restored = append(p.restored, original)
	p.current[name] = original
	return nil
}

func newController(p iface.Platform, opts Options) *Controller {
	return NewController(p, NewStore(), opts)
}

var (
	hwAddr = mac.MustParse("00:1b:21:0a:0b:0c")
	first  = mac.MustParse("02:00:00:00:00:01")
	second = mac.MustParse("02:00:00:00:00:02")
)

func TestSpoofTwiceThenRestoreUsesFirstObservation(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})
	ctx := context.Background()

	e, err := c.Apply(ctx, "eth0", first)
	require.NoError(t, err)
	assert.Equal(t, Spoofed, e.State)
	assert.Equal(t, hwAddr, e.Original)

	e, err = c.Apply(ctx, "eth0", second)
	require.NoError(t, err)
	assert.Equal(t, hwAddr, e.Original, "original must not be replaced by the first spoofed address")
	assert.Equal(t, second, e.Current)

	e, err = c.Restore(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, Original, e.State)
	assert.Equal(t, []mac.Addr{hwAddr}, p.restored)
	assert.Equal(t, hwAddr, p.current["eth0"])
}

func TestRestoreWithoutOriginal(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})

	_, err := c.Restore(context.Background(), "eth0")
	assert.ErrorIs(t, err, ErrNoOriginal)
	assert.Empty(t, p.calls)
}

func TestRestoreWhenAlreadyOriginalIsNoop(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})

	_, err := c.Observe(context.Background(), "eth0")
	require.NoError(t, err)

	e, err := c.Restore(context.Background(), "eth0")
	require.NoError(t, err)
	assert.Equal(t, Original, e.State)
	assert.Empty(t, p.calls)
}

func TestApplyFailureLeavesStateUnchanged(t *testing.T) {
	p := newFakePlatform()
	p.applyErr = iface.ErrPermission
	c := newController(p, Options{})

	e, err := c.Apply(context.Background(), "eth0", first)
	require.ErrorIs(t, err, iface.ErrPermission)
	assert.Equal(t, Original, e.State)
	assert.Equal(t, hwAddr, e.Current)
	assert.Equal(t, []string{"apply"}, p.calls)
}

func TestPartialApplyFailureCanBeRestored(t *testing.T) {
	p := newFakePlatform()
	p.applyErr = iface.ErrCommandFailed
	p.partial = true
	c := newController(p, Options{})
	ctx := context.Background()

	e, err := c.Apply(ctx, "eth0", first)
	require.ErrorIs(t, err, iface.ErrCommandFailed)
	assert.Equal(t, Spoofed, e.State)
	assert.Equal(t, first, e.Current)

	p.applyErr = nil
	e, err = c.Restore(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, Original, e.State)
	assert.Equal(t, []mac.Addr{hwAddr}, p.restored)
	assert.Equal(t, hwAddr, p.current["eth0"])
}

func TestApplyUnknownInterface(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})

	_, err := c.Apply(context.Background(), "wlan9", first)
	require.ErrorIs(t, err, iface.ErrNotFound)
	assert.Empty(t, p.calls)
}

func TestToggle(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})
	ctx := context.Background()

	e, err := c.Toggle(ctx, "eth0", Request{Custom: "02:00:00:00:00:01"})
	require.NoError(t, err)
	assert.Equal(t, Spoofed, e.State)
	assert.Equal(t, first, e.Current)

	e, err = c.Toggle(ctx, "eth0", Request{Custom: "02:00:00:00:00:02"})
	require.NoError(t, err)
	assert.Equal(t, Original, e.State)
	assert.Equal(t, []string{"apply", "restore"}, p.calls)
}

func TestChoosePriority(t *testing.T) {
	c := newController(newFakePlatform(), Options{StableSecret: []byte("s3cret")})

	addr, src, err := c.Choose(Request{Custom: "AA-BB-CC-DD-EE-FF", Vendor: "apple", StableLabel: "home"})
	require.NoError(t, err)
	assert.Equal(t, SourceCustom, src)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", addr.String())

	addr, src, err = c.Choose(Request{Custom: "not-a-mac", Vendor: "apple", StableLabel: "home"})
	require.NoError(t, err)
	assert.Equal(t, SourceVendor, src)
	owner, ok := vendor.Default().Lookup(addr)
	assert.True(t, ok)
	assert.Equal(t, "Apple (USA)", owner)
	assert.True(t, addr.IsLocallyAdministered())

	addr, src, err = c.Choose(Request{StableLabel: "home"})
	require.NoError(t, err)
	assert.Equal(t, SourceStable, src)
	again, _, err := c.Choose(Request{StableLabel: "home"})
	require.NoError(t, err)
	assert.Equal(t, addr, again)

	addr, src, err = c.Choose(Request{})
	require.NoError(t, err)
	assert.Equal(t, SourceRandom, src)
	assert.True(t, addr.IsUnicast())
	assert.True(t, addr.IsLocallyAdministered())
}

func TestChooseErrors(t *testing.T) {
	c := newController(newFakePlatform(), Options{})

	_, _, err := c.Choose(Request{Vendor: "Siemens"})
	assert.ErrorIs(t, err, vendor.ErrUnknownVendor)

	_, _, err = c.Choose(Request{StableLabel: "home"})
	assert.ErrorIs(t, err, ErrNoSecret)

	addr, src, err := c.Choose(Request{Vendor: AnyVendor})
	require.NoError(t, err)
	assert.Equal(t, SourceVendor, src)
	_, ok := vendor.Default().Lookup(addr)
	assert.True(t, ok)
}

func TestChooseUsesInjectedRandomness(t *testing.T) {
	g := mac.NewGenerator(bytes.NewReader(bytes.Repeat([]byte{0x10}, 6)))
	c := newController(newFakePlatform(), Options{Generator: g})

	addr, _, err := c.Choose(Request{})
	require.NoError(t, err)
	assert.Equal(t, "12:10:10:10:10:10", addr.String())
}

func TestAdoptSeedsPermanentAddress(t *testing.T) {
	p := newFakePlatform()
	p.current["eth0"] = first
	c := newController(p, Options{})
	ctx := context.Background()

	e, err := c.Adopt(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, hwAddr, e.Original)
	assert.Equal(t, Spoofed, e.State)

	_, err = c.Restore(ctx, "eth0")
	require.NoError(t, err)
	assert.Equal(t, []mac.Addr{hwAddr}, p.restored)
}

func TestAdoptUnspoofedStaysOriginal(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{})

	e, err := c.Adopt(context.Background(), "eth0")
	require.NoError(t, err)
	assert.Equal(t, Original, e.State)

	_, err = c.Restore(context.Background(), "eth0")
	require.NoError(t, err)
	assert.Empty(t, p.calls)
}

func TestAdoptWithoutPermanent(t *testing.T) {
	p := newFakePlatform()
	delete(p.permanent, "eth0")
	c := newController(p, Options{})

	_, err := c.Adopt(context.Background(), "eth0")
	assert.ErrorIs(t, err, iface.ErrNotFound)

	_, err = c.Restore(context.Background(), "eth0")
	assert.ErrorIs(t, err, ErrNoOriginal)
}

func TestVerifyPoll(t *testing.T) {
	p := newFakePlatform()
	c := newController(p, Options{Verify: Verify{Attempts: 3, Delay: time.Millisecond}})

	e, err := c.Apply(context.Background(), "eth0", first)
	require.NoError(t, err)
	assert.True(t, e.Verified)

	p.sticky = true
	e, err = c.Apply(context.Background(), "eth0", second)
	require.NoError(t, err, "a mismatch is a warning, not a failure")
	assert.False(t, e.Verified)
	assert.Equal(t, Spoofed, e.State)
	assert.Equal(t, first, e.Current, "current reflects what the interface reports")
}

func TestVerifyPollHonoursCancel(t *testing.T) {
	p := newFakePlatform()
	p.sticky = true
	c := newController(p, Options{Verify: Verify{Attempts: 50, Delay: time.Hour}})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	e, err := c.Apply(ctx, "eth0", first)
	require.NoError(t, err)
	assert.False(t, e.Verified)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestStore(t *testing.T) {
	s := NewStore()

	assert.True(t, s.Remember("wlan0", first))
	assert.False(t, s.Remember("wlan0", second))
	assert.True(t, s.Remember("eth0", hwAddr))

	e, ok := s.Get("wlan0")
	require.True(t, ok)
	assert.Equal(t, first, e.Original)

	_, ok = s.Get("nope")
	assert.False(t, ok)

	entries := s.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "eth0", entries[0].Name)
	assert.Equal(t, "wlan0", entries[1].Name)
}

func TestStoreConcurrentRemember(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	recorded := make(chan mac.Addr, 16)

	for i := range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			addr := mac.Addr{0x02, 0, 0, 0, 0, byte(i)}
			if s.Remember("eth0", addr) {
				recorded <- addr
			}
		}()
	}
	wg.Wait()
	close(recorded)

	var got []mac.Addr
	for a := range recorded {
		got = append(got, a)
	}
	require.Len(t, got, 1)
	e, _ := s.Get("eth0")
	assert.Equal(t, got[0], e.Original)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "original", Original.String())
	assert.Equal(t, "spoofed", Spoofed.String())
	assert.False(t, errors.Is(ErrNoOriginal, ErrNoSecret))
}
