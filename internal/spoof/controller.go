package spoof

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	retry "github.com/avast/retry-go/v5"

	"github.com/spoofmac/spoofmac/internal/iface"
	"github.com/spoofmac/spoofmac/internal/vendor"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

// AnyVendor in Request.Vendor picks a random vendor.
const AnyVendor = "*"

// Request describes how to choose a target address.
type Request struct {
	Custom      string
	Vendor      string
	StableLabel string
}

// Source names the policy that produced a target address.
type Source string

const (
	SourceCustom Source = "custom"
	SourceVendor Source = "vendor"
	SourceStable Source = "stable"
	SourceRandom Source = "random"
)

// Verify configures the poll run after each transition. Zero attempts
// disables it.
type Verify struct {
	Attempts uint
	Delay    time.Duration
}

type Options struct {
	Generator    *mac.Generator
	Vendors      *vendor.Table
	StableSecret []byte
	Verify       Verify
	Log          *slog.Logger
}

// Controller drives the original/spoofed lifecycle of interfaces
// through a Platform. Failed transitions leave the store unchanged unless
// the interface already reports a different address afterwards.
type Controller struct {
	platform iface.Platform
	store    *Store
	gen      *mac.Generator
	vendors  *vendor.Table
	secret   []byte
	verify   Verify
	log      *slog.Logger
}

func NewController(p iface.Platform, store *Store, opts Options) *Controller {
	if opts.Generator == nil {
		opts.Generator = mac.NewGenerator(nil)
	}
	if opts.Vendors == nil {
		opts.Vendors = vendor.Default()
	}
	if opts.Log == nil {
		opts.Log = slog.New(slog.DiscardHandler)
	}
	return &Controller{
		platform: p,
		store:    store,
		gen:      opts.Generator,
		vendors:  opts.Vendors,
		secret:   opts.StableSecret,
		verify:   opts.Verify,
		log:      opts.Log,
	}
}

func (c *Controller) Platform() iface.Platform { return c.platform }

func (c *Controller) Store() *Store { return c.store }

// Observe reads the current address of name and records it as the
// original on first sight.
func (c *Controller) Observe(ctx context.Context, name string) (Entry, error) {
	cur, err := c.platform.CurrentMAC(ctx, name)
	if err != nil {
		return c.entry(name), err
	}
	if c.store.Remember(name, cur) {
		c.log.Info("recorded original address", "iface", name, "mac", cur.String())
	}
	return c.store.update(name, func(e *Entry) { e.Current = cur }), nil
}

// Adopt seeds the original address from the platform's permanent
// hardware address when the store has none, so a fresh process can
// restore an interface spoofed by an earlier run.
func (c *Controller) Adopt(ctx context.Context, name string) (Entry, error) {
	cur, err := c.platform.CurrentMAC(ctx, name)
	if err != nil {
		return c.entry(name), err
	}

	if e, _ := c.store.Get(name); !e.HasOriginal {
		perm, err := c.platform.PermanentMAC(ctx, name)
		if err != nil {
			return c.entry(name), fmt.Errorf("permanent address of %s: %w", name, err)
		}
		c.store.Remember(name, perm)
		c.log.Info("adopted permanent address as original", "iface", name, "mac", perm.String())
	}

	return c.store.update(name, func(e *Entry) {
		e.Current = cur
		if cur != e.Original {
			e.State = Spoofed
		}
	}), nil
}

// Apply sets target on name. It is allowed while already spoofed, in
// which case the spoofed address changes and the original is kept.
func (c *Controller) Apply(ctx context.Context, name string, target mac.Addr) (Entry, error) {
	if _, err := c.Observe(ctx, name); err != nil {
		c.log.Error("spoof failed", "iface", name, "error", err)
		return c.entry(name), err
	}

	if err := c.platform.Apply(ctx, name, target); err != nil {
		c.log.Error("spoof failed", "iface", name, "mac", target.String(), "error", err)
		return c.reconcile(ctx, name), err
	}

	c.store.update(name, func(e *Entry) {
		e.State = Spoofed
		e.Current = target
		e.Verified = false
	})
	c.log.Info("spoofed", "iface", name, "mac", target.String())

	return c.settle(ctx, name, target), nil
}

// reconcile re-reads the interface after a failed Apply. A platform can
// fail after the address was already set (link left down, for example);
// the entry is then marked Spoofed so Restore is not skipped.
func (c *Controller) reconcile(ctx context.Context, name string) Entry {
	cur, err := c.platform.CurrentMAC(ctx, name)
	if err != nil {
		return c.entry(name)
	}
	return c.store.update(name, func(e *Entry) {
		e.Current = cur
		if e.HasOriginal && cur != e.Original {
			e.State = Spoofed
			e.Verified = false
		}
	})
}

// Verifies reports whether transitions are followed by a verification
// poll.
func (c *Controller) Verifies() bool { return c.verify.Attempts > 0 }

// Restore puts the recorded original address back. With no original
// recorded it returns ErrNoOriginal without touching the interface.
func (c *Controller) Restore(ctx context.Context, name string) (Entry, error) {
	e, _ := c.store.Get(name)
	if !e.HasOriginal {
		return e, fmt.Errorf("%w for %s", ErrNoOriginal, name)
	}
	if e.State == Original {
		return e, nil
	}

	if err := c.platform.Restore(ctx, name, e.Original); err != nil {
		c.log.Error("restore failed", "iface", name, "error", err)
		return e, err
	}

	c.store.update(name, func(e *Entry) {
		e.State = Original
		e.Current = e.Original
		e.Verified = false
	})
	c.log.Info("restored", "iface", name, "mac", e.Original.String())

	return c.settle(ctx, name, e.Original), nil
}

// Toggle spoofs an interface in its original state and restores a
// spoofed one.
func (c *Controller) Toggle(ctx context.Context, name string, req Request) (Entry, error) {
	e, err := c.Observe(ctx, name)
	if err != nil {
		return e, err
	}
	if e.State == Spoofed {
		return c.Restore(ctx, name)
	}

	target, _, err := c.Choose(req)
	if err != nil {
		return e, err
	}
	return c.Apply(ctx, name, target)
}

// Choose picks a target address: a valid custom address first, then a
// vendor-prefixed one, then a stable one, then a random one. Custom text
// that does not parse is ignored.
func (c *Controller) Choose(req Request) (mac.Addr, Source, error) {
	if req.Custom != "" {
		addr, err := mac.Parse(req.Custom)
		if err == nil {
			return addr, SourceCustom, nil
		}
		c.log.Debug("ignoring custom address", "input", req.Custom, "error", err)
	}

	if req.Vendor != "" {
		addr, err := c.vendorAddr(req.Vendor)
		if err != nil {
			return mac.Addr{}, "", err
		}
		return addr, SourceVendor, nil
	}

	if req.StableLabel != "" {
		if len(c.secret) == 0 {
			return mac.Addr{}, "", ErrNoSecret
		}
		addr, err := c.gen.Stable(c.secret, req.StableLabel)
		if err != nil {
			return mac.Addr{}, "", err
		}
		return addr, SourceStable, nil
	}

	addr, err := c.gen.Random()
	if err != nil {
		return mac.Addr{}, "", err
	}
	return addr, SourceRandom, nil
}

func (c *Controller) vendorAddr(query string) (mac.Addr, error) {
	var (
		prefix mac.Prefix
		err    error
	)
	if query == AnyVendor {
		_, prefix, err = c.vendors.PickAny(c.gen)
	} else {
		var name string
		if name, err = c.vendors.Find(query); err == nil {
			prefix, err = c.vendors.Pick(c.gen, name)
		}
	}
	if err != nil {
		return mac.Addr{}, err
	}
	return c.gen.FromPrefix(prefix)
}

// Vendors exposes the table used for vendor-prefixed addresses.
func (c *Controller) Vendors() *vendor.Table { return c.vendors }

// settle polls the interface until it reports want. A mismatch is only
// a warning: some drivers report the new address late or never.
func (c *Controller) settle(ctx context.Context, name string, want mac.Addr) Entry {
	if c.verify.Attempts == 0 {
		return c.entry(name)
	}

	var last mac.Addr
	err := retry.New(
		retry.Context(ctx),
		retry.Attempts(c.verify.Attempts),
		retry.Delay(c.verify.Delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	).Do(func() error {
		cur, err := c.platform.CurrentMAC(ctx, name)
		if err != nil {
			return err
		}
		last = cur
		if cur != want {
			return fmt.Errorf("interface reports %s", cur)
		}
		return nil
	})

	if err != nil {
		c.log.Warn("address not confirmed", "iface", name, "want", want.String(), "error", err)
		return c.store.update(name, func(e *Entry) {
			if !last.IsZero() {
				e.Current = last
			}
		})
	}
	return c.store.update(name, func(e *Entry) { e.Verified = true })
}

func (c *Controller) entry(name string) Entry {
	e, _ := c.store.Get(name)
	return e
}
