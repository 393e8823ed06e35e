package cmd

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/spoofmac/spoofmac/internal/announce"
	"github.com/spoofmac/spoofmac/internal/config"
	"github.com/spoofmac/spoofmac/internal/iface"
	"github.com/spoofmac/spoofmac/internal/logging"
	"github.com/spoofmac/spoofmac/internal/spoof"
	"github.com/spoofmac/spoofmac/internal/tools"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

type announcer interface {
	Announce(ctx context.Context, hw mac.Addr, ip string, count int, interval time.Duration) error
	Close()
}

// env holds the process-level collaborators. Tests replace platform,
// elevated and announce; the zero values use the real system.
type env struct {
	out      io.Writer
	platform iface.Platform
	elevated func() bool
	announce func(iface string) (announcer, error)
}

func (e *env) isElevated() bool {
	if e.elevated != nil {
		return e.elevated()
	}
	return iface.Elevated()
}

func (e *env) openAnnouncer(name string) (announcer, error) {
	if e.announce != nil {
		return e.announce(name)
	}
	return announce.Open(name)
}

// services is everything a command needs once config is final.
type services struct {
	log      *slog.Logger
	platform iface.Platform
	ctl      *spoof.Controller
	close    func()
}

func (e *env) setup(cfg *config.Config) (*services, error) {
	log, closeLog, err := logging.New(cfg.Log, cfg.Verbose)
	if err != nil {
		return nil, err
	}

	platform := e.platform
	if platform == nil {
		run := tools.LoggingRunner{Next: tools.ExecRunner{}, Log: log}
		platform = iface.Detect(run, iface.Options{Settle: cfg.Windows.Settle, Log: log})
	}
	log.Debug("platform selected", "platform", platform.Name())

	ctl := spoof.NewController(platform, spoof.NewStore(), spoof.Options{
		StableSecret: []byte(cfg.Stable.Secret),
		Verify: spoof.Verify{
			Attempts: cfg.Verify.Attempts,
			Delay:    cfg.Verify.Delay,
		},
		Log: log,
	})

	return &services{
		log:      log,
		platform: platform,
		ctl:      ctl,
		close:    func() { _ = closeLog() },
	}, nil
}
