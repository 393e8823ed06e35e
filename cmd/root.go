package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/common-nighthawk/go-figure"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/spoofmac/spoofmac/internal/config"
	"github.com/spoofmac/spoofmac/internal/spoof"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

const secretEnv = "SPOOFMAC_STABLE_SECRET"

var errNoInterface = errors.New("please specify an interface with -i (use -l to list available interfaces)")

// Execute runs the CLI with SIGINT/SIGTERM cancelling in-flight commands.
func Execute(version string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return newRootCmd(version, &env{out: os.Stdout}).ExecuteContext(ctx)
}

func banner() string {
	return figure.NewFigure("spoofmac", "slant", true).String()
}

func newRootCmd(version string, e *env) *cobra.Command {
	cfg := config.DefaultConfig()
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "spoofmac",
		Short: "Change, randomize and restore network interface MAC addresses",
		Long:  banner() + "\n  spoofmac v" + version + " - MAC address spoofer for Linux, macOS and Windows\n",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd, cfg, configPath)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMain(cmd.Context(), cfg, e)
		},
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(e.out)

	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfg.Interface, "interface", "i", "", "Network interface to modify")
	pf.StringVar(&configPath, "config", "", "YAML or JSON config file")
	pf.BoolVarP(&cfg.Verbose, "verbose", "v", false, "Log commands and decisions to stderr")
	pf.StringVar(&cfg.Log.File, "log-file", "", "Write logs to a rotated file")
	pf.StringVar(&cfg.Vendor, "vendor", "", "Use a prefix of this vendor (\"*\" for any)")

	// Spoof flags
	f := rootCmd.Flags()
	f.StringVarP(&cfg.MAC, "mac", "m", "", "New MAC address (random if not specified)")
	f.BoolVarP(&cfg.Random, "random", "r", false, "Generate a random MAC (overrides -m)")
	f.BoolVarP(&cfg.List, "list", "l", false, "List network interfaces")
	f.BoolVar(&cfg.Restore, "restore", false, "Restore the permanent hardware MAC")
	f.StringVar(&cfg.Stable.Label, "stable", "", "Derive a stable MAC for this label (needs stable.secret)")
	f.BoolVar(&cfg.Announce.Enabled, "announce", false, "Broadcast gratuitous ARP after changing the MAC")
	f.UintVar(&cfg.Verify.Attempts, "verify-attempts", cfg.Verify.Attempts, "Polls to confirm the new MAC (0 disables)")

	// Subcommands
	rootCmd.AddCommand(vendorsCmd(e))
	rootCmd.AddCommand(generateCmd(cfg, e))
	rootCmd.AddCommand(depsCmd(e))
	rootCmd.AddCommand(tuiCmd(cfg, e))

	return rootCmd
}

// loadConfig overlays the config file on the defaults and then re-applies
// flags given on the command line so they win over the file.
func loadConfig(cmd *cobra.Command, cfg *config.Config, path string) error {
	if path != "" {
		changed := make(map[string]string)
		cmd.Flags().Visit(func(f *pflag.Flag) {
			changed[f.Name] = f.Value.String()
		})

		if err := config.Load(path, cfg); err != nil {
			return err
		}
		for name, value := range changed {
			if err := cmd.Flags().Set(name, value); err != nil {
				return fmt.Errorf("flag --%s: %w", name, err)
			}
		}
	}

	if cfg.Stable.Secret == "" {
		cfg.Stable.Secret = os.Getenv(secretEnv)
	}
	return nil
}

func runMain(ctx context.Context, cfg *config.Config, e *env) error {
	svc, err := e.setup(cfg)
	if err != nil {
		return err
	}
	defer svc.close()

	if cfg.List {
		fmt.Fprint(e.out, banner())
		fmt.Fprintln(e.out, "\n[*] Network Interfaces:")
		return listInterfaces(ctx, e.out, svc)
	}

	if cfg.Interface == "" {
		return errNoInterface
	}
	if !e.isElevated() {
		fmt.Fprintln(e.out, "[*] Not running as root/administrator; the change will likely be refused")
	}

	if cfg.Restore {
		return restore(ctx, e.out, svc, cfg.Interface)
	}

	req, err := requestFrom(cfg)
	if err != nil {
		return err
	}
	return change(ctx, e, svc, cfg, req)
}

// requestFrom turns flags into a spoof request. -r wins over everything,
// and -m must be a well-formed address.
func requestFrom(cfg *config.Config) (spoof.Request, error) {
	if cfg.Random {
		return spoof.Request{}, nil
	}
	if cfg.MAC != "" {
		if _, err := mac.Parse(cfg.MAC); err != nil {
			return spoof.Request{}, err
		}
		return spoof.Request{Custom: cfg.MAC}, nil
	}
	return spoof.Request{Vendor: cfg.Vendor, StableLabel: cfg.Stable.Label}, nil
}

func change(ctx context.Context, e *env, svc *services, cfg *config.Config, req spoof.Request) error {
	name := cfg.Interface
	out := e.out

	target, source, err := svc.ctl.Choose(req)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "[*] Target interface: %s\n", name)
	entry, err := svc.ctl.Observe(ctx, name)
	if err != nil {
		return fmt.Errorf("read current MAC of %s: %w", name, err)
	}
	fmt.Fprintf(out, "[*] Current MAC: %s\n", entry.Current)
	fmt.Fprintf(out, "[*] New MAC: %s (%s%s)\n", target, source, vendorSuffix(svc, target, source))

	entry, err = svc.ctl.Apply(ctx, name, target)
	if err != nil {
		return fmt.Errorf("change MAC: %w", err)
	}
	fmt.Fprintf(out, "[+] MAC address changed to %s\n", target)
	reportVerify(out, cfg, entry, target)

	if cfg.Announce.Enabled {
		announceChange(ctx, e, svc, cfg, target)
	}
	return nil
}

func restore(ctx context.Context, out io.Writer, svc *services, name string) error {
	fmt.Fprintf(out, "[*] Target interface: %s\n", name)

	entry, err := svc.ctl.Adopt(ctx, name)
	if err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	fmt.Fprintf(out, "[*] Current MAC: %s\n", entry.Current)
	fmt.Fprintf(out, "[*] Original MAC: %s\n", entry.Original)

	if entry.State == spoof.Original {
		fmt.Fprintln(out, "[+] Already using the original MAC")
		return nil
	}

	entry, err = svc.ctl.Restore(ctx, name)
	if err != nil {
		return fmt.Errorf("restore %s: %w", name, err)
	}
	fmt.Fprintf(out, "[+] MAC address restored to %s\n", entry.Original)
	return nil
}

func reportVerify(out io.Writer, cfg *config.Config, entry spoof.Entry, target mac.Addr) {
	if cfg.Verify.Attempts == 0 || entry.Verified {
		return
	}
	fmt.Fprintf(out, "[*] %s still reports %s; some drivers apply %s only after reconnecting\n",
		entry.Name, entry.Current, target)
}

func vendorSuffix(svc *services, addr mac.Addr, source spoof.Source) string {
	if source != spoof.SourceVendor {
		return ""
	}
	if name, ok := svc.ctl.Vendors().Lookup(addr); ok {
		return ", " + name
	}
	return ""
}

func announceChange(ctx context.Context, e *env, svc *services, cfg *config.Config, hw mac.Addr) {
	name := cfg.Interface
	ip, err := svc.platform.IPv4(ctx, name)
	if err != nil || ip == "" {
		fmt.Fprintf(e.out, "[*] No IPv4 address on %s, skipping ARP announcement\n", name)
		return
	}

	a, err := e.openAnnouncer(name)
	if err != nil {
		fmt.Fprintf(e.out, "[-] ARP announcement failed: %v\n", err)
		return
	}
	defer a.Close()

	if err := a.Announce(ctx, hw, ip, cfg.Announce.Count, cfg.Announce.Interval); err != nil {
		fmt.Fprintf(e.out, "[-] ARP announcement failed: %v\n", err)
		return
	}
	fmt.Fprintf(e.out, "[+] Announced %s at %s (%d gratuitous ARP)\n", ip, hw, cfg.Announce.Count)
}
