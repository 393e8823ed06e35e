package ui

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/jackpal/gateway"

	"github.com/spoofmac/spoofmac/internal/spoof"
	"github.com/spoofmac/spoofmac/pkg/mac"
)

const maxLogLines = 200

// Options configures the dashboard.
type Options struct {
	Interface    string // preselected interface
	Vendor       string // preselected vendor
	PollInterval time.Duration
	Elevated     bool
}

// App is the main Bubble Tea model. Interface mutations run as commands
// off the event loop; only one may be in flight at a time and status
// polling pauses while it runs.
type App struct {
	ctl      *spoof.Controller
	ctx      context.Context
	cancel   context.CancelFunc
	poll     time.Duration
	gateway  func() (net.IP, error)
	elevated bool

	width  int
	height int

	ifaces    []string
	cursor    int
	selected  string
	preferred string

	status statusInfo

	vendors   []string
	vendorIdx int // -1: no vendor
	custom    textinput.Model
	editing   bool

	busy      bool
	busyLabel string
	// opSeq counts started operations; polls begun before the latest
	// one are stale.
	opSeq int
	logs  []string
}

type statusInfo struct {
	current    mac.Addr
	hasCurrent bool
	ip         string
	gateway    string
}

type tickMsg time.Time

type interfacesMsg struct {
	names []string
	err   error
}

type pollMsg struct {
	seq     int
	name    string
	current mac.Addr
	ok      bool
	ip      string
	gateway string
}

type opDoneMsg struct {
	op    string
	entry spoof.Entry
	err   error
}

func NewApp(ctl *spoof.Controller, opts Options) *App {
	if opts.PollInterval <= 0 {
		opts.PollInterval = time.Second
	}

	ti := textinput.New()
	ti.Placeholder = "xx:xx:xx:xx:xx:xx"
	ti.CharLimit = 17
	ti.Prompt = ""

	a := &App{
		ctl:       ctl,
		poll:      opts.PollInterval,
		gateway:   gateway.DiscoverGateway,
		elevated:  opts.Elevated,
		preferred: opts.Interface,
		vendors:   ctl.Vendors().Names(),
		vendorIdx: -1,
		custom:    ti,
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())

	if opts.Vendor != "" {
		if name, err := ctl.Vendors().Find(opts.Vendor); err == nil {
			a.selectVendor(name)
		}
	}
	if !a.elevated {
		a.logf("Not running as root/administrator: changes will likely fail")
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.tickCmd(), a.loadInterfaces())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case tickMsg:
		cmds := []tea.Cmd{a.tickCmd()}
		if !a.busy && a.selected != "" {
			cmds = append(cmds, a.pollCmd(a.selected))
		}
		return a, tea.Batch(cmds...)

	case interfacesMsg:
		if msg.err != nil {
			a.logf("Error getting interfaces: %v", msg.err)
			return a, nil
		}
		a.ifaces = msg.names
		if a.cursor >= len(a.ifaces) {
			a.cursor = 0
		}
		if a.selected == "" && a.preferred != "" {
			for i, n := range a.ifaces {
				if n == a.preferred {
					a.cursor = i
					return a, a.selectInterface(n)
				}
			}
			a.logf("Interface %s not found", a.preferred)
		}
		return a, nil

	case pollMsg:
		if msg.name == a.selected && msg.seq == a.opSeq {
			a.status.ip = msg.ip
			a.status.gateway = msg.gateway
			if msg.ok {
				a.status.current = msg.current
				a.status.hasCurrent = true
			}
		}
		return a, nil

	case opDoneMsg:
		a.busy = false
		a.busyLabel = ""
		a.finish(msg)
		if a.selected != "" {
			return a, a.pollCmd(a.selected)
		}
		return a, nil
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.editing {
		switch msg.String() {
		case "enter", "esc":
			a.editing = false
			a.custom.Blur()
			if v := strings.TrimSpace(a.custom.Value()); v != "" {
				if _, err := mac.Parse(v); err != nil {
					a.logf("Custom MAC %q is not valid; toggle will fall back to vendor/random", v)
				}
			}
			return a, nil
		case "ctrl+c":
			a.cancel()
			return a, tea.Quit
		}
		var cmd tea.Cmd
		a.custom, cmd = a.custom.Update(msg)
		return a, cmd
	}

	switch msg.String() {
	case "q", "ctrl+c":
		a.cancel()
		return a, tea.Quit

	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.ifaces)-1 {
			a.cursor++
		}
	case "enter":
		if len(a.ifaces) > 0 {
			return a, a.selectInterface(a.ifaces[a.cursor])
		}
	case "f5", "l":
		return a, a.loadInterfaces()

	case " ", "t":
		return a, a.toggle()
	case "r":
		return a, a.applyRandom()
	case "o":
		return a, a.restore()

	case "e":
		a.editing = true
		return a, a.custom.Focus()
	case "c":
		a.custom.SetValue("")
	case "]":
		a.cycleVendor(1)
	case "[":
		a.cycleVendor(-1)
	case "v":
		a.previewVendor(true)
	case "g":
		a.previewVendor(false)
	}
	return a, nil
}

func (a *App) selectInterface(name string) tea.Cmd {
	if a.busy {
		a.logf("Busy: %s in progress", a.busyLabel)
		return nil
	}
	a.selected = name
	a.status = statusInfo{}
	return a.run("select", func(ctx context.Context) (spoof.Entry, error) {
		return a.ctl.Observe(ctx, name)
	})
}

func (a *App) toggle() tea.Cmd {
	if !a.requireInterface() {
		return nil
	}
	name := a.selected
	req := spoof.Request{Custom: strings.TrimSpace(a.custom.Value()), Vendor: a.vendorName()}
	return a.run("toggle", func(ctx context.Context) (spoof.Entry, error) {
		return a.ctl.Toggle(ctx, name, req)
	})
}

func (a *App) applyRandom() tea.Cmd {
	if !a.requireInterface() {
		return nil
	}
	target, _, err := a.ctl.Choose(spoof.Request{})
	if err != nil {
		a.logf("Error: %v", err)
		return nil
	}
	a.logf("Generated random MAC: %s", target)
	name := a.selected
	return a.run("spoof", func(ctx context.Context) (spoof.Entry, error) {
		return a.ctl.Apply(ctx, name, target)
	})
}

func (a *App) restore() tea.Cmd {
	if !a.requireInterface() {
		return nil
	}
	name := a.selected
	return a.run("restore", func(ctx context.Context) (spoof.Entry, error) {
		return a.ctl.Restore(ctx, name)
	})
}

// run starts op unless another one is in flight.
func (a *App) run(op string, fn func(context.Context) (spoof.Entry, error)) tea.Cmd {
	if a.busy {
		a.logf("Busy: %s in progress", a.busyLabel)
		return nil
	}
	a.busy = true
	a.busyLabel = op
	a.opSeq++
	ctx := a.ctx
	return func() tea.Msg {
		entry, err := fn(ctx)
		return opDoneMsg{op: op, entry: entry, err: err}
	}
}

func (a *App) finish(msg opDoneMsg) {
	e := msg.entry
	if msg.err != nil {
		a.logf("Error (%s %s): %v", msg.op, e.Name, msg.err)
		return
	}

	a.status.current = e.Current
	a.status.hasCurrent = true

	switch msg.op {
	case "select":
		a.logf("Selected interface: %s (MAC: %s)", e.Name, e.Current)
	case "restore":
		a.logf("Original MAC address restored: %s", e.Original)
	default:
		if e.State == spoof.Original {
			a.logf("Original MAC address restored: %s", e.Original)
		} else {
			a.logf("MAC address changed to %s", e.Current)
		}
	}
	if msg.op != "select" && a.ctl.Verifies() && !e.Verified {
		a.logf("Interface has not confirmed the new address yet")
	}
}

func (a *App) requireInterface() bool {
	if a.selected == "" {
		a.logf("Please select a network interface first (Enter)")
		return false
	}
	return true
}

func (a *App) vendorName() string {
	if a.vendorIdx < 0 || a.vendorIdx >= len(a.vendors) {
		return ""
	}
	return a.vendors[a.vendorIdx]
}

func (a *App) selectVendor(name string) {
	for i, v := range a.vendors {
		if v == name {
			a.vendorIdx = i
			return
		}
	}
}

// cycleVendor steps through "no vendor" and every vendor name.
func (a *App) cycleVendor(step int) {
	n := len(a.vendors) + 1
	a.vendorIdx = ((a.vendorIdx+1+step)%n+n)%n - 1
}

// previewVendor fills the custom field with a vendor-prefixed address.
// With pickRandom a random vendor is selected first.
func (a *App) previewVendor(pickRandom bool) {
	req := spoof.Request{Vendor: a.vendorName()}
	if pickRandom {
		req.Vendor = spoof.AnyVendor
	} else if req.Vendor == "" {
		a.logf("Select a vendor with [ or ] first, or press v for a random vendor")
		return
	}

	addr, _, err := a.ctl.Choose(req)
	if err != nil {
		a.logf("Error: %v", err)
		return
	}
	name, _ := a.ctl.Vendors().Lookup(addr)
	a.selectVendor(name)
	a.custom.SetValue(addr.String())
	a.logf("Generated %s MAC: %s", name, addr)
}

func (a *App) logf(format string, args ...any) {
	line := time.Now().Format("15:04:05") + "  " + fmt.Sprintf(format, args...)
	a.logs = append(a.logs, line)
	if len(a.logs) > maxLogLines {
		a.logs = a.logs[len(a.logs)-maxLogLines:]
	}
}

func (a *App) tickCmd() tea.Cmd {
	return tea.Tick(a.poll, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (a *App) loadInterfaces() tea.Cmd {
	p := a.ctl.Platform()
	ctx := a.ctx
	return func() tea.Msg {
		names, err := p.Interfaces(ctx)
		return interfacesMsg{names: names, err: err}
	}
}

func (a *App) pollCmd(name string) tea.Cmd {
	p := a.ctl.Platform()
	ctx := a.ctx
	discover := a.gateway
	seq := a.opSeq
	return func() tea.Msg {
		msg := pollMsg{seq: seq, name: name, ip: "N/A", gateway: "N/A"}
		if cur, err := p.CurrentMAC(ctx, name); err == nil {
			msg.current = cur
			msg.ok = true
		}
		if ip, err := p.IPv4(ctx, name); err == nil && ip != "" {
			msg.ip = ip
		}
		if discover != nil {
			if gw, err := discover(); err == nil {
				msg.gateway = gw.String()
			}
		}
		return msg
	}
}

// Run starts the Bubble Tea program.
func Run(app *App) error {
	defer app.cancel()
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
