package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/spoofmac/spoofmac/internal/iface"
)

func listInterfaces(ctx context.Context, out io.Writer, svc *services) error {
	ifaces, err := iface.List(ctx, svc.platform)
	if err != nil {
		return fmt.Errorf("list interfaces: %w", err)
	}
	if len(ifaces) == 0 {
		fmt.Fprintln(out, "[-] No interfaces found")
		return nil
	}

	t := table.NewWriter()
	t.SetTitle("Network interfaces")
	t.AppendHeader(table.Row{"#", "Name", "MAC Address", "Vendor", "IPv4"})

	for i, info := range ifaces {
		addr, owner := "-", ""
		if info.HasMAC {
			addr = info.MAC.String()
			if name, ok := svc.ctl.Vendors().Lookup(info.MAC); ok {
				owner = name
			}
			if info.MAC.IsLocallyAdministered() {
				owner += " (local)"
			}
		}
		ip := info.IPv4
		if ip == "" {
			ip = "N/A"
		}
		t.AppendRow(table.Row{i + 1, info.Name, addr, owner, ip})
	}

	fmt.Fprintln(out, t.Render())
	return nil
}
