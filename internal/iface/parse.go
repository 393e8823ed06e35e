package iface

import (
	"regexp"
	"strings"

	"github.com/spoofmac/spoofmac/pkg/mac"
)

const macPattern = `(?:[0-9A-Fa-f]{2}[:-]){5}[0-9A-Fa-f]{2}`

var (
	macRe          = regexp.MustCompile(macPattern)
	ipv4Re         = regexp.MustCompile(`\d+\.\d+\.\d+\.\d+`)
	inetRe         = regexp.MustCompile(`inet\s+(\d+\.\d+\.\d+\.\d+)`)
	linkEtherRe    = regexp.MustCompile(`link/ether\s+(` + macPattern + `)`)
	ifconfigEther  = regexp.MustCompile(`\bether\s+(` + macPattern + `)`)
	linkLineRe     = regexp.MustCompile(`^\d+:\s+([^:\s]+):`)
	netshIPRe      = regexp.MustCompile(`IP Address:\s+(\d+\.\d+\.\d+\.\d+)`)
	ethtoolPermRe  = regexp.MustCompile(`Permanent address:\s+(` + macPattern + `)`)
	networksetupRe = regexp.MustCompile(`Ethernet Address:\s+(` + macPattern + `)`)
)

// ParseMAC returns the first MAC address found anywhere in out.
func ParseMAC(out string) (mac.Addr, bool) {
	return parseFirst(macRe.FindString(out))
}

// ParseIPLinkMAC extracts the link/ether address from `ip link show`.
func ParseIPLinkMAC(out string) (mac.Addr, bool) {
	return parseSubmatch(linkEtherRe, out)
}

// ParseIfconfigMAC extracts the ether address from `ifconfig <if>`.
func ParseIfconfigMAC(out string) (mac.Addr, bool) {
	return parseSubmatch(ifconfigEther, out)
}

// ParseEthtoolPermanent reads `ethtool -P` output.
func ParseEthtoolPermanent(out string) (mac.Addr, bool) {
	return parseSubmatch(ethtoolPermRe, out)
}

// ParseNetworksetupMAC reads `networksetup -getmacaddress` output. Ports
// without hardware report "N/A".
func ParseNetworksetupMAC(out string) (mac.Addr, bool) {
	return parseSubmatch(networksetupRe, out)
}

// ParseIPv4 returns the first inet address in `ip addr` or `ifconfig`
// output, falling back to any dotted quad.
func ParseIPv4(out string) (string, bool) {
	if m := inetRe.FindStringSubmatch(out); m != nil {
		return m[1], true
	}
	if ip := ipv4Re.FindString(out); ip != "" {
		return ip, true
	}
	return "", false
}

// ParseNetshIPv4 reads `netsh interface ip show addresses <name>`.
func ParseNetshIPv4(out string) (string, bool) {
	if m := netshIPRe.FindStringSubmatch(out); m != nil {
		return m[1], true
	}
	return "", false
}

// ParseIPRouteLinks lists interface names from `ip -o link show`. Peer
// suffixes such as "veth0@if3" are cut at the '@'.
func ParseIPRouteLinks(out string) []string {
	var names []string
	seen := make(map[string]bool)
	for _, line := range strings.Split(out, "\n") {
		m := linkLineRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		name, _, _ := strings.Cut(m[1], "@")
		if !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
	}
	return names
}

// ParseIfconfigList splits `ifconfig -l`.
func ParseIfconfigList(out string) []string {
	return strings.Fields(out)
}

// ParseNetshInterfaces reads `netsh interface show interface` and keeps
// only adapters whose state is Connected. Names may contain spaces.
//
//	Admin State    State          Type             Interface Name
//	-------------------------------------------------------------------------
//	Enabled        Connected      Dedicated        Wi-Fi
//	Enabled        Disconnected   Dedicated        Ethernet 2
func ParseNetshInterfaces(out string) []string {
	var names []string
	for _, line := range strings.Split(out, "\n") {
		parts := strings.Fields(line)
		if len(parts) >= 4 && parts[1] == "Connected" {
			names = append(names, strings.Join(parts[3:], " "))
		}
	}
	return names
}

func parseSubmatch(re *regexp.Regexp, out string) (mac.Addr, bool) {
	m := re.FindStringSubmatch(out)
	if m == nil {
		return mac.Addr{}, false
	}
	return parseFirst(m[1])
}

func parseFirst(s string) (mac.Addr, bool) {
	if s == "" {
		return mac.Addr{}, false
	}
	a, err := mac.Parse(s)
	if err != nil {
		return mac.Addr{}, false
	}
	return a, true
}
