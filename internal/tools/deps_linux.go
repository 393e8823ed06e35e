//go:build linux

package tools

func platformTools() []*ExternalTool {
	return []*ExternalTool{
		{Name: "ip", Required: true, Note: "interface down/up + address change", VersionArgs: []string{"-V"}},
		{Name: "ethtool", Required: false, Note: "permanent hardware address for --restore", VersionArgs: []string{"--version"}},
		{Name: "macchanger", Required: false, Note: "fallback when ip cannot set the address", VersionArgs: []string{"--version"}},
	}
}

func platformInstallHint() string {
	return "sudo apt install iproute2 ethtool macchanger"
}
