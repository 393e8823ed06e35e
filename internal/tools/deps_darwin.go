//go:build darwin

package tools

func platformTools() []*ExternalTool {
	return []*ExternalTool{
		{Name: "ifconfig", Required: true, Note: "interface down/up + ether change"},
		{Name: "networksetup", Required: false, Note: "permanent hardware address for --restore"},
	}
}

func platformInstallHint() string {
	return "ifconfig and networksetup ship with macOS; run spoofmac with sudo"
}
