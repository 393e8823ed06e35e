//go:build !linux && !darwin && !windows

package tools

func platformTools() []*ExternalTool {
	return []*ExternalTool{
		{Name: "ifconfig", Required: true, Note: "interface down/up + ether change"},
	}
}

func platformInstallHint() string {
	return "install ifconfig for your platform"
}
