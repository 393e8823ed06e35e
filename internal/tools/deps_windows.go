//go:build windows

package tools

func platformTools() []*ExternalTool {
	return []*ExternalTool{
		{Name: "netsh", Required: true, Note: "adapter listing + enable/disable"},
		{
			Name:        "powershell",
			Required:    true,
			Note:        "Get-NetAdapter for MAC and adapter GUID",
			VersionArgs: []string{"-NoProfile", "-Command", "$PSVersionTable.PSVersion.ToString()"},
		},
	}
}

func platformInstallHint() string {
	return "netsh and PowerShell ship with Windows; run spoofmac from an elevated prompt"
}
