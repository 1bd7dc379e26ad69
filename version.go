package svcctl

// Version is the current version of the go-svcctl library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the semantic version
	Version string
	// Backends lists the service-management backends this build can drive
	Backends []Kind
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	return VersionInfo{
		Version: Version,
		Backends: []Kind{
			KindSystemd,
			KindOpenRC,
			KindRcd,
			KindLaunchd,
			KindSc,
			KindWinSW,
		},
	}
}
