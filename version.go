package voicedoc

// Version represents the current version of the voicedoc service
const Version = "v0.3.0"

// VersionInfo provides detailed version information
type VersionInfo struct {
	Version   string
	GoVersion string
	GitCommit string
	BuildTime string
}

// GetVersion returns the current version string
func GetVersion() string {
	return Version
}

// GetVersionInfo returns detailed version information
func GetVersionInfo() VersionInfo {
	return VersionInfo{
		Version:   Version,
		GoVersion: "go1.24+",
		GitCommit: "", // Will be set during build
		BuildTime: "", // Will be set during build
	}
}
