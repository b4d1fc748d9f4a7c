package config

import "github.com/SyntropyNet/syntropy-ping/internal/env"

// Set at build time with -ldflags "-X ...config.version=..."
var (
	version    = "0.1.0"
	subversion = "local"
)

func GetVersion() string {
	if subversion != "" {
		return version + "-" + subversion
	}
	return version
}

// GetUserAgent is sent in report connection headers
func GetUserAgent() string {
	return env.AppName + "/" + GetVersion()
}
