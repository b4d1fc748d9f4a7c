package config

import "time"

const pkgName = "SpingConfig. "

// This struct is used to cache application configuration
// parsed from exported shell variables.
// Cache them and use from here
type configCache struct {
	count      uint
	timeout    time.Duration
	interval   time.Duration
	ttl        uint
	size       uint
	privileged bool

	debugLevel   int
	exporterPort uint16

	report struct {
		url   string
		token string
	}
	nameserver string
}

var cache configCache

// GetCount returns count of probes to send. 0 means until interrupted.
func GetCount() uint {
	return cache.count
}

func GetTimeout() time.Duration {
	return cache.timeout
}

func GetInterval() time.Duration {
	return cache.interval
}

func GetTTL() uint {
	return cache.ttl
}

// GetSize returns echo payload size in bytes
func GetSize() uint {
	return cache.size
}

func GetPrivileged() bool {
	return cache.privileged
}

func GetDebugLevel() int {
	return cache.debugLevel
}

// GetExporterPort returns prometheus exporter port. 0 means disabled.
func GetExporterPort() uint16 {
	return cache.exporterPort
}

func GetReportURL() string {
	return cache.report.url
}

func GetReportToken() string {
	return cache.report.token
}

// GetNameserver returns DNS server address (host:port), empty for system resolver
func GetNameserver() string {
	return cache.nameserver
}
