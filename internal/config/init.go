package config

import (
	"net"
	"os"
	"strings"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/env"
	"github.com/SyntropyNet/syntropy-ping/internal/logger"
)

const (
	maxPort = 65535
	maxTTL  = 255
	// timestamp and tracker
	minSize = 16
	// IPv4 max datagram minus IP and ICMP headers
	maxSize = 65507
)

func Init() {
	var tmpval uint

	initUint(&cache.count, env.EnvPrefix+"COUNT", 0)
	initDuration(&cache.timeout, env.EnvPrefix+"TIMEOUT", 2*time.Second)
	initDuration(&cache.interval, env.EnvPrefix+"INTERVAL", time.Second)
	if cache.interval < 10*time.Millisecond {
		// no flood mode
		cache.interval = 10 * time.Millisecond
	}

	initUint(&cache.ttl, env.EnvPrefix+"TTL", 64)
	if cache.ttl < 1 {
		cache.ttl = 1
	} else if cache.ttl > maxTTL {
		cache.ttl = maxTTL
	}

	initUint(&cache.size, env.EnvPrefix+"SIZE", 56)
	if cache.size < minSize {
		cache.size = minSize
	} else if cache.size > maxSize {
		cache.size = maxSize
	}

	initBool(&cache.privileged, env.EnvPrefix+"PRIVILEGED", true)
	initDebugLevel()

	initUint(&tmpval, env.EnvPrefix+"EXPORTER_PORT", 0)
	if tmpval <= maxPort {
		cache.exporterPort = uint16(tmpval)
	}

	initString(&cache.report.url, env.EnvPrefix+"REPORT_URL", "")
	initString(&cache.report.token, env.EnvPrefix+"REPORT_TOKEN", "")
	initNameserver()
}

func Close() {
	// Anything needed to be closed or destroyed at the end of program, goes here
}

func initDebugLevel() {
	switch strings.ToUpper(os.Getenv(env.EnvPrefix + "LOG_LEVEL")) {
	case "DEBUG":
		cache.debugLevel = logger.DebugLevel
	case "INFO":
		cache.debugLevel = logger.InfoLevel
	case "WARNING":
		cache.debugLevel = logger.WarningLevel
	case "ERROR":
		cache.debugLevel = logger.ErrorLevel
	default:
		cache.debugLevel = logger.WarningLevel
	}
}

func initNameserver() {
	initString(&cache.nameserver, env.EnvPrefix+"NAMESERVER", "")
	if cache.nameserver == "" {
		return
	}

	// Port is optional, DNS port is used by default
	if _, _, err := net.SplitHostPort(cache.nameserver); err != nil {
		cache.nameserver = net.JoinHostPort(cache.nameserver, "53")
	}
}
