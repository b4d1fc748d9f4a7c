// Env packet describes all settings, common to whole application
package env

import "time"

const (
	// Report consumers expect ISO8601 time format
	// RFC3339 is a stricter version of ISO8601, so it is safe to use it.
	TimeFormat = time.RFC3339
	// Default value for application initiated messages
	MessageDefaultID = "-"
	// Application name, used in logs and User-Agent headers
	AppName = "sping"
	// Prefix of all environment variables
	EnvPrefix = "SPING_"
)
