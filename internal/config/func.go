package config

import (
	"math"
	"os"
	"strconv"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/logger"
)

func initUint(variable *uint, name string, defaultValue uint) {
	str := os.Getenv(name)
	val, err := strconv.Atoi(str)
	if len(str) == 0 || err != nil || val < 0 {
		*variable = defaultValue
		return
	}
	*variable = uint(val)
}

func initBool(variable *bool, name string, defaultValue bool) {
	str := os.Getenv(name)
	val, err := strconv.ParseBool(str)
	if len(str) == 0 || err != nil {
		*variable = defaultValue
		return
	}
	*variable = val
}

func initString(variable *string, name string, defaultValue string) {
	str := os.Getenv(name)
	if len(str) == 0 {
		*variable = defaultValue
		return
	}
	*variable = str
}

// initDuration parses variable in (fractional) seconds, like ping -W and -i do.
// Go duration strings (e.g. 500ms) are accepted too.
func initDuration(variable *time.Duration, name string, defaultValue time.Duration) {
	str := os.Getenv(name)
	if len(str) == 0 {
		*variable = defaultValue
		return
	}

	if sec, err := strconv.ParseFloat(str, 64); err == nil {
		if sec <= 0 || math.IsNaN(sec) || math.IsInf(sec, 0) {
			logger.Warning().Println(pkgName, "Invalid", name, "value", str)
			*variable = defaultValue
			return
		}
		*variable = time.Duration(sec * float64(time.Second))
		return
	}

	dur, err := time.ParseDuration(str)
	if err != nil || dur <= 0 {
		logger.Warning().Println(pkgName, "Invalid", name, "value", str)
		*variable = defaultValue
		return
	}
	*variable = dur
}
