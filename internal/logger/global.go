package logger

import (
	"io"
	"log"
	"os"
)

var global *Logger

func init() {
	// Start with error+warning level to stderr
	// Stdout belongs to ping output
	SetupGlobalLoger(WarningLevel, os.Stderr)
}

func SetupGlobalLoger(level int, writers ...io.Writer) {
	global = New(level, writers...)
}

// Default returns global logger instance.
// Components keep it as their default and accept an override.
func Default() *Logger {
	return global
}

func Debug() *log.Logger {
	return global.loggers[DebugLevel]
}

func Info() *log.Logger {
	return global.loggers[InfoLevel]
}

func Warning() *log.Logger {
	return global.loggers[WarningLevel]
}

func Error() *log.Logger {
	return global.loggers[ErrorLevel]
}
