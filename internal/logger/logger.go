package logger

import (
	"io"
	"log"
)

const (
	DebugLevel = iota
	InfoLevel
	WarningLevel
	ErrorLevel
	logLevelsCount // actually not a real log level, but simplifies some code
)

type Logger struct {
	loggers [logLevelsCount]*log.Logger
}

func logLevelString(level int) string {
	switch level {
	case DebugLevel:
		return "DEBUG"
	case InfoLevel:
		return "INFO"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	default:
		return "?????"
	}
}

func logLevelPrefix(level int) string {
	switch level {
	case DebugLevel:
		return "[DBG] "
	case InfoLevel:
		return "[INF] "
	case WarningLevel:
		return "[WRN] "
	case ErrorLevel:
		return "[ERR] "
	default:
		return "[???] "
	}
}

func New(level int, writers ...io.Writer) *Logger {
	var remoteWriter *remoteLogger
	w := []io.Writer{}
	for _, onewriter := range writers {
		// Remote logger is a special case, because the logger itself must know its log level
		// So here I am sorting writers into generic loggers slice and a remote logger
		// (should be only one instance in variadic parameters)
		switch typewr := onewriter.(type) {
		case *remoteLogger:
			remoteWriter = typewr
		default:
			w = append(w, typewr)
		}
	}

	nullWriter := nullWriter{}
	lgr := Logger{}

	makeWriters := func(wrs ...io.Writer) io.Writer {
		switch len(wrs) {
		case 0:
			return nullWriter
		case 1:
			return wrs[0]
		default:
			return io.MultiWriter(wrs...)
		}
	}

	for i := 0; i < logLevelsCount; i++ {
		if i >= level {
			if remoteWriter != nil {
				lw := append([]io.Writer{}, w...)
				lw = append(lw, &remoteLogger{wr: remoteWriter.wr, level: logLevelString(i)})
				lgr.loggers[i] = log.New(makeWriters(lw...), logLevelPrefix(i), log.Ldate|log.Ltime)
			} else {
				lgr.loggers[i] = log.New(makeWriters(w...), logLevelPrefix(i), log.Ldate|log.Ltime)
			}
		} else {
			lgr.loggers[i] = log.New(nullWriter, "", log.Ldate|log.Ltime)
		}
	}
	return &lgr
}

func (lgr *Logger) Debug() *log.Logger {
	return lgr.loggers[DebugLevel]
}

func (lgr *Logger) Info() *log.Logger {
	return lgr.loggers[InfoLevel]
}

func (lgr *Logger) Warning() *log.Logger {
	return lgr.loggers[WarningLevel]
}

func (lgr *Logger) Error() *log.Logger {
	return lgr.loggers[ErrorLevel]
}
