package logger

import (
	"encoding/json"
	"io"
	"strings"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/env"
)

const cmd = "LOGGER"

type loggerMessage struct {
	ID        string `json:"id"`
	MsgType   string `json:"type"`
	Timestamp string `json:"executed_at,omitempty"`
	Data      struct {
		Level   string `json:"severity"`
		Message string `json:"message"`
	} `json:"data"`
}

// remoteLogger wraps every log line into a JSON message.
// Used to forward logs over the report websocket.
type remoteLogger struct {
	wr    io.Writer
	level string
}

// NewRemoteWriter returns a writer for SetupGlobalLoger (or New)
// that sends log lines to w as LOGGER messages.
func NewRemoteWriter(w io.Writer) io.Writer {
	return &remoteLogger{wr: w}
}

func (l *remoteLogger) Write(b []byte) (n int, err error) {
	msg := loggerMessage{
		ID:        env.MessageDefaultID,
		MsgType:   cmd,
		Timestamp: time.Now().Format(env.TimeFormat),
	}

	msg.Data.Message = strings.TrimSuffix(string(b), "\n")
	msg.Data.Level = l.level
	raw, err := json.Marshal(msg)
	if err != nil {
		return 0, err
	}

	if _, err = l.wr.Write(raw); err != nil {
		return 0, err
	}
	return len(b), nil
}
