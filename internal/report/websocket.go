package report

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/SyntropyNet/syntropy-ping/internal/config"
	"github.com/SyntropyNet/syntropy-ping/internal/logger"
	"github.com/gorilla/websocket"
)

const (
	stopped = iota
	running
)

const writeTimeout = 5 * time.Second

// WSWriter sends every Write as a websocket text message
type WSWriter struct {
	sync.Mutex
	state uint32 // atomic state: 1 running, 0 closed
	ws    *websocket.Conn
}

// Dial connects report websocket. token is sent in authorization header, if set.
func Dial(ctx context.Context, url, token string) (*WSWriter, error) {
	headers := http.Header(make(map[string][]string))
	if token != "" {
		headers.Set("authorization", token)
	}
	headers.Set("user-agent", config.GetUserAgent())

	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, url, headers)
	if err != nil {
		var httpCode int
		if resp != nil {
			httpCode = resp.StatusCode
		}
		logger.Error().Printf("%s WSS dialer error: %s (HTTP: %d)\n", pkgName, err, httpCode)
		return nil, err
	}

	return &WSWriter{ws: ws, state: running}, nil
}

func (w *WSWriter) Write(b []byte) (n int, err error) {
	if atomic.LoadUint32(&w.state) == stopped {
		return 0, fmt.Errorf("report connection is closed")
	}
	/*
		gorilla/websocket concurency:
			Connections support one concurrent reader and one concurrent writer.
			Applications are responsible for ensuring that no more than one goroutine calls the write methods
	*/
	w.Lock()
	defer w.Unlock()

	w.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	err = w.ws.WriteMessage(websocket.TextMessage, b)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close closes websocket connection gracefully
func (w *WSWriter) Close() error {
	if !atomic.CompareAndSwapUint32(&w.state, running, stopped) {
		// cannot close already closed connection
		return fmt.Errorf("report connection already closed")
	}

	w.Lock()
	defer w.Unlock()

	err := w.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeTimeout))
	if err != nil {
		logger.Debug().Println(pkgName, "write close:", err)
	}

	return w.ws.Close()
}
