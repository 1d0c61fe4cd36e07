// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/strandchain/strand/co"
)

// RequestLogger logs requests to an output
type RequestLogger struct {
	enabled    bool
	writerChan chan entry
	stopChan   chan struct{}
	out        io.Writer
	goes       co.Goes
}

type entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Method     string    `json:"method"`
	URI        string    `json:"uri"`
	RemoteAddr string    `json:"remoteAddr"`
	Body       string    `json:"body,omitempty"`
}

func NewRequestLogger(enabled bool, out io.Writer) *RequestLogger {
	l := &RequestLogger{
		enabled:    enabled,
		out:        out,
		writerChan: make(chan entry, 100_000),
		stopChan:   make(chan struct{}),
	}
	if enabled {
		l.goes.Go(l.drain)
	}
	return l
}

func (l *RequestLogger) Enabled() bool {
	return l.enabled
}

// Handle returns an http handler to ensure requests are syphoned into the writer
func (l *RequestLogger) Handle(handler http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		// the body can only be read once; restore it for the next handler
		var bodyBytes []byte
		var err error
		if r.Body != nil {
			bodyBytes, err = io.ReadAll(r.Body)
			if err != nil {
				logger.Warn("unexpected body read error", "err", err)
				return // don't pass bad request to the next handler
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}

		select {
		case l.writerChan <- entry{
			Timestamp:  time.Now(),
			Method:     r.Method,
			URI:        r.URL.String(),
			RemoteAddr: r.RemoteAddr,
			Body:       string(bodyBytes),
		}:
		default:
			// never block request handling on a saturated log queue
		}

		handler.ServeHTTP(w, r)
	}
	return http.HandlerFunc(fn)
}

func (l *RequestLogger) drain() {
	enc := json.NewEncoder(l.out)
	for {
		select {
		case e := <-l.writerChan:
			if err := enc.Encode(e); err != nil {
				logger.Warn("request log write failed", "err", err)
			}
		case <-l.stopChan:
			return
		}
	}
}

// Stop stops the draining goroutine.
func (l *RequestLogger) Stop() {
	if l.enabled {
		close(l.stopChan)
		l.goes.Wait()
	}
}
