// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"io"
	"net"
	"net/http"
	"os"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/strandchain/strand/api/health"
	"github.com/strandchain/strand/api/utils"
	"github.com/strandchain/strand/api/validators"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/staker"
)

var logger = log.WithContext("pkg", "api")

// Node is the view of the validator core the API serves from.
type Node interface {
	ActiveValidators() []*staker.Validator
	CanMakeAPIRequest(ip string) bool
}

// Options options for the API surface.
type Options struct {
	AllowedOrigins  string
	EnableReqLogger bool
	ReqLoggerWriter io.Writer
}

// New return api router. The returned func releases the request logger.
func New(node Node, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()
	health.NewAPI(health.New(node)).Mount(router, "/health")
	validators.New(node).Mount(router, "/validators")

	handler := admissionGate(node, router)

	if opts.ReqLoggerWriter == nil {
		opts.ReqLoggerWriter = os.Stdout
	}
	reqLogger := NewRequestLogger(opts.EnableReqLogger, opts.ReqLoggerWriter)
	if reqLogger.Enabled() {
		handler = reqLogger.Handle(handler)
	}

	handler = handlers.CompressHandlerLevel(handler, gzipCompressionLevel)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type"}),
		handlers.ExposedHeaders([]string{"x-strand-ver"}),
	)(handler)

	return handler.ServeHTTP, reqLogger.Stop
}

const gzipCompressionLevel = 6

// admissionGate fronts every route with the per-IP API rate limit.
func admissionGate(node Node, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := clientIP(r)
		if !node.CanMakeAPIRequest(ip) {
			w.WriteHeader(http.StatusTooManyRequests)
			utils.WriteJSON(w, utils.M{"error": "rate limited"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
