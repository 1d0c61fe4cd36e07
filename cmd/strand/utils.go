// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"math/rand"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/strandchain/strand/co"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/metrics"
	"github.com/strandchain/strand/pos"
)

func initLogger(ctx *cli.Context) *slog.LevelVar {
	logLevel := log.FromLegacyLevel(int(ctx.Uint64(verbosityFlag.Name)))
	verbosity := &slog.LevelVar{}
	verbosity.Set(logLevel)

	var handler slog.Handler
	if ctx.Bool(jsonLogsFlag.Name) {
		handler = log.JSONHandlerWithLevel(os.Stdout, verbosity)
	} else {
		useColor := isatty.IsTerminal(os.Stderr.Fd()) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, verbosity, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return verbosity
}

// selectorSource builds the selection PRNG source. With --seed the producer
// sequence is reproducible across restarts.
func selectorSource(ctx *cli.Context) (rand.Source, error) {
	seedHex := ctx.String(seedFlag.Name)
	if seedHex == "" {
		return rand.NewSource(time.Now().UnixNano()), nil
	}
	if len(seedHex) >= 2 && seedHex[:2] == "0x" {
		seedHex = seedHex[2:]
	}
	seed, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid seed")
	}
	return pos.SeededSource(seed, 0), nil
}

func startAPIServer(addr string, handler http.HandlerFunc) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Shutdown(context.Background())
		goes.Wait()
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func handleExitSignal() context.Context {
	exitSignalCh := make(chan os.Signal, 1)
	signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

func printStartupMessage(apiURL, metricsURL, adminURL string, minStake fmt.Stringer) {
	fmt.Printf(`Starting %v
    Network       [ proof-of-stake single node ]
    Min stake     [ %v ]
    API portal    [ %v ]
`,
		"Strand",
		minStake,
		apiURL)
	if metricsURL != "" {
		fmt.Printf("    Metrics       [ %v ]\n", metricsURL)
	}
	if adminURL != "" {
		fmt.Printf("    Admin         [ %v ]\n", adminURL)
	}
}
