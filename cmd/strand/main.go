// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"fmt"
	"os"

	cli "gopkg.in/urfave/cli.v1"

	"github.com/strandchain/strand/admin"
	"github.com/strandchain/strand/api"
	"github.com/strandchain/strand/cmd/strand/node"
	"github.com/strandchain/strand/consensus"
	"github.com/strandchain/strand/log"
	"github.com/strandchain/strand/metrics"
	"github.com/strandchain/strand/pos"
	"github.com/strandchain/strand/ratelimit"
	"github.com/strandchain/strand/staker"
)

var (
	version   string
	gitCommit string
	gitTag    string

	logger = log.WithContext("pkg", "main")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func main() {
	app := cli.App{
		Version:   fullVersion(),
		Name:      "Strand",
		Usage:     "Proof-of-stake validator node",
		Copyright: "2025 The Strand developers",
		Flags: []cli.Flag{
			configFlag,
			seedFlag,
			apiAddrFlag,
			apiCorsFlag,
			enableAPILogsFlag,
			verbosityFlag,
			jsonLogsFlag,
			enableMetricsFlag,
			metricsAddrFlag,
			enableAdminFlag,
			adminAddrFlag,
		},
		Action: defaultAction,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultAction(ctx *cli.Context) error {
	defer func() { logger.Info("exited") }()

	logLevel := initLogger(ctx)

	cfg, err := loadConfig(ctx.String(configFlag.Name))
	if err != nil {
		return err
	}
	minStake, err := cfg.minimumStake()
	if err != nil {
		return err
	}
	blockReward, err := cfg.blockReward()
	if err != nil {
		return err
	}

	limiter, err := ratelimit.New(cfg.Limits)
	if err != nil {
		return err
	}

	src, err := selectorSource(ctx)
	if err != nil {
		return err
	}

	registry := staker.NewRegistry(minStake)
	defer registry.Close()

	cons := consensus.New(registry, pos.NewSelectorWithSource(registry, src), limiter)

	var metricsURL string
	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return err
		}
		metricsURL = url
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
	}

	var adminURL string
	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := admin.StartServer(ctx.String(adminAddrFlag.Name), logLevel, cfg.Limits)
		if err != nil {
			return err
		}
		adminURL = url
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
	}

	apiHandler, closeAPIHandler := api.New(cons, api.Options{
		AllowedOrigins:  ctx.String(apiCorsFlag.Name),
		EnableReqLogger: ctx.Bool(enableAPILogsFlag.Name),
	})
	defer closeAPIHandler()

	apiURL, closeAPIServer, err := startAPIServer(ctx.String(apiAddrFlag.Name), apiHandler)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); closeAPIServer() }()

	printStartupMessage(apiURL, metricsURL, adminURL, minStake)

	return node.New(cons, node.Options{BlockReward: blockReward}).
		Run(handleExitSignal())
}
