// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"math/big"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/strandchain/strand/ratelimit"
	"github.com/strandchain/strand/strand"
)

// fileConfig is the YAML config file shape. Stake amounts are decimal
// strings since they exceed uint64.
type fileConfig struct {
	MinimumStake string           `yaml:"minimumStake"`
	BlockReward  string           `yaml:"blockReward"`
	Limits       ratelimit.Config `yaml:"limits"`
}

func loadConfig(path string) (*fileConfig, error) {
	cfg := &fileConfig{Limits: ratelimit.DefaultConfig()}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config file [%v]", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config file [%v]", path)
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid limits in config file [%v]", path)
	}
	return cfg, nil
}

func (c *fileConfig) minimumStake() (*big.Int, error) {
	return parseStakeAmount(c.MinimumStake, strand.InitialMinimumStake)
}

func (c *fileConfig) blockReward() (*big.Int, error) {
	return parseStakeAmount(c.BlockReward, strand.InitialBlockReward)
}

func parseStakeAmount(s string, fallback *big.Int) (*big.Int, error) {
	if s == "" {
		return fallback, nil
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, errors.Errorf("invalid amount [%v]", s)
	}
	if v.Sign() < 0 {
		return nil, errors.Errorf("negative amount [%v]", s)
	}
	return v, nil
}
