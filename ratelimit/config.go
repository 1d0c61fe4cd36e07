// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ratelimit

import (
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"
)

// Config enumerates the admission thresholds. It is an immutable snapshot:
// build it once from genesis/config at startup and pass it by value.
type Config struct {
	MaxTxPerSecond       int           `yaml:"maxTxPerSecond" json:"maxTxPerSecond"`
	MaxTxPerBlock        int           `yaml:"maxTxPerBlock" json:"maxTxPerBlock"`
	MaxTxSizeBytes       uint64        `yaml:"maxTxSizeBytes" json:"maxTxSizeBytes"`
	MinBlockInterval     time.Duration `yaml:"minBlockInterval" json:"minBlockInterval"`
	MaxBlockSize         uint64        `yaml:"maxBlockSize" json:"maxBlockSize"`
	MaxPeers             int           `yaml:"maxPeers" json:"maxPeers"`
	MaxConnectionsPerIP  int           `yaml:"maxConnectionsPerIP" json:"maxConnectionsPerIP"`
	ConnectionTimeout    time.Duration `yaml:"connectionTimeout" json:"connectionTimeout"`
	MaxRequestsPerMinute int           `yaml:"maxRequestsPerMinute" json:"maxRequestsPerMinute"`
	MaxRequestsPerHour   int           `yaml:"maxRequestsPerHour" json:"maxRequestsPerHour"`
}

// DefaultConfig production defaults.
func DefaultConfig() Config {
	return Config{
		MaxTxPerSecond:       100,
		MaxTxPerBlock:        500,
		MaxTxSizeBytes:       64 * 1024,
		MinBlockInterval:     10 * time.Second,
		MaxBlockSize:         1024 * 1024,
		MaxPeers:             50,
		MaxConnectionsPerIP:  3,
		ConnectionTimeout:    30 * time.Second,
		MaxRequestsPerMinute: 600,
		MaxRequestsPerHour:   10000,
	}
}

// UnmarshalYAML decodes durations from strings like "10s". Fields absent
// from the document keep their current values, so decoding into a
// DefaultConfig() merges overrides on top of the defaults.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain struct {
		MaxTxPerSecond       int    `yaml:"maxTxPerSecond"`
		MaxTxPerBlock        int    `yaml:"maxTxPerBlock"`
		MaxTxSizeBytes       uint64 `yaml:"maxTxSizeBytes"`
		MinBlockInterval     string `yaml:"minBlockInterval"`
		MaxBlockSize         uint64 `yaml:"maxBlockSize"`
		MaxPeers             int    `yaml:"maxPeers"`
		MaxConnectionsPerIP  int    `yaml:"maxConnectionsPerIP"`
		ConnectionTimeout    string `yaml:"connectionTimeout"`
		MaxRequestsPerMinute int    `yaml:"maxRequestsPerMinute"`
		MaxRequestsPerHour   int    `yaml:"maxRequestsPerHour"`
	}
	raw := plain{
		MaxTxPerSecond:       c.MaxTxPerSecond,
		MaxTxPerBlock:        c.MaxTxPerBlock,
		MaxTxSizeBytes:       c.MaxTxSizeBytes,
		MinBlockInterval:     c.MinBlockInterval.String(),
		MaxBlockSize:         c.MaxBlockSize,
		MaxPeers:             c.MaxPeers,
		MaxConnectionsPerIP:  c.MaxConnectionsPerIP,
		ConnectionTimeout:    c.ConnectionTimeout.String(),
		MaxRequestsPerMinute: c.MaxRequestsPerMinute,
		MaxRequestsPerHour:   c.MaxRequestsPerHour,
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	minInterval, err := time.ParseDuration(raw.MinBlockInterval)
	if err != nil {
		return errors.Wrap(err, "minBlockInterval")
	}
	connTimeout, err := time.ParseDuration(raw.ConnectionTimeout)
	if err != nil {
		return errors.Wrap(err, "connectionTimeout")
	}

	c.MaxTxPerSecond = raw.MaxTxPerSecond
	c.MaxTxPerBlock = raw.MaxTxPerBlock
	c.MaxTxSizeBytes = raw.MaxTxSizeBytes
	c.MinBlockInterval = minInterval
	c.MaxBlockSize = raw.MaxBlockSize
	c.MaxPeers = raw.MaxPeers
	c.MaxConnectionsPerIP = raw.MaxConnectionsPerIP
	c.ConnectionTimeout = connTimeout
	c.MaxRequestsPerMinute = raw.MaxRequestsPerMinute
	c.MaxRequestsPerHour = raw.MaxRequestsPerHour
	return nil
}

// Validate rejects nonsensical thresholds. All limits must be positive;
// a zero limit would deny everything and is treated as a misconfiguration.
func (c Config) Validate() error {
	if c.MaxTxPerSecond <= 0 {
		return errors.New("maxTxPerSecond must be positive")
	}
	if c.MaxTxPerBlock <= 0 {
		return errors.New("maxTxPerBlock must be positive")
	}
	if c.MaxTxSizeBytes == 0 {
		return errors.New("maxTxSizeBytes must be positive")
	}
	if c.MinBlockInterval <= 0 {
		return errors.New("minBlockInterval must be positive")
	}
	if c.MaxBlockSize == 0 {
		return errors.New("maxBlockSize must be positive")
	}
	if c.MaxPeers <= 0 {
		return errors.New("maxPeers must be positive")
	}
	if c.MaxConnectionsPerIP <= 0 {
		return errors.New("maxConnectionsPerIP must be positive")
	}
	if c.MaxConnectionsPerIP > c.MaxPeers {
		return errors.Errorf("maxConnectionsPerIP %d exceeds maxPeers %d", c.MaxConnectionsPerIP, c.MaxPeers)
	}
	if c.ConnectionTimeout <= 0 {
		return errors.New("connectionTimeout must be positive")
	}
	if c.MaxRequestsPerMinute <= 0 {
		return errors.New("maxRequestsPerMinute must be positive")
	}
	if c.MaxRequestsPerHour <= 0 {
		return errors.New("maxRequestsPerHour must be positive")
	}
	if c.MaxRequestsPerMinute > c.MaxRequestsPerHour {
		return errors.Errorf("maxRequestsPerMinute %d exceeds maxRequestsPerHour %d", c.MaxRequestsPerMinute, c.MaxRequestsPerHour)
	}
	return nil
}
