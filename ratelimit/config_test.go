// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yaml "gopkg.in/yaml.v3"
)

func TestDefaultConfigValid(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tx rate", func(c *Config) { c.MaxTxPerSecond = 0 }},
		{"zero tx size", func(c *Config) { c.MaxTxSizeBytes = 0 }},
		{"zero interval", func(c *Config) { c.MinBlockInterval = 0 }},
		{"negative interval", func(c *Config) { c.MinBlockInterval = -time.Second }},
		{"per-IP above total peers", func(c *Config) { c.MaxConnectionsPerIP = c.MaxPeers + 1 }},
		{"minute above hour", func(c *Config) { c.MaxRequestsPerMinute = c.MaxRequestsPerHour + 1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestConfigUnmarshalYAMLMergesDefaults(t *testing.T) {
	doc := `
maxTxPerSecond: 7
minBlockInterval: 3s
`
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.Equal(t, 7, cfg.MaxTxPerSecond)
	assert.Equal(t, 3*time.Second, cfg.MinBlockInterval)
	// untouched fields keep the defaults
	assert.Equal(t, DefaultConfig().MaxPeers, cfg.MaxPeers)
	assert.Equal(t, DefaultConfig().ConnectionTimeout, cfg.ConnectionTimeout)
}

func TestConfigUnmarshalYAMLBadDuration(t *testing.T) {
	cfg := DefaultConfig()
	assert.Error(t, yaml.Unmarshal([]byte("minBlockInterval: fast"), &cfg))
}
