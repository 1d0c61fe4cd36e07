// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package log

import (
	"bytes"
	"log/slog"
	"math/big"
	"strings"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
)

func TestTerminalHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(NewTerminalHandler(&buf, false))

	l.Info("peer admitted", "ip", "10.0.0.1", "open", 3)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "[INFO ]"), out)
	assert.Contains(t, out, "peer admitted")
	assert.Contains(t, out, "ip=10.0.0.1")
	assert.Contains(t, out, "open=3")
}

func TestTerminalHandlerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	var lvl slog.LevelVar
	lvl.Set(LevelWarn)
	l := NewLogger(NewTerminalHandlerWithLevel(&buf, &lvl, false))

	l.Debug("hidden")
	l.Warn("visible")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "visible")
}

func TestLogfmtBigNumbers(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(LogfmtHandler(&buf))

	stake := new(big.Int).Mul(big.NewInt(25), big.NewInt(1e18))
	l.Info("stake updated", "stake", stake, "weight", uint256.NewInt(42))

	assert.Contains(t, buf.String(), "stake=25000000000000000000")
	assert.Contains(t, buf.String(), "weight=42")
}

func TestWithContext(t *testing.T) {
	var buf bytes.Buffer
	SetDefault(NewLogger(LogfmtHandler(&buf)))
	defer SetDefault(NewLogger(DiscardHandler()))

	logger := WithContext("pkg", "staker")
	logger.Info("validator registered")

	assert.Contains(t, buf.String(), "pkg=staker")
	assert.Contains(t, buf.String(), "validator registered")
}
