// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package pos

import (
	"encoding/binary"
	"math/rand"

	"github.com/strandchain/strand/strand"
)

// SeededSource derives a deterministic rand source from a seed (typically a
// parent block hash) and a round number. Every node seeding from the same
// chain state draws the same selection sequence.
func SeededSource(seed []byte, round uint64) rand.Source {
	var num [8]byte
	binary.BigEndian.PutUint64(num[:], round)

	hashed := strand.Blake2b(seed, num[:])
	return rand.NewSource(int64(binary.LittleEndian.Uint64(hashed[:8])))
}
