// Copyright (c) 2025 The Strand developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package validators

import (
	"math/big"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/strandchain/strand/api/utils"
	"github.com/strandchain/strand/staker"
	"github.com/strandchain/strand/strand"
)

// Node is the view of the validator core this API serves from.
type Node interface {
	ActiveValidators() []*staker.Validator
}

// Validator is the JSON presentation of one active validator.
type Validator struct {
	Address       strand.Address `json:"address"`
	Stake         *big.Int       `json:"stake"`
	Status        string         `json:"status"`
	TotalBlocks   uint64         `json:"totalBlocks"`
	RewardsEarned *big.Int       `json:"rewardsEarned"`
	LastBlockTime *time.Time     `json:"lastBlockTime,omitempty"`
}

type API struct {
	node Node
}

func New(node Node) *API {
	return &API{node: node}
}

func (a *API) handleGetValidators(w http.ResponseWriter, _ *http.Request) error {
	active := a.node.ActiveValidators()
	out := make([]*Validator, 0, len(active))
	for _, v := range active {
		jv := &Validator{
			Address:       v.Address,
			Stake:         v.Stake,
			Status:        v.Status.String(),
			TotalBlocks:   v.TotalBlocks,
			RewardsEarned: v.RewardsEarned,
		}
		if !v.LastBlockTime.IsZero() {
			t := v.LastBlockTime
			jv.LastBlockTime = &t
		}
		out = append(out, jv)
	}
	return utils.WriteJSON(w, out)
}

func (a *API) Mount(root *mux.Router, pathPrefix string) {
	sub := root.PathPrefix(pathPrefix).Subrouter()
	sub.Path("").
		Methods(http.MethodGet).
		Name("validators").
		HandlerFunc(utils.WrapHandlerFunc(a.handleGetValidators))
}
