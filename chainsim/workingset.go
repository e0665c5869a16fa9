// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chainsim

import (
	"fmt"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/jinzhu/copier"
)

// workingSet holds deep copies of the accounts a transaction touches.
// Programs mutate the copies; nothing reaches the ledger until commit, so
// a failed transaction leaves no trace.
type workingSet struct {
	ledger  *Ledger
	touched map[chain.Pubkey]*chain.Account
}

func newWorkingSet(ledger *Ledger) *workingSet {
	return &workingSet{
		ledger:  ledger,
		touched: make(map[chain.Pubkey]*chain.Account),
	}
}

// account returns the working copy for a key, cloning it from the ledger
// on first touch. Returns nil for accounts that do not exist.
func (ws *workingSet) account(key chain.Pubkey) *chain.Account {
	if acct, ok := ws.touched[key]; ok {
		return acct
	}
	stored, ok := ws.ledger.accounts[key]
	if !ok {
		return nil
	}
	clone := &chain.Account{}
	if err := copier.CopyWithOption(
		clone, stored, copier.Option{DeepCopy: true},
	); err != nil {
		// copier only fails on mismatched shapes, which chain.Account
		// cannot produce
		panic(fmt.Sprintf("account clone failed: %s", err))
	}
	ws.touched[key] = clone
	return clone
}

// adopt records an account created or replaced during execution
func (ws *workingSet) adopt(key chain.Pubkey, acct *chain.Account) {
	ws.touched[key] = acct
}

// commit writes all working copies back to the ledger. Accounts drained of
// lamports are reaped.
func (ws *workingSet) commit() {
	for key, acct := range ws.touched {
		if acct == nil || acct.Lamports == 0 {
			delete(ws.ledger.accounts, key)
			continue
		}
		ws.ledger.accounts[key] = acct
	}
}
