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
	"github.com/blinklabs-io/chunkwrite/chain"
)

// InvokeContext is the environment passed to a native program for one
// instruction. It satisfies program.Env.
type InvokeContext struct {
	ProgramID  chain.Pubkey
	Accounts   []*chain.AccountInfo
	Data       []byte
	workingSet *workingSet
}

// CreateAccount allocates a new account funded from the payer's working
// copy. The allocation is part of the enclosing transaction: it rolls back
// with everything else if a later instruction fails.
func (ic *InvokeContext) CreateAccount(
	payer *chain.AccountInfo,
	newAccount *chain.AccountInfo,
	lamports uint64,
	space uint64,
	owner chain.Pubkey,
) error {
	if newAccount.Account != nil {
		return ErrAccountExists
	}
	if payer.Account == nil || payer.Account.Lamports < lamports {
		return ErrInsufficientFunds
	}
	payer.Account.Lamports -= lamports
	acct := &chain.Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	}
	newAccount.Account = acct
	ic.workingSet.adopt(newAccount.Key, acct)
	return nil
}

// MinimumBalance returns the rent-exempt balance for the given data length
func (ic *InvokeContext) MinimumBalance(dataLen int) uint64 {
	return ic.workingSet.ledger.MinimumBalance(dataLen)
}
