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

package chain

import (
	"context"
	"errors"
)

// MaxAccountDataSize is the maximum size of a single account's data
const MaxAccountDataSize = 10 * 1024 * 1024

// SystemProgramID is the native program responsible for account creation
// and lamport transfers
var SystemProgramID = Pubkey{}

// ErrAccountNotFound indicates the requested account does not exist
var ErrAccountNotFound = errors.New("account not found")

// Account is the stored state of an on-chain account
type Account struct {
	Lamports   uint64
	Owner      Pubkey
	Data       []byte
	Executable bool
}

// AccountInfo is an account as presented to an executing program, carrying
// the per-instruction access flags alongside the mutable account state
type AccountInfo struct {
	Key        Pubkey
	IsSigner   bool
	IsWritable bool
	Account    *Account
}

// Submitter is the boundary between this library and the host network's
// transaction submission layer. Implementations submit a signed
// transaction and block until it is confirmed or rejected.
type Submitter interface {
	// SubmitTransaction submits the transaction and waits for confirmation,
	// returning its identifier. A non-nil error means the transaction did
	// not commit; callers must re-read on-chain state before retrying.
	SubmitTransaction(ctx context.Context, tx *Transaction) (Signature, error)
	// GetAccount fetches the current state of an account, or
	// ErrAccountNotFound
	GetAccount(ctx context.Context, key Pubkey) (*Account, error)
	// MinimumBalance returns the lamports needed to keep an account with
	// the given data length alive
	MinimumBalance(dataLen int) uint64
	// RecentBlockhash returns a blockhash suitable for new transactions
	RecentBlockhash(ctx context.Context) (Blockhash, error)
}
