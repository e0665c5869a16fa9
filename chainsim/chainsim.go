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

// Package chainsim provides an in-memory ledger runtime implementing
// chain.Submitter, for tests and examples. It executes each transaction
// atomically (all account mutations commit together or roll back
// together) and serializes all execution through a single goroutine,
// matching the host network's per-account write locking guarantees.
package chainsim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/jinzhu/copier"
	"golang.org/x/crypto/blake2b"
)

// ProgramFunc is a native program implementation registered with the
// ledger
type ProgramFunc func(ictx *InvokeContext) error

// Ledger is an in-memory ledger runtime
type Ledger struct {
	logger       *slog.Logger
	rentPerByte  uint64
	rentBase     uint64
	programs     map[chain.Pubkey]ProgramFunc
	accounts     map[chain.Pubkey]*chain.Account
	executed     map[chain.Signature]error
	committed    int
	blockhash    chain.Blockhash
	mutex        sync.RWMutex
	submitChan   chan *submitRequest
	doneChan     chan struct{}
	onceClose    sync.Once
	failPending  []failure
	failureMutex sync.Mutex
}

type failure struct {
	err         error
	afterCommit bool
}

type submitRequest struct {
	tx         *chain.Transaction
	resultChan chan error
}

// NewLedger creates a new ledger runtime and starts its executor
func NewLedger(options ...LedgerOptionFunc) *Ledger {
	l := &Ledger{
		rentPerByte: 6960,
		rentBase:    890880,
		programs:    make(map[chain.Pubkey]ProgramFunc),
		accounts:    make(map[chain.Pubkey]*chain.Account),
		executed:    make(map[chain.Signature]error),
		submitChan:  make(chan *submitRequest),
		doneChan:    make(chan struct{}),
	}
	for _, option := range options {
		option(l)
	}
	if l.logger == nil {
		l.logger = slog.Default()
	}
	go l.executorLoop()
	return l
}

// Close shuts down the executor. Pending submissions fail with
// ErrLedgerClosed.
func (l *Ledger) Close() {
	l.onceClose.Do(func() {
		close(l.doneChan)
	})
}

// RegisterProgram installs a native program at the given address
func (l *Ledger) RegisterProgram(programID chain.Pubkey, fn ProgramFunc) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	l.programs[programID] = fn
	l.accounts[programID] = &chain.Account{
		Lamports:   1,
		Owner:      chain.SystemProgramID,
		Executable: true,
	}
}

// Fund credits lamports to an account, creating it if needed
func (l *Ledger) Fund(key chain.Pubkey, lamports uint64) {
	l.mutex.Lock()
	defer l.mutex.Unlock()
	acct, ok := l.accounts[key]
	if !ok {
		acct = &chain.Account{Owner: chain.SystemProgramID}
		l.accounts[key] = acct
	}
	acct.Lamports += lamports
}

// CommittedTransactions returns how many transactions have committed
func (l *Ledger) CommittedTransactions() int {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.committed
}

// Balance returns the lamport balance of an account, zero if missing
func (l *Ledger) Balance(key chain.Pubkey) uint64 {
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	if acct, ok := l.accounts[key]; ok {
		return acct.Lamports
	}
	return 0
}

// FailNextSubmit queues n submission failures with the given error. The
// transactions are dropped before execution, modeling a network error on
// the way in.
func (l *Ledger) FailNextSubmit(n int, err error) {
	l.failureMutex.Lock()
	defer l.failureMutex.Unlock()
	for i := 0; i < n; i++ {
		l.failPending = append(l.failPending, failure{err: err})
	}
}

// FailNextConfirm queues n confirmation failures with the given error. The
// transactions execute and commit, but the submitter reports the error,
// modeling a confirmation timeout on a transaction that actually landed.
func (l *Ledger) FailNextConfirm(n int, err error) {
	l.failureMutex.Lock()
	defer l.failureMutex.Unlock()
	for i := 0; i < n; i++ {
		l.failPending = append(
			l.failPending, failure{err: err, afterCommit: true},
		)
	}
}

// SubmitTransaction implements chain.Submitter. It blocks until the
// transaction is executed (or rejected) by the executor.
func (l *Ledger) SubmitTransaction(
	ctx context.Context,
	tx *chain.Transaction,
) (chain.Signature, error) {
	req := &submitRequest{
		tx:         tx,
		resultChan: make(chan error, 1),
	}
	select {
	case l.submitChan <- req:
	case <-l.doneChan:
		return chain.Signature{}, ErrLedgerClosed
	case <-ctx.Done():
		return chain.Signature{}, ctx.Err()
	}
	select {
	case err := <-req.resultChan:
		if err != nil {
			return chain.Signature{}, err
		}
		return tx.ID(), nil
	case <-ctx.Done():
		return chain.Signature{}, ctx.Err()
	}
}

// GetAccount implements chain.Submitter. The returned account is a deep
// copy and safe to retain.
func (l *Ledger) GetAccount(
	ctx context.Context,
	key chain.Pubkey,
) (*chain.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	acct, ok := l.accounts[key]
	if !ok {
		return nil, chain.ErrAccountNotFound
	}
	ret := &chain.Account{}
	if err := copier.CopyWithOption(
		ret, acct, copier.Option{DeepCopy: true},
	); err != nil {
		return nil, fmt.Errorf("copy account: %w", err)
	}
	return ret, nil
}

// MinimumBalance implements chain.Submitter with a linear rent model
func (l *Ledger) MinimumBalance(dataLen int) uint64 {
	return l.rentBase + l.rentPerByte*uint64(dataLen) // #nosec G115
}

// RecentBlockhash implements chain.Submitter
func (l *Ledger) RecentBlockhash(
	ctx context.Context,
) (chain.Blockhash, error) {
	if err := ctx.Err(); err != nil {
		return chain.Blockhash{}, err
	}
	l.mutex.RLock()
	defer l.mutex.RUnlock()
	return l.blockhash, nil
}

func (l *Ledger) executorLoop() {
	for {
		select {
		case <-l.doneChan:
			return
		case req := <-l.submitChan:
			req.resultChan <- l.execute(req.tx)
		}
	}
}

// nextFailure pops a queued fault injection, if any
func (l *Ledger) nextFailure() (failure, bool) {
	l.failureMutex.Lock()
	defer l.failureMutex.Unlock()
	if len(l.failPending) == 0 {
		return failure{}, false
	}
	f := l.failPending[0]
	l.failPending = l.failPending[1:]
	return f, true
}

// execute runs a single transaction atomically: all instructions apply to
// working copies of the referenced accounts, which are committed only if
// every instruction succeeds
func (l *Ledger) execute(tx *chain.Transaction) error {
	fail, injected := l.nextFailure()
	if injected && !fail.afterCommit {
		return fail.err
	}
	err := l.executeCommit(tx)
	if err == nil && injected && fail.afterCommit {
		return fail.err
	}
	return err
}

func (l *Ledger) executeCommit(tx *chain.Transaction) error {
	size, err := tx.Size()
	if err != nil {
		return err
	}
	if size > chain.MaxTransactionSize {
		return chain.ErrTransactionTooLarge
	}
	if err := tx.Verify(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSignature, err)
	}
	l.mutex.Lock()
	defer l.mutex.Unlock()
	// Re-submission of an already-processed transaction returns its
	// recorded result without re-executing
	if result, ok := l.executed[tx.ID()]; ok {
		return result
	}
	ws := newWorkingSet(l)
	err = l.runInstructions(tx, ws)
	l.executed[tx.ID()] = err
	if err != nil {
		l.logger.Debug(
			"transaction failed",
			"component", "chainsim",
			"tx", tx.ID().String(),
			"error", err,
		)
		return err
	}
	ws.commit()
	l.committed++
	l.blockhash = nextBlockhash(l.blockhash, tx.ID())
	l.logger.Debug(
		"transaction committed",
		"component", "chainsim",
		"tx", tx.ID().String(),
		"instructions", len(tx.Instructions),
	)
	return nil
}

func (l *Ledger) runInstructions(tx *chain.Transaction, ws *workingSet) error {
	for i, ix := range tx.Instructions {
		fn, ok := l.programs[ix.ProgramID]
		if !ok {
			return fmt.Errorf(
				"instruction %d: %w: %s",
				i,
				ErrUnknownProgram,
				ix.ProgramID,
			)
		}
		infos := make([]*chain.AccountInfo, len(ix.Accounts))
		for j, meta := range ix.Accounts {
			infos[j] = &chain.AccountInfo{
				Key: meta.Pubkey,
				// A claimed signer flag only holds if the key actually
				// signed this transaction
				IsSigner:   meta.IsSigner && tx.SignerFor(meta.Pubkey),
				IsWritable: meta.IsWritable,
				Account:    ws.account(meta.Pubkey),
			}
		}
		ictx := &InvokeContext{
			ProgramID:  ix.ProgramID,
			Accounts:   infos,
			Data:       ix.Data,
			workingSet: ws,
		}
		if err := fn(ictx); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		// Propagate accounts created by the instruction into later
		// instructions' views
		for j, meta := range ix.Accounts {
			if infos[j].Account != nil {
				ws.adopt(meta.Pubkey, infos[j].Account)
			}
		}
	}
	return nil
}

// nextBlockhash chains the running blockhash over executed transactions
func nextBlockhash(prev chain.Blockhash, txID chain.Signature) chain.Blockhash {
	h, _ := blake2b.New256(nil)
	h.Write(prev[:])
	h.Write(txID[:])
	var ret chain.Blockhash
	copy(ret[:], h.Sum(nil))
	return ret
}

var _ chain.Submitter = (*Ledger)(nil)

var (
	ErrLedgerClosed      = errors.New("ledger is shut down")
	ErrUnknownProgram    = errors.New("unknown program")
	ErrInvalidSignature  = errors.New("invalid transaction signature")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAccountExists     = errors.New("account already exists")
)
