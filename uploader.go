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

// Package chunkwrite implements the client side of the chunked-write
// protocol: assembling a payload too large for a single transaction into
// an on-chain chunk account by splitting it into transaction-sized Write
// instructions against the write-account program. The payload can then be
// consumed by a target program through the reader package as if it had
// arrived as inline instruction data.
package chunkwrite

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/blinklabs-io/chunkwrite/chunkaccount"
	"github.com/blinklabs-io/chunkwrite/program"
)

// Uploader drives the chunked-write protocol: it sizes and initializes the
// chunk account, submits Write transactions in order until the payload is
// complete, and recovers from transient submission failures by re-reading
// the account's high-water mark and resuming from the first unwritten
// chunk. It never invokes the target program itself.
type Uploader struct {
	submitter    chain.Submitter
	keypair      *chain.Keypair
	writeProgram chain.Pubkey
	seed         []byte
	chunkSize    int
	maxRetries   int
	logger       *slog.Logger
	busyMutex    sync.Mutex
}

// NewUploader creates a new Uploader with the given options
func NewUploader(options ...UploaderOptionFunc) (*Uploader, error) {
	u := &Uploader{
		maxRetries: 3,
	}
	for _, option := range options {
		option(u)
	}
	if u.submitter == nil {
		return nil, ErrMissingSubmitter
	}
	if u.keypair == nil {
		return nil, ErrMissingKeypair
	}
	if u.writeProgram.IsZero() {
		return nil, ErrMissingWriteProgram
	}
	if len(u.seed) > program.MaxSeedLength {
		return nil, chain.ErrSeedTooLong
	}
	if u.chunkSize <= 0 {
		u.chunkSize = DefaultChunkSize(len(u.seed))
	}
	if u.logger == nil {
		u.logger = slog.Default()
	}
	return u, nil
}

// Begin starts a new upload of the payload for the given target program
// and drives it to completion. On failure it returns the upload handle
// along with the error; progress already confirmed on chain is durable and
// the handle can be passed to Resume. Begin is idempotent: if the derived
// chunk account already holds this upload's header, it picks up from the
// recorded high-water mark.
func (u *Uploader) Begin(
	ctx context.Context,
	payload []byte,
	targetProgram chain.Pubkey,
) (*Upload, error) {
	maxPayload := chain.MaxAccountDataSize - chunkaccount.HeaderSize
	if len(payload) > maxPayload {
		return nil, PayloadTooLargeError{
			Length: len(payload),
			Max:    maxPayload,
		}
	}
	payer := u.keypair.Pubkey()
	account, bump, err := chain.FindProgramAddress(
		[][]byte{payer[:], u.seed},
		u.writeProgram,
	)
	if err != nil {
		return nil, fmt.Errorf("derive chunk account: %w", err)
	}
	up := &Upload{
		Payer:         payer,
		Account:       account,
		Seed:          u.seed,
		Bump:          bump,
		TargetProgram: targetProgram,
		TotalLength:   uint64(len(payload)),
		ChunkSize:     u.chunkSize,
	}
	if err := u.run(ctx, up, payload); err != nil {
		return up, err
	}
	return up, nil
}

// Resume continues an interrupted upload from its handle. The payload must
// be the same bytes passed to Begin. Chunks already confirmed are never
// resubmitted.
func (u *Uploader) Resume(
	ctx context.Context,
	up *Upload,
	payload []byte,
) error {
	if uint64(len(payload)) != up.TotalLength {
		return PayloadLengthMismatchError{
			Expected: up.TotalLength,
			Got:      len(payload),
		}
	}
	return u.run(ctx, up, payload)
}

// Status reports the observed on-chain state of an upload. A missing
// account reports Closed.
func (u *Uploader) Status(ctx context.Context, up *Upload) (Status, error) {
	acct, err := u.submitter.GetAccount(ctx, up.Account)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return Status{
				State:       StateClosed,
				TotalLength: up.TotalLength,
			}, nil
		}
		return Status{}, err
	}
	if !chunkaccount.IsInitialized(acct.Data) {
		return Status{
			State:       StateWriting,
			TotalLength: up.TotalLength,
		}, nil
	}
	header, err := chunkaccount.DecodeHeader(acct.Data)
	if err != nil {
		return Status{}, err
	}
	st := Status{
		State:         StateWriting,
		WrittenOffset: header.WrittenOffset,
		TotalLength:   header.TotalLength,
	}
	if header.State() == chunkaccount.StateComplete {
		st.State = StateComplete
	}
	return st, nil
}

// Close closes the chunk account, reclaiming its lamports to the payer.
// Closing a partially written account abandons the upload.
func (u *Uploader) Close(ctx context.Context, up *Upload) error {
	u.busyMutex.Lock()
	defer u.busyMutex.Unlock()
	ix := program.NewCloseInstruction(up.Seed, up.Bump)
	if err := u.submit(ctx, up, ix); err != nil {
		return fmt.Errorf("close chunk account: %w", err)
	}
	u.logger.Debug(
		"closed chunk account",
		"component", "chunkwrite",
		"account", up.Account.String(),
	)
	return nil
}

// run drives the upload to completion: ensure the account is initialized,
// then walk the chunk plan from the account's high-water mark
func (u *Uploader) run(ctx context.Context, up *Upload, payload []byte) error {
	u.busyMutex.Lock()
	defer u.busyMutex.Unlock()
	written, initialized, err := u.fetchProgress(ctx, up)
	if err != nil {
		return err
	}
	if !initialized {
		ix := program.NewInitializeInstruction(
			up.Seed,
			up.Bump,
			up.TotalLength,
			up.TotalLength,
			up.TargetProgram,
		)
		if err := u.submit(ctx, up, ix); err != nil {
			return UploadAbortedError{Err: fmt.Errorf("initialize: %w", err)}
		}
		u.logger.Debug(
			"initialized chunk account",
			"component", "chunkwrite",
			"account", up.Account.String(),
			"total_length", up.TotalLength,
		)
	}
	chunker := NewChunker(payload, up.ChunkSize)
	chunker.SeekTo(written)
	up.NextOffset = written
	attempts := 0
	for {
		if err := ctx.Err(); err != nil {
			// Confirmed chunks persist; only the remaining loop is aborted
			return UploadAbortedError{
				WrittenOffset: up.NextOffset,
				Err:           err,
			}
		}
		chunk, ok := chunker.Next()
		if !ok {
			break
		}
		ix := program.NewWriteInstruction(
			up.Seed, up.Bump, chunk.Offset, chunk.Data,
		)
		if err := u.submit(ctx, up, ix); err != nil {
			written, _, ferr := u.fetchProgress(ctx, up)
			if ferr != nil {
				return UploadAbortedError{
					WrittenOffset: up.NextOffset,
					Err:           errors.Join(err, ferr),
				}
			}
			if written > chunk.Offset {
				// The write landed (or another submission of it did)
				// despite the error; continue from the true mark
				chunker.SeekTo(written)
				up.NextOffset = written
				attempts = 0
				continue
			}
			if isProtocolError(err) || ctx.Err() != nil {
				return UploadAbortedError{
					WrittenOffset: written,
					Err:           err,
				}
			}
			attempts++
			if attempts > u.maxRetries {
				return UploadAbortedError{
					WrittenOffset: written,
					Err:           err,
				}
			}
			u.logger.Debug(
				"retrying chunk after transient failure",
				"component", "chunkwrite",
				"account", up.Account.String(),
				"offset", chunk.Offset,
				"attempt", attempts,
				"error", err,
			)
			chunker.SeekTo(written)
			continue
		}
		attempts = 0
		up.NextOffset = chunk.Offset + uint64(len(chunk.Data))
		u.logger.Debug(
			"wrote chunk",
			"component", "chunkwrite",
			"account", up.Account.String(),
			"offset", chunk.Offset,
			"length", len(chunk.Data),
		)
	}
	return nil
}

// fetchProgress reads the chunk account and returns its high-water mark
// and whether it holds this upload's header
func (u *Uploader) fetchProgress(
	ctx context.Context,
	up *Upload,
) (uint64, bool, error) {
	acct, err := u.submitter.GetAccount(ctx, up.Account)
	if err != nil {
		if errors.Is(err, chain.ErrAccountNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("fetch chunk account: %w", err)
	}
	if !chunkaccount.IsInitialized(acct.Data) {
		return 0, false, nil
	}
	header, err := chunkaccount.DecodeHeader(acct.Data)
	if err != nil {
		return 0, false, err
	}
	// A used account is only ours if the whole header matches; a payload
	// is never layered over a previous upload
	if header.Writer != up.Payer ||
		header.TargetProgram != up.TargetProgram ||
		header.TotalLength != up.TotalLength {
		return 0, false, AccountInUseError{Account: up.Account}
	}
	return header.WrittenOffset, true, nil
}

// submit builds, signs, and submits a single-instruction transaction
func (u *Uploader) submit(
	ctx context.Context,
	up *Upload,
	ix program.Instruction,
) error {
	built, err := program.BuildInstruction(
		u.writeProgram, up.Payer, up.Account, ix,
	)
	if err != nil {
		return err
	}
	blockhash, err := u.submitter.RecentBlockhash(ctx)
	if err != nil {
		return fmt.Errorf("fetch blockhash: %w", err)
	}
	tx := chain.NewTransaction(up.Payer, blockhash, built)
	if err := tx.Sign(u.keypair); err != nil {
		return fmt.Errorf("sign transaction: %w", err)
	}
	size, err := tx.Size()
	if err != nil {
		return err
	}
	if size > chain.MaxTransactionSize {
		return chain.ErrTransactionTooLarge
	}
	if _, err := u.submitter.SubmitTransaction(ctx, tx); err != nil {
		return err
	}
	return nil
}
