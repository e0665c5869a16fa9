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

package program

import (
	"fmt"
	"log/slog"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/blinklabs-io/chunkwrite/chunkaccount"
)

// Env is the interface to the host runtime facilities the processor needs
// beyond the accounts passed to the instruction
type Env interface {
	// CreateAccount allocates a new account with the given data size and
	// owner, funding it with lamports drawn from the payer
	CreateAccount(
		payer *chain.AccountInfo,
		newAccount *chain.AccountInfo,
		lamports uint64,
		space uint64,
		owner chain.Pubkey,
	) error
	// MinimumBalance returns the lamports needed to keep an account with
	// the given data length alive
	MinimumBalance(dataLen int) uint64
}

// Processor validates and applies write-account program instructions. All
// state lives in the chunk account itself; the processor holds only its
// program identity and a logger, so a single instance is safe for any
// number of accounts. The host runtime serializes transactions touching
// the same account, so no locking is needed here.
type Processor struct {
	programID chain.Pubkey
	logger    *slog.Logger
}

// NewProcessor returns a processor executing as the given program id
func NewProcessor(programID chain.Pubkey, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		programID: programID,
		logger:    logger,
	}
}

// ProgramID returns the program identity the processor executes as
func (p *Processor) ProgramID() chain.Pubkey {
	return p.programID
}

// Process applies a single instruction to the referenced accounts. The
// expected accounts are the payer (signer), the chunk account, and the
// system allocator. Any returned error aborts the enclosing transaction.
func (p *Processor) Process(
	env Env,
	accounts []*chain.AccountInfo,
	data []byte,
) error {
	ix, err := InstructionFromBytes(data)
	if err != nil {
		return err
	}
	if len(accounts) < 2 {
		return ErrNotEnoughAccounts
	}
	payer := accounts[0]
	writeAcc := accounts[1]
	if !payer.IsSigner {
		return ErrMissingSigner
	}
	// The chunk account address must be the PDA derived from the payer and
	// the instruction's seed. This ties write authority to the payer before
	// the account even exists.
	switch ix := ix.(type) {
	case *InitializeInstruction:
		if err := p.checkAddress(&ix.Addressing, payer, writeAcc); err != nil {
			return err
		}
		return p.initialize(env, payer, writeAcc, ix)
	case *WriteInstruction:
		if err := p.checkAddress(&ix.Addressing, payer, writeAcc); err != nil {
			return err
		}
		return p.write(payer, writeAcc, ix)
	case *CloseInstruction:
		if err := p.checkAddress(&ix.Addressing, payer, writeAcc); err != nil {
			return err
		}
		return p.close(payer, writeAcc)
	default:
		return ErrInvalidInstructionData
	}
}

func (p *Processor) checkAddress(
	addr *Addressing,
	payer *chain.AccountInfo,
	writeAcc *chain.AccountInfo,
) error {
	derived, err := addr.DeriveAccount(p.programID, payer.Key)
	if err != nil {
		return fmt.Errorf("derive chunk account: %w", err)
	}
	if derived != writeAcc.Key {
		return ErrWrongAccount
	}
	if !writeAcc.IsWritable {
		return ErrWrongAccount
	}
	return nil
}

func (p *Processor) initialize(
	env Env,
	payer *chain.AccountInfo,
	writeAcc *chain.AccountInfo,
	ix *InitializeInstruction,
) error {
	if ix.Capacity < ix.TotalLength {
		return CapacityTooSmallError{
			Capacity:    ix.Capacity,
			TotalLength: ix.TotalLength,
		}
	}
	// Bounded before computing the account size so a huge capacity cannot
	// wrap the sum
	if ix.Capacity > chain.MaxAccountDataSize-chunkaccount.HeaderSize {
		return ErrAccountTooLarge
	}
	space := chunkaccount.AccountSize(ix.Capacity)
	if writeAcc.Account == nil {
		lamports := env.MinimumBalance(int(space))
		if err := env.CreateAccount(
			payer, writeAcc, lamports, space, p.programID,
		); err != nil {
			return fmt.Errorf("create chunk account: %w", err)
		}
		p.logger.Debug(
			"created chunk account",
			"account", writeAcc.Key.String(),
			"space", space,
			"lamports", lamports,
		)
	} else {
		if writeAcc.Account.Owner != p.programID {
			return ErrInvalidOwner
		}
		if chunkaccount.IsInitialized(writeAcc.Account.Data) {
			return ErrAlreadyInitialized
		}
		if uint64(len(writeAcc.Account.Data)) < space {
			return CapacityTooSmallError{
				Capacity:    ix.Capacity,
				TotalLength: ix.TotalLength,
			}
		}
	}
	header := &chunkaccount.Header{
		Version:       chunkaccount.HeaderVersion,
		Writer:        payer.Key,
		TargetProgram: ix.TargetProgram,
		TotalLength:   ix.TotalLength,
	}
	if err := chunkaccount.EncodeHeader(header, writeAcc.Account.Data); err != nil {
		return err
	}
	p.logger.Debug(
		"initialized chunk account",
		"account", writeAcc.Key.String(),
		"writer", payer.Key.String(),
		"target", ix.TargetProgram.String(),
		"total_length", ix.TotalLength,
	)
	return nil
}

func (p *Processor) write(
	payer *chain.AccountInfo,
	writeAcc *chain.AccountInfo,
	ix *WriteInstruction,
) error {
	header, err := p.decodeHeader(writeAcc)
	if err != nil {
		return err
	}
	if header.Writer != payer.Key {
		return ErrUnauthorized
	}
	// A complete account accepts no further writes, not even empty ones
	if header.State() != chunkaccount.StateWriting {
		return ErrAlreadyComplete
	}
	if ix.Offset != header.WrittenOffset {
		return OutOfOrderWriteError{
			Expected: header.WrittenOffset,
			Got:      ix.Offset,
		}
	}
	end := ix.Offset + uint64(len(ix.Data))
	if end > header.TotalLength {
		return OverflowError{
			Offset:      ix.Offset,
			Length:      len(ix.Data),
			TotalLength: header.TotalLength,
		}
	}
	copy(
		writeAcc.Account.Data[chunkaccount.HeaderSize+ix.Offset:],
		ix.Data,
	)
	header.WrittenOffset = end
	if err := chunkaccount.EncodeHeader(header, writeAcc.Account.Data); err != nil {
		return err
	}
	p.logger.Debug(
		"wrote chunk",
		"account", writeAcc.Key.String(),
		"offset", ix.Offset,
		"length", len(ix.Data),
		"written_offset", header.WrittenOffset,
		"total_length", header.TotalLength,
	)
	return nil
}

func (p *Processor) close(
	payer *chain.AccountInfo,
	writeAcc *chain.AccountInfo,
) error {
	if writeAcc.Account == nil {
		return ErrNotInitialized
	}
	if writeAcc.Account.Owner != p.programID {
		return ErrInvalidOwner
	}
	// An allocated but never-initialized account has no recorded writer;
	// the PDA check already proved it belongs to the payer
	if chunkaccount.IsInitialized(writeAcc.Account.Data) {
		header, err := p.decodeHeader(writeAcc)
		if err != nil {
			return err
		}
		if header.Writer != payer.Key {
			return ErrUnauthorized
		}
	}
	refund := writeAcc.Account.Lamports
	payer.Account.Lamports += refund
	writeAcc.Account.Lamports = 0
	writeAcc.Account.Data = nil
	p.logger.Debug(
		"closed chunk account",
		"account", writeAcc.Key.String(),
		"refund", refund,
	)
	return nil
}

func (p *Processor) decodeHeader(
	writeAcc *chain.AccountInfo,
) (*chunkaccount.Header, error) {
	if writeAcc.Account == nil ||
		!chunkaccount.IsInitialized(writeAcc.Account.Data) {
		return nil, ErrNotInitialized
	}
	if writeAcc.Account.Owner != p.programID {
		return nil, ErrInvalidOwner
	}
	return chunkaccount.DecodeHeader(writeAcc.Account.Data)
}
