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

// Package reader is the target-program side of the chunked-write protocol.
// A program handed a chunk account must not trust its bytes until the
// account has been validated: the layout version must be recognized, the
// account must have been written for this program, and the payload must be
// complete. Read performs those checks and returns the payload as if it
// had arrived as the invocation's inline input.
package reader

import (
	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/blinklabs-io/chunkwrite/chunkaccount"
)

// Read validates the chunk account data and returns a view over its
// payload. The returned slice aliases the account data and must be treated
// as read-only. On any validation failure the caller must reject the
// invocation without touching the payload.
func Read(
	accountData []byte,
	executingProgram chain.Pubkey,
) ([]byte, error) {
	header, err := chunkaccount.DecodeHeader(accountData)
	if err != nil {
		return nil, err
	}
	if header.TargetProgram != executingProgram {
		return nil, WrongTargetProgramError{
			Expected: executingProgram,
			Got:      header.TargetProgram,
		}
	}
	if header.WrittenOffset < header.TotalLength {
		return nil, IncompleteError{
			Written: header.WrittenOffset,
			Total:   header.TotalLength,
		}
	}
	return chunkaccount.Payload(header, accountData)
}

// ReadFromWriter is Read with an additional check that the account was
// written by the expected identity, for calling conventions that require a
// specific uploader
func ReadFromWriter(
	accountData []byte,
	executingProgram chain.Pubkey,
	expectedWriter chain.Pubkey,
) ([]byte, error) {
	header, err := chunkaccount.DecodeHeader(accountData)
	if err != nil {
		return nil, err
	}
	if header.Writer != expectedWriter {
		return nil, WriterMismatchError{
			Expected: expectedWriter,
			Got:      header.Writer,
		}
	}
	return Read(accountData, executingProgram)
}

// InstructionData implements the staged-instruction calling convention:
// when a program is invoked with empty instruction data, the last account
// passed to it holds the real instruction data as a chunk account payload.
// It returns the remaining accounts and the validated payload. When the
// instruction data is non-empty it is returned unchanged along with all
// accounts.
func InstructionData(
	accounts []*chain.AccountInfo,
	instructionData []byte,
	executingProgram chain.Pubkey,
) ([]*chain.AccountInfo, []byte, error) {
	if len(instructionData) > 0 {
		return accounts, instructionData, nil
	}
	if len(accounts) == 0 {
		return nil, nil, ErrNoChunkAccount
	}
	last := accounts[len(accounts)-1]
	if last.Account == nil {
		return nil, nil, ErrNoChunkAccount
	}
	payload, err := Read(last.Account.Data, executingProgram)
	if err != nil {
		return nil, nil, err
	}
	return accounts[:len(accounts)-1], payload, nil
}
