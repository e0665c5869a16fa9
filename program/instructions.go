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

// Package program implements the write-account program: the on-chain state
// machine that assembles an oversized payload into a chunk account across
// many small transactions. It provides the binary instruction codec and
// the processor that validates and applies instructions against the
// account.
package program

import (
	"encoding/binary"
	"fmt"

	"github.com/blinklabs-io/chunkwrite/chain"
)

// Instruction types, dispatched on the leading discriminant byte
const (
	InstructionTypeWrite      = 0
	InstructionTypeClose      = 1
	InstructionTypeInitialize = 2
)

// MaxSeedLength is the maximum caller-supplied seed length for the chunk
// account PDA. One less than the network's seed limit, since the bump
// occupies its own seed slot alongside the payer key and caller seed.
const MaxSeedLength = chain.MaxSeedLength - 1

// Instruction is the common interface for write-account program
// instructions
type Instruction interface {
	Type() uint8
	Encode() ([]byte, error)
}

// Addressing carries the PDA derivation inputs present on every
// instruction. The chunk account address is derived from the seeds
// (payer key, Seed, Bump) under the write-account program id.
type Addressing struct {
	Seed []byte
	Bump uint8
}

// DeriveAccount returns the chunk account address for the given payer
// under the given write-account program
func (a *Addressing) DeriveAccount(
	writeProgram chain.Pubkey,
	payer chain.Pubkey,
) (chain.Pubkey, error) {
	return chain.CreateProgramAddress(
		[][]byte{payer[:], a.Seed, {a.Bump}},
		writeProgram,
	)
}

func (a *Addressing) encode(buf []byte) ([]byte, error) {
	if len(a.Seed) > MaxSeedLength {
		return nil, chain.ErrSeedTooLong
	}
	buf = append(buf, uint8(len(a.Seed)))
	buf = append(buf, a.Seed...)
	buf = append(buf, a.Bump)
	return buf, nil
}

func (a *Addressing) decode(data []byte) ([]byte, error) {
	if len(data) < 1 {
		return nil, ErrInvalidInstructionData
	}
	seedLen := int(data[0])
	if seedLen > MaxSeedLength {
		return nil, chain.ErrSeedTooLong
	}
	if len(data) < 1+seedLen+1 {
		return nil, ErrInvalidInstructionData
	}
	a.Seed = make([]byte, seedLen)
	copy(a.Seed, data[1:1+seedLen])
	a.Bump = data[1+seedLen]
	return data[1+seedLen+1:], nil
}

// InstructionFromBytes parses a write-account program instruction from its
// binary form
func InstructionFromBytes(data []byte) (Instruction, error) {
	if len(data) < 1 {
		return nil, ErrInvalidInstructionData
	}
	var ret interface {
		Instruction
		decodeBody([]byte) error
	}
	switch data[0] {
	case InstructionTypeWrite:
		ret = &WriteInstruction{}
	case InstructionTypeClose:
		ret = &CloseInstruction{}
	case InstructionTypeInitialize:
		ret = &InitializeInstruction{}
	default:
		return nil, UnknownInstructionError{Type: data[0]}
	}
	if err := ret.decodeBody(data[1:]); err != nil {
		return nil, err
	}
	return ret, nil
}

// InitializeInstruction allocates (if needed) and initializes a chunk
// account sized for `Capacity` payload bytes, declaring the final payload
// length and the program intended to consume it
type InitializeInstruction struct {
	Addressing
	Capacity      uint64
	TotalLength   uint64
	TargetProgram chain.Pubkey
}

func NewInitializeInstruction(
	seed []byte,
	bump uint8,
	capacity uint64,
	totalLength uint64,
	targetProgram chain.Pubkey,
) *InitializeInstruction {
	return &InitializeInstruction{
		Addressing:    Addressing{Seed: seed, Bump: bump},
		Capacity:      capacity,
		TotalLength:   totalLength,
		TargetProgram: targetProgram,
	}
}

func (i *InitializeInstruction) Type() uint8 {
	return InstructionTypeInitialize
}

func (i *InitializeInstruction) Encode() ([]byte, error) {
	buf := []byte{InstructionTypeInitialize}
	buf, err := i.Addressing.encode(buf)
	if err != nil {
		return nil, err
	}
	buf = binary.LittleEndian.AppendUint64(buf, i.Capacity)
	buf = binary.LittleEndian.AppendUint64(buf, i.TotalLength)
	buf = append(buf, i.TargetProgram[:]...)
	return buf, nil
}

func (i *InitializeInstruction) decodeBody(data []byte) error {
	rest, err := i.Addressing.decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 8+8+chain.PubkeySize {
		return ErrInvalidInstructionData
	}
	i.Capacity = binary.LittleEndian.Uint64(rest)
	i.TotalLength = binary.LittleEndian.Uint64(rest[8:])
	copy(i.TargetProgram[:], rest[16:])
	return nil
}

// WriteInstruction appends a chunk of payload bytes at the account's
// current high-water mark
type WriteInstruction struct {
	Addressing
	Offset uint64
	Data   []byte
}

func NewWriteInstruction(
	seed []byte,
	bump uint8,
	offset uint64,
	data []byte,
) *WriteInstruction {
	return &WriteInstruction{
		Addressing: Addressing{Seed: seed, Bump: bump},
		Offset:     offset,
		Data:       data,
	}
}

func (w *WriteInstruction) Type() uint8 {
	return InstructionTypeWrite
}

func (w *WriteInstruction) Encode() ([]byte, error) {
	buf := []byte{InstructionTypeWrite}
	buf, err := w.Addressing.encode(buf)
	if err != nil {
		return nil, err
	}
	buf = binary.LittleEndian.AppendUint64(buf, w.Offset)
	buf = append(buf, w.Data...)
	return buf, nil
}

func (w *WriteInstruction) decodeBody(data []byte) error {
	rest, err := w.Addressing.decode(data)
	if err != nil {
		return err
	}
	if len(rest) < 8 {
		return ErrInvalidInstructionData
	}
	w.Offset = binary.LittleEndian.Uint64(rest)
	w.Data = make([]byte, len(rest)-8)
	copy(w.Data, rest[8:])
	return nil
}

// CloseInstruction closes the chunk account and refunds its lamports to
// the writer. Abandoning a partially written account is allowed.
type CloseInstruction struct {
	Addressing
}

func NewCloseInstruction(seed []byte, bump uint8) *CloseInstruction {
	return &CloseInstruction{
		Addressing: Addressing{Seed: seed, Bump: bump},
	}
}

func (c *CloseInstruction) Type() uint8 {
	return InstructionTypeClose
}

func (c *CloseInstruction) Encode() ([]byte, error) {
	buf := []byte{InstructionTypeClose}
	return c.Addressing.encode(buf)
}

func (c *CloseInstruction) decodeBody(data []byte) error {
	rest, err := c.Addressing.decode(data)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return ErrInvalidInstructionData
	}
	return nil
}

// BuildInstruction wraps an encoded program instruction in a transaction
// instruction with the account references the program expects: the payer
// (writer) as signer, the chunk account, and the system allocator
func BuildInstruction(
	writeProgram chain.Pubkey,
	payer chain.Pubkey,
	writeAccount chain.Pubkey,
	ix Instruction,
) (chain.Instruction, error) {
	data, err := ix.Encode()
	if err != nil {
		return chain.Instruction{}, fmt.Errorf(
			"encode instruction: %w",
			err,
		)
	}
	return chain.Instruction{
		ProgramID: writeProgram,
		Accounts: []chain.AccountMeta{
			{Pubkey: payer, IsSigner: true, IsWritable: true},
			{Pubkey: writeAccount, IsWritable: true},
			{Pubkey: chain.SystemProgramID},
		},
		Data: data,
	}, nil
}
