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
	"testing"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteInstructionRoundTrip(t *testing.T) {
	ix := NewWriteInstruction([]byte("seed"), 254, 1024, []byte("chunk data"))
	data, err := ix.Encode()
	require.NoError(t, err)
	assert.Equal(t, uint8(InstructionTypeWrite), data[0])
	decoded, err := InstructionFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, ix, decoded)
}

func TestWriteInstructionEmptyChunk(t *testing.T) {
	ix := NewWriteInstruction(nil, 255, 0, nil)
	data, err := ix.Encode()
	require.NoError(t, err)
	decoded, err := InstructionFromBytes(data)
	require.NoError(t, err)
	w := decoded.(*WriteInstruction)
	assert.Empty(t, w.Data)
	assert.Equal(t, uint64(0), w.Offset)
}

func TestCloseInstructionRoundTrip(t *testing.T) {
	ix := NewCloseInstruction([]byte("s"), 7)
	data, err := ix.Encode()
	require.NoError(t, err)
	decoded, err := InstructionFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, ix, decoded)
}

func TestCloseInstructionTrailingBytes(t *testing.T) {
	ix := NewCloseInstruction(nil, 1)
	data, err := ix.Encode()
	require.NoError(t, err)
	_, err = InstructionFromBytes(append(data, 0x00))
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestInitializeInstructionRoundTrip(t *testing.T) {
	var target chain.Pubkey
	for i := range target {
		target[i] = uint8(i)
	}
	ix := NewInitializeInstruction([]byte("abc"), 250, 4096, 4000, target)
	data, err := ix.Encode()
	require.NoError(t, err)
	decoded, err := InstructionFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, ix, decoded)
}

func TestInstructionFromBytesInvalid(t *testing.T) {
	_, err := InstructionFromBytes(nil)
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	// Unknown discriminant
	_, err = InstructionFromBytes([]byte{0x7f})
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	var unknown UnknownInstructionError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint8(0x7f), unknown.Type)
	// Truncated addressing
	_, err = InstructionFromBytes([]byte{InstructionTypeWrite, 10, 1, 2})
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
	// Write without offset
	_, err = InstructionFromBytes([]byte{InstructionTypeWrite, 0, 1})
	assert.ErrorIs(t, err, ErrInvalidInstructionData)
}

func TestSeedTooLong(t *testing.T) {
	seed := make([]byte, MaxSeedLength+1)
	ix := NewWriteInstruction(seed, 1, 0, nil)
	_, err := ix.Encode()
	assert.ErrorIs(t, err, chain.ErrSeedTooLong)
}

func TestBuildInstructionAccounts(t *testing.T) {
	payerKp, err := chain.NewKeypair()
	require.NoError(t, err)
	programKp, err := chain.NewKeypair()
	require.NoError(t, err)
	payer := payerKp.Pubkey()
	writeProgram := programKp.Pubkey()
	account, _, err := chain.FindProgramAddress(
		[][]byte{payer[:], []byte("x")},
		writeProgram,
	)
	require.NoError(t, err)
	built, err := BuildInstruction(
		writeProgram,
		payer,
		account,
		NewCloseInstruction([]byte("x"), 0),
	)
	require.NoError(t, err)
	assert.Equal(t, writeProgram, built.ProgramID)
	require.Len(t, built.Accounts, 3)
	assert.True(t, built.Accounts[0].IsSigner)
	assert.Equal(t, payer, built.Accounts[0].Pubkey)
	assert.Equal(t, account, built.Accounts[1].Pubkey)
	assert.True(t, built.Accounts[1].IsWritable)
	assert.Equal(t, chain.SystemProgramID, built.Accounts[2].Pubkey)
}
