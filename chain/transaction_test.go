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
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testInstruction(programID Pubkey, metas []AccountMeta, dataLen int) Instruction {
	return Instruction{
		ProgramID: programID,
		Accounts:  metas,
		Data:      make([]byte, dataLen),
	}
}

func TestTransactionSignVerify(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	programKp, err := NewKeypair()
	require.NoError(t, err)
	tx := NewTransaction(
		payer.Pubkey(),
		Blockhash{1, 2, 3},
		testInstruction(programKp.Pubkey(), nil, 16),
	)
	require.NoError(t, tx.Sign(payer))
	assert.NoError(t, tx.Verify())
	assert.NotEqual(t, Signature{}, tx.ID())
	// Tampering invalidates the signature
	tx.Instructions[0].Data[0] = 0xff
	assert.Error(t, tx.Verify())
}

func TestTransactionMissingSigner(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	other, err := NewKeypair()
	require.NoError(t, err)
	tx := NewTransaction(
		payer.Pubkey(),
		Blockhash{},
		testInstruction(other.Pubkey(), nil, 0),
	)
	assert.Error(t, tx.Sign(other))
}

func TestSignerFor(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	programKp, err := NewKeypair()
	require.NoError(t, err)
	tx := NewTransaction(
		payer.Pubkey(),
		Blockhash{},
		testInstruction(programKp.Pubkey(), nil, 0),
	)
	require.NoError(t, tx.Sign(payer))
	assert.True(t, tx.SignerFor(payer.Pubkey()))
	assert.False(t, tx.SignerFor(programKp.Pubkey()))
}

func TestCompileAccountsDeduplication(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	programKp, err := NewKeypair()
	require.NoError(t, err)
	acctKp, err := NewKeypair()
	require.NoError(t, err)
	metas := []AccountMeta{
		{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
		{Pubkey: acctKp.Pubkey(), IsWritable: true},
		{Pubkey: acctKp.Pubkey()}, // duplicate with weaker flags
	}
	tx := NewTransaction(
		payer.Pubkey(),
		Blockhash{},
		testInstruction(programKp.Pubkey(), metas, 0),
	)
	accounts, numSigners, _, err := tx.compileAccounts()
	require.NoError(t, err)
	assert.Equal(t, 1, numSigners)
	// payer, account, program
	assert.Len(t, accounts, 3)
	// Duplicate reference keeps the stronger writable flag
	assert.True(t, accounts[1].IsWritable)
}

func TestMessageNoFeePayer(t *testing.T) {
	tx := &Transaction{}
	_, err := tx.Message()
	assert.ErrorIs(t, err, ErrMissingFeePayer)
}

func TestCompactLengthEncoding(t *testing.T) {
	for _, tc := range []struct {
		length int
		want   []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{127, []byte{0x7f}},
		{128, []byte{0x80, 0x01}},
		{999, []byte{0xe7, 0x07}},
		{16383, []byte{0xff, 0x7f}},
		{16384, []byte{0x80, 0x80, 0x01}},
	} {
		var buf bytes.Buffer
		writeCompactLength(&buf, tc.length)
		assert.Equal(t, tc.want, buf.Bytes(), "length %d", tc.length)
	}
}

// A full-size Write transaction must exactly fill the transaction budget.
// This pins the relationship between the chunk size constant and the
// message serialization; if the encoding changes, the budget in the
// planner must be recomputed.
func TestWriteTransactionBudget(t *testing.T) {
	payer, err := NewKeypair()
	require.NoError(t, err)
	programKp, err := NewKeypair()
	require.NoError(t, err)
	acctKp, err := NewKeypair()
	require.NoError(t, err)
	metas := []AccountMeta{
		{Pubkey: payer.Pubkey(), IsSigner: true, IsWritable: true},
		{Pubkey: acctKp.Pubkey(), IsWritable: true},
		{Pubkey: SystemProgramID},
	}
	// Write instruction fixed fields with empty seed: discriminant,
	// seed length, bump, 8-byte offset, then the chunk
	fixed := 1 + 1 + 1 + 8
	tx := NewTransaction(
		payer.Pubkey(),
		Blockhash{},
		testInstruction(programKp.Pubkey(), metas, fixed+984),
	)
	require.NoError(t, tx.Sign(payer))
	size, err := tx.Size()
	require.NoError(t, err)
	assert.Equal(t, MaxTransactionSize, size)
}
