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
	"errors"
	"fmt"
)

// MaxTransactionSize is the hard limit on the serialized size of a single
// transaction, derived from the network's packet size budget
const MaxTransactionSize = 1232

var (
	ErrTransactionTooLarge = errors.New("transaction exceeds size limit")
	ErrMissingFeePayer     = errors.New("transaction has no fee payer")
)

// AccountMeta describes how an instruction references an account
type AccountMeta struct {
	Pubkey     Pubkey
	IsSigner   bool
	IsWritable bool
}

// Instruction is a single program invocation within a transaction
type Instruction struct {
	ProgramID Pubkey
	Accounts  []AccountMeta
	Data      []byte
}

// Blockhash identifies a recent block, proving transaction freshness
type Blockhash [32]byte

// Transaction is a signed batch of instructions executed atomically
type Transaction struct {
	FeePayer        Pubkey
	RecentBlockhash Blockhash
	Instructions    []Instruction
	Signatures      []Signature
}

// NewTransaction returns an unsigned transaction with the given fee payer
func NewTransaction(
	feePayer Pubkey,
	blockhash Blockhash,
	instructions ...Instruction,
) *Transaction {
	return &Transaction{
		FeePayer:        feePayer,
		RecentBlockhash: blockhash,
		Instructions:    instructions,
	}
}

// Sign signs the transaction message with the given keypairs. The fee payer
// must be among the signers.
func (t *Transaction) Sign(keypairs ...*Keypair) error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	accounts, numSigners, _, err := t.compileAccounts()
	if err != nil {
		return err
	}
	t.Signatures = make([]Signature, numSigners)
	signed := 0
	for _, kp := range keypairs {
		key := kp.Pubkey()
		for i, acct := range accounts[:numSigners] {
			if acct.Pubkey == key {
				t.Signatures[i] = kp.Sign(msg)
				signed++
			}
		}
	}
	if signed < numSigners {
		return fmt.Errorf(
			"missing signatures: have %d, need %d",
			signed,
			numSigners,
		)
	}
	return nil
}

// Verify checks all signatures against the transaction message
func (t *Transaction) Verify() error {
	msg, err := t.Message()
	if err != nil {
		return err
	}
	accounts, numSigners, _, err := t.compileAccounts()
	if err != nil {
		return err
	}
	if len(t.Signatures) != numSigners {
		return fmt.Errorf(
			"signature count mismatch: have %d, need %d",
			len(t.Signatures),
			numSigners,
		)
	}
	for i := 0; i < numSigners; i++ {
		if !VerifySignature(accounts[i].Pubkey, msg, t.Signatures[i]) {
			return fmt.Errorf(
				"invalid signature for %s",
				accounts[i].Pubkey,
			)
		}
	}
	return nil
}

// Signers returns the account keys that must sign the transaction, fee
// payer first
func (t *Transaction) Signers() ([]Pubkey, error) {
	accounts, numSigners, _, err := t.compileAccounts()
	if err != nil {
		return nil, err
	}
	ret := make([]Pubkey, numSigners)
	for i := 0; i < numSigners; i++ {
		ret[i] = accounts[i].Pubkey
	}
	return ret, nil
}

// SignerFor reports whether the given key signed the transaction
func (t *Transaction) SignerFor(key Pubkey) bool {
	signers, err := t.Signers()
	if err != nil {
		return false
	}
	msg, err := t.Message()
	if err != nil {
		return false
	}
	for i, signer := range signers {
		if signer == key && i < len(t.Signatures) {
			return VerifySignature(key, msg, t.Signatures[i])
		}
	}
	return false
}

// ID returns the transaction identifier, which is its first signature
func (t *Transaction) ID() Signature {
	if len(t.Signatures) == 0 {
		return Signature{}
	}
	return t.Signatures[0]
}

// Serialize returns the full wire form of the transaction: a compact array
// of signatures followed by the message bytes
func (t *Transaction) Serialize() ([]byte, error) {
	msg, err := t.Message()
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	writeCompactLength(&buf, len(t.Signatures))
	for _, sig := range t.Signatures {
		buf.Write(sig[:])
	}
	buf.Write(msg)
	return buf.Bytes(), nil
}

// Size returns the serialized size of the transaction in bytes
func (t *Transaction) Size() (int, error) {
	data, err := t.Serialize()
	if err != nil {
		return 0, err
	}
	return len(data), nil
}

// Message serializes the transaction message (the bytes that get signed):
// a three-byte header, the compiled account key table, the recent
// blockhash, and the instructions with account keys replaced by table
// indexes
func (t *Transaction) Message() ([]byte, error) {
	accounts, numSigners, numReadonlyUnsigned, err := t.compileAccounts()
	if err != nil {
		return nil, err
	}
	numReadonlySigned := 0
	for _, acct := range accounts[:numSigners] {
		if !acct.IsWritable {
			numReadonlySigned++
		}
	}
	keyIndex := make(map[Pubkey]int, len(accounts))
	for i, acct := range accounts {
		keyIndex[acct.Pubkey] = i
	}
	var buf bytes.Buffer
	buf.WriteByte(uint8(numSigners))
	buf.WriteByte(uint8(numReadonlySigned))
	buf.WriteByte(uint8(numReadonlyUnsigned))
	writeCompactLength(&buf, len(accounts))
	for _, acct := range accounts {
		buf.Write(acct.Pubkey[:])
	}
	buf.Write(t.RecentBlockhash[:])
	writeCompactLength(&buf, len(t.Instructions))
	for _, ix := range t.Instructions {
		buf.WriteByte(uint8(keyIndex[ix.ProgramID]))
		writeCompactLength(&buf, len(ix.Accounts))
		for _, meta := range ix.Accounts {
			buf.WriteByte(uint8(keyIndex[meta.Pubkey]))
		}
		writeCompactLength(&buf, len(ix.Data))
		buf.Write(ix.Data)
	}
	return buf.Bytes(), nil
}

// compileAccounts merges all referenced accounts into the canonical table
// order: writable signers (fee payer first), readonly signers, writable
// non-signers, readonly non-signers (program ids among them). Returns the
// table along with the signer count and readonly non-signer count.
func (t *Transaction) compileAccounts() ([]AccountMeta, int, int, error) {
	if t.FeePayer.IsZero() {
		return nil, 0, 0, ErrMissingFeePayer
	}
	merged := []AccountMeta{
		{Pubkey: t.FeePayer, IsSigner: true, IsWritable: true},
	}
	index := map[Pubkey]int{t.FeePayer: 0}
	add := func(meta AccountMeta) {
		if i, ok := index[meta.Pubkey]; ok {
			// Flags are cumulative across references
			merged[i].IsSigner = merged[i].IsSigner || meta.IsSigner
			merged[i].IsWritable = merged[i].IsWritable || meta.IsWritable
			return
		}
		index[meta.Pubkey] = len(merged)
		merged = append(merged, meta)
	}
	for _, ix := range t.Instructions {
		for _, meta := range ix.Accounts {
			add(meta)
		}
		add(AccountMeta{Pubkey: ix.ProgramID})
	}
	var ret []AccountMeta
	for _, want := range [][2]bool{
		{true, true},   // writable signers
		{true, false},  // readonly signers
		{false, true},  // writable non-signers
		{false, false}, // readonly non-signers
	} {
		for _, meta := range merged {
			if meta.IsSigner == want[0] && meta.IsWritable == want[1] {
				ret = append(ret, meta)
			}
		}
	}
	numSigners := 0
	numReadonlyUnsigned := 0
	for _, meta := range ret {
		if meta.IsSigner {
			numSigners++
		} else if !meta.IsWritable {
			numReadonlyUnsigned++
		}
	}
	return ret, numSigners, numReadonlyUnsigned, nil
}

// writeCompactLength writes a length using the network's compact-u16
// encoding: 7 bits per byte, little-endian, high bit as continuation flag
func writeCompactLength(buf *bytes.Buffer, length int) {
	v := uint16(length) // #nosec G115
	for {
		b := uint8(v & 0x7f)
		v >>= 7
		if v == 0 {
			buf.WriteByte(b)
			return
		}
		buf.WriteByte(b | 0x80)
	}
}
