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
	"crypto/ed25519"
	"crypto/rand"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

// PubkeySize is the size of a public key in bytes
const PubkeySize = 32

// Pubkey is a 32-byte ed25519 public key identifying an account or program
// on the network. The zero value is the all-zeroes key, which no keypair
// produces and which is used as a "not set" marker.
type Pubkey [PubkeySize]byte

// NewPubkey returns a Pubkey from the provided bytes
func NewPubkey(data []byte) (Pubkey, error) {
	var p Pubkey
	if len(data) != PubkeySize {
		return p, fmt.Errorf(
			"invalid public key length: expected %d, got %d",
			PubkeySize,
			len(data),
		)
	}
	copy(p[:], data)
	return p, nil
}

// ParsePubkey returns a Pubkey from its base58 string form
func ParsePubkey(s string) (Pubkey, error) {
	decoded := base58.Decode(s)
	if len(decoded) != PubkeySize {
		return Pubkey{}, fmt.Errorf("invalid public key: %q", s)
	}
	return NewPubkey(decoded)
}

func (p Pubkey) String() string {
	return base58.Encode(p[:])
}

func (p Pubkey) Bytes() []byte {
	return p[:]
}

// IsZero returns whether the key is the all-zeroes "not set" marker
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// Signature is a 64-byte ed25519 signature. The first signature on
// a transaction doubles as the transaction's identifier.
type Signature [64]byte

func (s Signature) String() string {
	return base58.Encode(s[:])
}

// Keypair wraps an ed25519 private key used to sign transactions
type Keypair struct {
	privKey ed25519.PrivateKey
}

// NewKeypair generates a new random keypair
func NewKeypair() (*Keypair, error) {
	_, privKey, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate keypair: %w", err)
	}
	return &Keypair{privKey: privKey}, nil
}

// KeypairFromSeed returns the keypair derived from a 32-byte seed
func KeypairFromSeed(seed []byte) (*Keypair, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf(
			"invalid seed length: expected %d, got %d",
			ed25519.SeedSize,
			len(seed),
		)
	}
	return &Keypair{privKey: ed25519.NewKeyFromSeed(seed)}, nil
}

// Pubkey returns the public key for the keypair
func (k *Keypair) Pubkey() Pubkey {
	var p Pubkey
	copy(p[:], k.privKey.Public().(ed25519.PublicKey))
	return p
}

// Sign signs the provided message bytes
func (k *Keypair) Sign(message []byte) Signature {
	var sig Signature
	copy(sig[:], ed25519.Sign(k.privKey, message))
	return sig
}

// VerifySignature checks an ed25519 signature over message by the given key
func VerifySignature(key Pubkey, message []byte, sig Signature) bool {
	return ed25519.Verify(ed25519.PublicKey(key[:]), message, sig[:])
}
