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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubkeyBase58RoundTrip(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)
	key := kp.Pubkey()
	parsed, err := ParsePubkey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParsePubkeyInvalid(t *testing.T) {
	_, err := ParsePubkey("not-a-key")
	assert.Error(t, err)
	// Too short after decoding
	_, err = ParsePubkey("abc")
	assert.Error(t, err)
}

func TestNewPubkeyLength(t *testing.T) {
	_, err := NewPubkey(make([]byte, 31))
	assert.Error(t, err)
	_, err = NewPubkey(make([]byte, 32))
	assert.NoError(t, err)
}

func TestKeypairFromSeedDeterministic(t *testing.T) {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = uint8(i)
	}
	kp1, err := KeypairFromSeed(seed)
	require.NoError(t, err)
	kp2, err := KeypairFromSeed(seed)
	require.NoError(t, err)
	assert.Equal(t, kp1.Pubkey(), kp2.Pubkey())
}

func TestSignVerify(t *testing.T) {
	kp, err := NewKeypair()
	require.NoError(t, err)
	msg := []byte("test message")
	sig := kp.Sign(msg)
	assert.True(t, VerifySignature(kp.Pubkey(), msg, sig))
	assert.False(t, VerifySignature(kp.Pubkey(), []byte("other"), sig))
	other, err := NewKeypair()
	require.NoError(t, err)
	assert.False(t, VerifySignature(other.Pubkey(), msg, sig))
}

func TestPubkeyIsZero(t *testing.T) {
	assert.True(t, Pubkey{}.IsZero())
	kp, err := NewKeypair()
	require.NoError(t, err)
	assert.False(t, kp.Pubkey().IsZero())
}
