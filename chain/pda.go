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
	"crypto/sha256"
	"errors"

	"filippo.io/edwards25519"
)

const (
	// MaxSeedLength is the maximum length of a single seed used in program
	// address derivation
	MaxSeedLength = 32

	// MaxSeeds is the maximum number of seeds used in program address
	// derivation
	MaxSeeds = 16
)

// Domain separator appended when hashing program-derived addresses
var pdaMarker = []byte("ProgramDerivedAddress")

var (
	ErrSeedTooLong  = errors.New("seed exceeds maximum length")
	ErrTooManySeeds = errors.New("too many seeds")
	// ErrInvalidProgramAddress indicates the derived candidate lies on the
	// ed25519 curve and is therefore not usable as a program address
	ErrInvalidProgramAddress = errors.New(
		"derived address is on the ed25519 curve",
	)
	// ErrNoViableBump indicates no bump value produced an off-curve address
	ErrNoViableBump = errors.New("unable to find a viable bump seed")
)

// CreateProgramAddress derives the program address for the given seeds. It
// fails with ErrInvalidProgramAddress if the resulting hash decodes as a
// valid curve point, since a program address must not have a corresponding
// private key.
func CreateProgramAddress(seeds [][]byte, programID Pubkey) (Pubkey, error) {
	if len(seeds) > MaxSeeds {
		return Pubkey{}, ErrTooManySeeds
	}
	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return Pubkey{}, ErrSeedTooLong
		}
		h.Write(seed)
	}
	h.Write(programID[:])
	h.Write(pdaMarker)
	var ret Pubkey
	copy(ret[:], h.Sum(nil))
	if isOnCurve(ret) {
		return Pubkey{}, ErrInvalidProgramAddress
	}
	return ret, nil
}

// FindProgramAddress searches for the highest bump seed that, appended to
// the given seeds, derives a valid (off-curve) program address. The search
// is deterministic: identical inputs always produce the same address and
// bump.
func FindProgramAddress(
	seeds [][]byte,
	programID Pubkey,
) (Pubkey, uint8, error) {
	for bump := 255; bump >= 0; bump-- {
		trySeeds := make([][]byte, 0, len(seeds)+1)
		trySeeds = append(trySeeds, seeds...)
		trySeeds = append(trySeeds, []byte{uint8(bump)})
		addr, err := CreateProgramAddress(trySeeds, programID)
		if err == nil {
			return addr, uint8(bump), nil
		}
		if !errors.Is(err, ErrInvalidProgramAddress) {
			return Pubkey{}, 0, err
		}
	}
	return Pubkey{}, 0, ErrNoViableBump
}

// isOnCurve returns whether the bytes decode as a valid ed25519 curve point
func isOnCurve(key Pubkey) bool {
	_, err := new(edwards25519.Point).SetBytes(key[:])
	return err == nil
}
