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

package chunkwrite

import (
	"fmt"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/fxamacker/cbor/v2"
)

// Upload is the handle for an in-flight or finished upload. It records
// everything needed to resume after a crash except the payload bytes
// themselves, which the caller re-supplies on Resume. The handle is
// serializable; NextOffset is a local hint and the true progress is always
// re-read from the account.
type Upload struct {
	// Tells the CBOR codec to convert to/from a struct and a CBOR array
	_             struct{} `cbor:",toarray"`
	Payer         chain.Pubkey
	Account       chain.Pubkey
	Seed          []byte
	Bump          uint8
	TargetProgram chain.Pubkey
	TotalLength   uint64
	ChunkSize     int
	NextOffset    uint64
}

// MarshalBinary implements encoding.BinaryMarshaler
func (u *Upload) MarshalBinary() ([]byte, error) {
	data, err := cbor.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("marshal upload handle: %w", err)
	}
	return data, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler
func (u *Upload) UnmarshalBinary(data []byte) error {
	if err := cbor.Unmarshal(data, u); err != nil {
		return fmt.Errorf("unmarshal upload handle: %w", err)
	}
	return nil
}

// State describes where an upload is in its lifecycle
type State int

const (
	StateWriting State = iota
	StateComplete
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateWriting:
		return "Writing"
	case StateComplete:
		return "Complete"
	case StateClosed:
		return "Closed"
	}
	return "Unknown"
}

// Status is the observed on-chain state of an upload
type Status struct {
	State         State
	WrittenOffset uint64
	TotalLength   uint64
}
