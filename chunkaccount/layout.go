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

// Package chunkaccount defines the binary layout of the chunk account: the
// on-chain account used to assemble an oversized payload across many small
// transactions. The account holds a fixed-size header followed by the
// payload region. All multi-byte fields are little-endian and every header
// byte is defined; bytes beyond the payload region are never interpreted.
package chunkaccount

import (
	"bytes"
	"encoding/binary"

	"github.com/blinklabs-io/chunkwrite/chain"
)

const (
	// HeaderVersion is the current header layout revision
	HeaderVersion = 1

	// HeaderSize is the fixed size of the account header in bytes
	HeaderSize = 88

	magicOffset         = 0
	versionOffset       = 4
	writerOffset        = 8
	targetProgramOffset = 40
	totalLengthOffset   = 72
	writtenOffsetOffset = 80
)

// Magic marks an initialized chunk account header
var Magic = [4]byte{'C', 'W', 'A', 0}

// State describes where a chunk account is in its lifecycle
type State int

const (
	StateUninitialized State = iota
	StateWriting
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "Uninitialized"
	case StateWriting:
		return "Writing"
	case StateComplete:
		return "Complete"
	}
	return "Unknown"
}

// Header is the decoded form of the chunk account header
type Header struct {
	Version       uint32
	Writer        chain.Pubkey
	TargetProgram chain.Pubkey
	TotalLength   uint64
	WrittenOffset uint64
}

// State derives the lifecycle state from the header's high-water mark
func (h *Header) State() State {
	if h.WrittenOffset >= h.TotalLength {
		return StateComplete
	}
	return StateWriting
}

// AccountSize returns the minimum account data size needed to hold a
// payload of the given length
func AccountSize(totalLength uint64) uint64 {
	return HeaderSize + totalLength
}

// IsInitialized reports whether the account data carries an initialized
// header. Short or all-zero header regions are uninitialized; anything
// else that fails to decode is corrupt rather than fresh, but callers that
// only need the fresh/used distinction can rely on the magic alone.
func IsInitialized(data []byte) bool {
	if len(data) < len(Magic) {
		return false
	}
	return bytes.Equal(data[:len(Magic)], Magic[:])
}

// EncodeHeader writes the header into the opening HeaderSize bytes of the
// account data
func EncodeHeader(h *Header, data []byte) error {
	if len(data) < HeaderSize {
		return HeaderTooShortError{Length: len(data)}
	}
	copy(data[magicOffset:], Magic[:])
	binary.LittleEndian.PutUint32(data[versionOffset:], h.Version)
	copy(data[writerOffset:], h.Writer[:])
	copy(data[targetProgramOffset:], h.TargetProgram[:])
	binary.LittleEndian.PutUint64(data[totalLengthOffset:], h.TotalLength)
	binary.LittleEndian.PutUint64(data[writtenOffsetOffset:], h.WrittenOffset)
	return nil
}

// DecodeHeader parses the header from account data. Unrecognized layout
// revisions fail decoding; they are never interpreted with a fallback
// layout.
func DecodeHeader(data []byte) (*Header, error) {
	if len(data) < HeaderSize {
		return nil, HeaderTooShortError{Length: len(data)}
	}
	if !bytes.Equal(data[magicOffset:magicOffset+4], Magic[:]) {
		return nil, ErrBadMagic
	}
	h := &Header{
		Version: binary.LittleEndian.Uint32(data[versionOffset:]),
		TotalLength: binary.LittleEndian.Uint64(
			data[totalLengthOffset:],
		),
		WrittenOffset: binary.LittleEndian.Uint64(
			data[writtenOffsetOffset:],
		),
	}
	copy(h.Writer[:], data[writerOffset:])
	copy(h.TargetProgram[:], data[targetProgramOffset:])
	if h.Version != HeaderVersion {
		return nil, UnrecognizedVersionError{Version: h.Version}
	}
	// No account can hold a payload this long; a declared length beyond the
	// account size cap is a forgery, not a big upload
	if h.TotalLength > chain.MaxAccountDataSize-HeaderSize {
		return nil, CorruptHeaderError{
			Reason: "total length exceeds maximum account size",
		}
	}
	if h.WrittenOffset > h.TotalLength {
		return nil, CorruptHeaderError{
			Reason: "written offset exceeds total length",
		}
	}
	return h, nil
}

// Payload returns the full payload region of the account data. The slice
// aliases the account data; the region past the header's written offset is
// undefined until the account is complete.
func Payload(h *Header, data []byte) ([]byte, error) {
	// Compared without adding to TotalLength, which could wrap for a forged
	// header
	if len(data) < HeaderSize ||
		h.TotalLength > uint64(len(data))-HeaderSize {
		return nil, CorruptHeaderError{
			Reason: "account data shorter than declared payload",
		}
	}
	return data[HeaderSize : HeaderSize+h.TotalLength], nil
}
