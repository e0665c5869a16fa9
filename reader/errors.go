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

package reader

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/chunkwrite/chain"
)

// ErrNoChunkAccount indicates an invocation with empty instruction data
// but no chunk account to read it from
var ErrNoChunkAccount = errors.New("no chunk account provided")

// WrongTargetProgramError indicates a chunk account written for a
// different consumer program. Accepting it would let a payload staged for
// one program be replayed against another.
type WrongTargetProgramError struct {
	Expected chain.Pubkey
	Got      chain.Pubkey
}

func (e WrongTargetProgramError) Error() string {
	return fmt.Sprintf(
		"chunk account written for program %s, not %s",
		e.Got,
		e.Expected,
	)
}

// Sentinel for target program mismatches so callers can use errors.Is
var ErrWrongTargetProgram = errors.New("wrong target program")

func (WrongTargetProgramError) Is(target error) bool {
	return target == ErrWrongTargetProgram
}

// IncompleteError indicates a chunk account whose payload has not been
// fully written
type IncompleteError struct {
	Written uint64
	Total   uint64
}

func (e IncompleteError) Error() string {
	return fmt.Sprintf(
		"chunk account incomplete: %d of %d bytes written",
		e.Written,
		e.Total,
	)
}

var ErrIncomplete = errors.New("chunk account incomplete")

func (IncompleteError) Is(target error) bool {
	return target == ErrIncomplete
}

// WriterMismatchError indicates a chunk account written by an unexpected
// identity
type WriterMismatchError struct {
	Expected chain.Pubkey
	Got      chain.Pubkey
}

func (e WriterMismatchError) Error() string {
	return fmt.Sprintf(
		"chunk account written by %s, expected %s",
		e.Got,
		e.Expected,
	)
}

var ErrWriterMismatch = errors.New("writer mismatch")

func (WriterMismatchError) Is(target error) bool {
	return target == ErrWriterMismatch
}
