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
	"errors"
	"fmt"

	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/blinklabs-io/chunkwrite/program"
)

var (
	ErrMissingSubmitter    = errors.New("no submitter provided")
	ErrMissingKeypair      = errors.New("no keypair provided")
	ErrMissingWriteProgram = errors.New("no write-account program provided")
)

// PayloadTooLargeError indicates a payload that cannot fit in a single
// account even fully chunked
type PayloadTooLargeError struct {
	Length int
	Max    int
}

func (e PayloadTooLargeError) Error() string {
	return fmt.Sprintf(
		"payload length %d exceeds maximum %d",
		e.Length,
		e.Max,
	)
}

// PayloadLengthMismatchError indicates a resumed upload whose supplied
// payload does not match the length recorded in the handle
type PayloadLengthMismatchError struct {
	Expected uint64
	Got      int
}

func (e PayloadLengthMismatchError) Error() string {
	return fmt.Sprintf(
		"payload length %d does not match upload handle length %d",
		e.Got,
		e.Expected,
	)
}

// AccountInUseError indicates the derived chunk account already holds a
// different upload. A new payload always needs a fresh account; pick a
// different seed or close the existing account first.
type AccountInUseError struct {
	Account chain.Pubkey
}

func (e AccountInUseError) Error() string {
	return fmt.Sprintf(
		"chunk account %s already holds a different upload",
		e.Account,
	)
}

// UploadAbortedError wraps the terminal error that stopped an upload,
// along with how far it got. Progress up to WrittenOffset is durable; the
// upload can be resumed once the cause is corrected.
type UploadAbortedError struct {
	WrittenOffset uint64
	Err           error
}

func (e UploadAbortedError) Error() string {
	return fmt.Sprintf(
		"upload aborted at offset %d: %v",
		e.WrittenOffset,
		e.Err,
	)
}

func (e UploadAbortedError) Unwrap() error { return e.Err }

// isProtocolError reports whether the error is a deterministic state
// machine contract violation. These are never retried blindly: resubmitting
// without correcting the request fails identically.
func isProtocolError(err error) bool {
	for _, target := range []error{
		program.ErrInvalidInstructionData,
		program.ErrNotEnoughAccounts,
		program.ErrMissingSigner,
		program.ErrWrongAccount,
		program.ErrInvalidOwner,
		program.ErrAlreadyInitialized,
		program.ErrAlreadyComplete,
		program.ErrNotInitialized,
		program.ErrUnauthorized,
		program.ErrAccountTooLarge,
		program.ErrCapacityTooSmall,
		program.ErrOutOfOrderWrite,
		program.ErrOverflow,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
