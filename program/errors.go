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
	"errors"
	"fmt"
)

// Protocol errors are deterministic contract violations. Retrying the same
// instruction unchanged will fail identically; the caller must re-read
// on-chain state and correct the request first.
var (
	ErrInvalidInstructionData = errors.New("invalid instruction data")
	ErrNotEnoughAccounts      = errors.New("not enough accounts")
	ErrMissingSigner          = errors.New("payer did not sign")
	ErrWrongAccount           = errors.New(
		"chunk account does not match derived address",
	)
	ErrInvalidOwner = errors.New(
		"chunk account is not owned by the write-account program",
	)
	ErrAlreadyInitialized = errors.New("chunk account already initialized")
	ErrAlreadyComplete    = errors.New("chunk account payload already complete")
	ErrNotInitialized     = errors.New("chunk account not initialized")
	ErrUnauthorized       = errors.New("signer is not the recorded writer")
	ErrAccountTooLarge    = errors.New(
		"requested capacity exceeds maximum account size",
	)
)

// UnknownInstructionError indicates an unrecognized discriminant byte
type UnknownInstructionError struct {
	Type uint8
}

func (e UnknownInstructionError) Error() string {
	return fmt.Sprintf("unknown instruction type %d", e.Type)
}

func (UnknownInstructionError) Is(target error) bool {
	return target == ErrInvalidInstructionData
}

// CapacityTooSmallError indicates an Initialize whose declared capacity
// cannot hold the declared payload length
type CapacityTooSmallError struct {
	Capacity    uint64
	TotalLength uint64
}

func (e CapacityTooSmallError) Error() string {
	return fmt.Sprintf(
		"capacity %d too small for payload length %d",
		e.Capacity,
		e.TotalLength,
	)
}

// Sentinel for capacity errors so callers can use errors.Is
var ErrCapacityTooSmall = errors.New("capacity too small")

func (CapacityTooSmallError) Is(target error) bool {
	return target == ErrCapacityTooSmall
}

// OutOfOrderWriteError indicates a Write whose offset does not match the
// account's high-water mark. The caller must re-query the account state
// before retrying.
type OutOfOrderWriteError struct {
	Expected uint64
	Got      uint64
}

func (e OutOfOrderWriteError) Error() string {
	return fmt.Sprintf(
		"out-of-order write: expected offset %d, got %d",
		e.Expected,
		e.Got,
	)
}

var ErrOutOfOrderWrite = errors.New("out-of-order write")

func (OutOfOrderWriteError) Is(target error) bool {
	return target == ErrOutOfOrderWrite
}

// OverflowError indicates a Write that would extend past the declared
// payload length
type OverflowError struct {
	Offset      uint64
	Length      int
	TotalLength uint64
}

func (e OverflowError) Error() string {
	return fmt.Sprintf(
		"write of %d bytes at offset %d overflows payload length %d",
		e.Length,
		e.Offset,
		e.TotalLength,
	)
}

var ErrOverflow = errors.New("write overflows payload length")

func (OverflowError) Is(target error) bool {
	return target == ErrOverflow
}
