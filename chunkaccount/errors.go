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

package chunkaccount

import (
	"errors"
	"fmt"
)

// ErrBadMagic indicates the account data does not start with the chunk
// account magic
var ErrBadMagic = errors.New("bad chunk account magic")

// HeaderTooShortError indicates the account data cannot hold a header
type HeaderTooShortError struct {
	Length int
}

func (e HeaderTooShortError) Error() string {
	return fmt.Sprintf(
		"account data too short for header: %d < %d",
		e.Length,
		HeaderSize,
	)
}

// UnrecognizedVersionError indicates a header layout revision this library
// does not understand
type UnrecognizedVersionError struct {
	Version uint32
}

func (e UnrecognizedVersionError) Error() string {
	return fmt.Sprintf("unrecognized chunk account version %d", e.Version)
}

// Sentinel for unrecognized versions so callers can use errors.Is
var ErrUnrecognizedVersion = errors.New("unrecognized chunk account version")

func (UnrecognizedVersionError) Is(target error) bool {
	return target == ErrUnrecognizedVersion
}

// CorruptHeaderError indicates header fields that are internally
// inconsistent or inconsistent with the account data size
type CorruptHeaderError struct {
	Reason string
}

func (e CorruptHeaderError) Error() string {
	return "corrupt chunk account header: " + e.Reason
}
