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
	"log/slog"

	"github.com/blinklabs-io/chunkwrite/chain"
)

// UploaderOptionFunc is a type that represents functions that modify the
// Uploader config
type UploaderOptionFunc func(*Uploader)

// WithSubmitter specifies the transaction submission layer to use. This is
// required.
func WithSubmitter(submitter chain.Submitter) UploaderOptionFunc {
	return func(u *Uploader) {
		u.submitter = submitter
	}
}

// WithKeypair specifies the keypair that signs and pays for transactions
// and is recorded as the chunk account writer. This is required.
func WithKeypair(keypair *chain.Keypair) UploaderOptionFunc {
	return func(u *Uploader) {
		u.keypair = keypair
	}
}

// WithWriteProgram specifies the address of the deployed write-account
// program. This is required.
func WithWriteProgram(programID chain.Pubkey) UploaderOptionFunc {
	return func(u *Uploader) {
		u.writeProgram = programID
	}
}

// WithSeed specifies the seed used to derive the chunk account address
// from the payer. Distinct concurrent uploads from the same payer need
// distinct seeds. At most 31 bytes.
func WithSeed(seed []byte) UploaderOptionFunc {
	return func(u *Uploader) {
		u.seed = seed
	}
}

// WithChunkSize specifies the maximum chunk payload size. The default
// fills all space available in a single transaction, which is normally
// desired since it minimizes the number of transactions, but leaves no
// room for additional instructions alongside each Write.
func WithChunkSize(chunkSize int) UploaderOptionFunc {
	return func(u *Uploader) {
		u.chunkSize = chunkSize
	}
}

// WithMaxRetries specifies how many times a single chunk submission is
// retried on transient failure before the upload is abandoned. The default
// is 3. Progress already confirmed is never lost; an abandoned upload can
// be resumed.
func WithMaxRetries(maxRetries int) UploaderOptionFunc {
	return func(u *Uploader) {
		u.maxRetries = maxRetries
	}
}

// WithLogger specifies a logger. If none is provided, slog.Default() is
// used.
func WithLogger(logger *slog.Logger) UploaderOptionFunc {
	return func(u *Uploader) {
		u.logger = logger
	}
}
