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

package chainsim

import (
	"log/slog"
)

// LedgerOptionFunc is a type that represents functions that modify the
// Ledger config
type LedgerOptionFunc func(*Ledger)

// WithLogger specifies a logger. If none is provided, slog.Default() is
// used.
func WithLogger(logger *slog.Logger) LedgerOptionFunc {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithRent specifies the rent model: the flat base plus per-byte lamports
// required to keep an account alive
func WithRent(base uint64, perByte uint64) LedgerOptionFunc {
	return func(l *Ledger) {
		l.rentBase = base
		l.rentPerByte = perByte
	}
}
