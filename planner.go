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

// MaxChunkSize is the largest chunk payload that fits in a single
// transaction alongside the Write instruction's fixed fields (discriminant,
// seed length, bump, offset), the three account references, the account
// key table, and one signature. A Write of this size with an empty seed
// fills the transaction size budget exactly; each seed byte displaces one
// payload byte.
const MaxChunkSize = 984

// DefaultChunkSize returns the chunk size that fills a transaction for the
// given PDA seed length
func DefaultChunkSize(seedLen int) int {
	size := MaxChunkSize - seedLen
	if size < 1 {
		size = 1
	}
	return size
}

// Chunk is one bounded slice of the payload, positioned at its offset
type Chunk struct {
	Offset uint64
	Data   []byte
}

// Chunker splits a payload into a deterministic ascending sequence of
// chunks. It is a pure function of the payload and chunk size: identical
// inputs always yield the identical sequence, which is what allows a
// resumed upload to recompute the same plan and continue from any offset.
type Chunker struct {
	payload   []byte
	chunkSize int
	position  uint64
}

// NewChunker returns a chunker over the payload. Chunk sizes are clamped
// to [1, MaxChunkSize].
func NewChunker(payload []byte, chunkSize int) *Chunker {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &Chunker{
		payload:   payload,
		chunkSize: chunkSize,
	}
}

// Next returns the next chunk in the sequence. The final chunk may be
// shorter than the chunk size. Returns false once the payload is covered.
func (c *Chunker) Next() (Chunk, bool) {
	if c.position >= uint64(len(c.payload)) {
		return Chunk{}, false
	}
	start := c.position
	end := min(start+uint64(c.chunkSize), uint64(len(c.payload)))
	c.position = end
	return Chunk{
		Offset: start,
		Data:   c.payload[start:end],
	}, true
}

// SeekTo restarts the sequence at the given payload offset. Seeking past
// the end yields an empty remainder.
func (c *Chunker) SeekTo(offset uint64) {
	if offset > uint64(len(c.payload)) {
		offset = uint64(len(c.payload))
	}
	c.position = offset
}

// Remaining returns the number of chunks left in the sequence
func (c *Chunker) Remaining() int {
	left := uint64(len(c.payload)) - c.position
	return int((left + uint64(c.chunkSize) - 1) / uint64(c.chunkSize))
}

// Plan materializes the full chunk sequence for a payload
func Plan(payload []byte, chunkSize int) []Chunk {
	chunker := NewChunker(payload, chunkSize)
	ret := make([]Chunk, 0, chunker.Remaining())
	for {
		chunk, ok := chunker.Next()
		if !ok {
			return ret
		}
		ret = append(ret, chunk)
	}
}
