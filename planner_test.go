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
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlanAlphabet(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	chunks := Plan(payload, 13)
	require.Len(t, chunks, 2)
	assert.Equal(t, uint64(0), chunks[0].Offset)
	assert.Equal(t, []byte("abcdefghijklm"), chunks[0].Data)
	assert.Equal(t, uint64(13), chunks[1].Offset)
	assert.Equal(t, []byte("nopqrstuvwxyz"), chunks[1].Data)
}

func TestPlanShortTail(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	chunks := Plan(payload, 10)
	require.Len(t, chunks, 3)
	assert.Equal(t, 10, len(chunks[0].Data))
	assert.Equal(t, 10, len(chunks[1].Data))
	assert.Equal(t, 6, len(chunks[2].Data))
	assert.Equal(t, uint64(20), chunks[2].Offset)
}

func TestPlanReassembles(t *testing.T) {
	payload := make([]byte, 10_000)
	_, err := rand.New(rand.NewSource(42)).Read(payload)
	require.NoError(t, err)
	for _, chunkSize := range []int{1, 7, 13, 100, MaxChunkSize} {
		chunks := Plan(payload, chunkSize)
		rebuilt := make([]byte, len(payload))
		var expectOffset uint64
		for _, chunk := range chunks {
			require.Equal(t, expectOffset, chunk.Offset)
			copy(rebuilt[chunk.Offset:], chunk.Data)
			expectOffset += uint64(len(chunk.Data))
		}
		assert.Equal(t, uint64(len(payload)), expectOffset)
		assert.Equal(t, payload, rebuilt)
	}
}

func TestPlanDeterministic(t *testing.T) {
	payload := make([]byte, 5_000)
	_, err := rand.New(rand.NewSource(7)).Read(payload)
	require.NoError(t, err)
	assert.Equal(t, Plan(payload, 100), Plan(payload, 100))
}

func TestPlanEmptyPayload(t *testing.T) {
	assert.Empty(t, Plan(nil, 13))
	assert.Empty(t, Plan([]byte{}, 13))
}

func TestChunkerSeekTo(t *testing.T) {
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	chunker := NewChunker(payload, 13)
	chunker.SeekTo(13)
	assert.Equal(t, 1, chunker.Remaining())
	chunk, ok := chunker.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(13), chunk.Offset)
	assert.Equal(t, []byte("nopqrstuvwxyz"), chunk.Data)
	_, ok = chunker.Next()
	assert.False(t, ok)
	// Seeking past the end leaves nothing
	chunker.SeekTo(1_000)
	assert.Equal(t, 0, chunker.Remaining())
	_, ok = chunker.Next()
	assert.False(t, ok)
}

func TestChunkerSeekMidChunk(t *testing.T) {
	// A resumed upload continues from the recorded offset even when it
	// does not land on a chunk boundary of the original plan
	payload := []byte("abcdefghijklmnopqrstuvwxyz")
	chunker := NewChunker(payload, 13)
	chunker.SeekTo(5)
	chunk, ok := chunker.Next()
	require.True(t, ok)
	assert.Equal(t, uint64(5), chunk.Offset)
	assert.Equal(t, []byte("fghijklmnopqr"), chunk.Data)
}

func TestChunkerRemaining(t *testing.T) {
	chunker := NewChunker(make([]byte, 26), 13)
	assert.Equal(t, 2, chunker.Remaining())
	_, _ = chunker.Next()
	assert.Equal(t, 1, chunker.Remaining())
	_, _ = chunker.Next()
	assert.Equal(t, 0, chunker.Remaining())
}

func TestChunkerClamp(t *testing.T) {
	chunker := NewChunker(make([]byte, 10), 0)
	assert.Equal(t, 10, chunker.Remaining())
	chunker = NewChunker(make([]byte, MaxChunkSize*2), MaxChunkSize*10)
	assert.Equal(t, 2, chunker.Remaining())
}

func TestDefaultChunkSize(t *testing.T) {
	assert.Equal(t, MaxChunkSize, DefaultChunkSize(0))
	assert.Equal(t, MaxChunkSize-4, DefaultChunkSize(4))
	assert.Equal(t, 1, DefaultChunkSize(MaxChunkSize+100))
}
