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

// chsum is an example consumer of the chunked-write protocol. It runs a
// checksum program against an in-memory ledger: small inputs are passed as
// inline instruction data, oversized inputs are staged into a chunk
// account first and read back by the program through the trusted reader.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/crypto/blake2b"

	chunkwrite "github.com/blinklabs-io/chunkwrite"
	"github.com/blinklabs-io/chunkwrite/chain"
	"github.com/blinklabs-io/chunkwrite/chainsim"
	"github.com/blinklabs-io/chunkwrite/program"
	"github.com/blinklabs-io/chunkwrite/reader"
)

type chsumFlags struct {
	flagset   *flag.FlagSet
	mult      uint
	repeat    int
	chunkSize int
	debug     bool
}

func newChsumFlags() *chsumFlags {
	f := &chsumFlags{
		flagset: flag.NewFlagSet(os.Args[0], flag.ExitOnError),
	}
	f.flagset.UintVar(&f.mult, "mult", 1, "checksum multiplier (0-255)")
	f.flagset.IntVar(
		&f.repeat,
		"repeat",
		1,
		"repeat the input data this many times before summing",
	)
	f.flagset.IntVar(
		&f.chunkSize,
		"chunk-size",
		0,
		"maximum chunk size (defaults to filling each transaction)",
	)
	f.flagset.BoolVar(&f.debug, "debug", false, "enable debug logging")
	return f
}

func main() {
	f := newChsumFlags()
	_ = f.flagset.Parse(os.Args[1:])
	if f.flagset.NArg() < 1 || f.mult > 255 {
		fmt.Printf("usage: %s [flags] <data>\n", os.Args[0])
		os.Exit(1)
	}
	if f.debug {
		slog.SetDefault(
			slog.New(slog.NewTextHandler(
				os.Stderr,
				&slog.HandlerOptions{Level: slog.LevelDebug},
			)),
		)
	}
	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
		os.Exit(1)
	}
}

func run(f *chsumFlags) error {
	ctx := context.Background()
	data := strings.Repeat(f.flagset.Arg(0), f.repeat)
	payload := append([]byte{uint8(f.mult)}, []byte(data)...)

	ledger := chainsim.NewLedger()
	defer ledger.Close()

	// The two deployed programs: write-account and the chsum consumer
	writeProgramID, err := chain.ParsePubkey(
		"C4kB14J8w4hnoCDhcgPupFJcnsaVVWEbDrxwW3vPFFmV",
	)
	if err != nil {
		return err
	}
	chsumProgramID, err := chain.ParsePubkey(
		"CjYnjL2CTRPfW2W1yfyUvAhRRkFr6xMTcUa3CHTUDZY8",
	)
	if err != nil {
		return err
	}
	processor := program.NewProcessor(writeProgramID, slog.Default())
	ledger.RegisterProgram(
		writeProgramID,
		func(ictx *chainsim.InvokeContext) error {
			return processor.Process(ictx, ictx.Accounts, ictx.Data)
		},
	)
	var sum uint64
	ledger.RegisterProgram(
		chsumProgramID,
		chsumProgram(chsumProgramID, &sum),
	)

	keypair, err := chain.NewKeypair()
	if err != nil {
		return err
	}
	ledger.Fund(keypair.Pubkey(), 100_000_000_000)

	tx, err := inlineTransaction(ctx, ledger, keypair, chsumProgramID, payload)
	if err != nil {
		return err
	}
	size, err := tx.Size()
	if err != nil {
		return err
	}
	if size <= chain.MaxTransactionSize {
		if _, err := ledger.SubmitTransaction(ctx, tx); err != nil {
			return err
		}
		fmt.Printf("sum (inline, %d bytes): %d\n", len(payload), sum)
		return nil
	}

	// Too big for one transaction: stage the payload through a chunk
	// account, invoke with empty instruction data, then reclaim the rent
	uploader, err := chunkwrite.NewUploader(
		chunkwrite.WithSubmitter(ledger),
		chunkwrite.WithKeypair(keypair),
		chunkwrite.WithWriteProgram(writeProgramID),
		chunkwrite.WithChunkSize(f.chunkSize),
	)
	if err != nil {
		return err
	}
	upload, err := uploader.Begin(ctx, payload, chsumProgramID)
	if err != nil {
		return fmt.Errorf("upload: %w", err)
	}
	status, err := uploader.Status(ctx, upload)
	if err != nil {
		return err
	}
	fmt.Printf(
		"uploaded %d bytes to %s in %d-byte chunks (%s)\n",
		upload.TotalLength,
		upload.Account,
		upload.ChunkSize,
		status.State,
	)
	blockhash, err := ledger.RecentBlockhash(ctx)
	if err != nil {
		return err
	}
	invoke := chain.NewTransaction(
		keypair.Pubkey(),
		blockhash,
		chain.Instruction{
			ProgramID: chsumProgramID,
			Accounts: []chain.AccountMeta{
				{Pubkey: upload.Account},
			},
		},
	)
	if err := invoke.Sign(keypair); err != nil {
		return err
	}
	if _, err := ledger.SubmitTransaction(ctx, invoke); err != nil {
		return err
	}
	fmt.Printf("sum (chunked, %d bytes): %d\n", len(payload), sum)
	if err := uploader.Close(ctx, upload); err != nil {
		return fmt.Errorf("reclaim chunk account: %w", err)
	}
	return nil
}

func inlineTransaction(
	ctx context.Context,
	ledger *chainsim.Ledger,
	keypair *chain.Keypair,
	programID chain.Pubkey,
	payload []byte,
) (*chain.Transaction, error) {
	blockhash, err := ledger.RecentBlockhash(ctx)
	if err != nil {
		return nil, err
	}
	tx := chain.NewTransaction(
		keypair.Pubkey(),
		blockhash,
		chain.Instruction{
			ProgramID: programID,
			Data:      payload,
		},
	)
	if err := tx.Sign(keypair); err != nil {
		return nil, err
	}
	return tx, nil
}

// chsumProgram returns the checksum program: a weighted sum over byte
// pairs of its instruction data, whether inline or staged in a chunk
// account
func chsumProgram(programID chain.Pubkey, out *uint64) chainsim.ProgramFunc {
	return func(ictx *chainsim.InvokeContext) error {
		_, data, err := reader.InstructionData(
			ictx.Accounts, ictx.Data, programID,
		)
		if err != nil {
			return err
		}
		if len(data) < 1 {
			return errors.New("missing multiplier byte")
		}
		mult, rest := uint64(data[0]), data[1:]
		var sum uint64
		for i := 0; i < len(rest); i += 2 {
			sum += uint64(rest[i]) * mult
			if i+1 < len(rest) {
				sum += uint64(rest[i+1])
			}
		}
		digest := blake2b.Sum256(rest)
		slog.Info(
			"chsum",
			"sum", sum,
			"bytes", len(rest),
			"blake2b", fmt.Sprintf("%x", digest[:8]),
		)
		*out = sum
		return nil
	}
}
