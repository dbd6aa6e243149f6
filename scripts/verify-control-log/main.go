// Command verify-control-log re-hashes every row of a CONTROL_LOG mirror and
// reports rows whose stored hash no longer matches their columns.
//
// Usage:
//
//	HOSPITALOPS_AUDIT_DB_DSN=/var/lib/hospitalops/audit.db go run ./scripts/verify-control-log
//
// The mirror is append-only, so the script never rewrites a hash: it prints
// the number of rows checked, the Merkle root over the stored hashes, and the
// log IDs of any tampered rows. It exits non-zero when a mismatch is found.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/ashita-ai/hospitalops/internal/storage"
)

func main() {
	ok, err := run()
	if err != nil {
		log.Fatal(err)
	}
	if !ok {
		os.Exit(2)
	}
}

func run() (bool, error) {
	_ = godotenv.Load()

	dsn := os.Getenv("HOSPITALOPS_AUDIT_DB_DSN")
	if dsn == "" {
		return false, fmt.Errorf("HOSPITALOPS_AUDIT_DB_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := storage.New(ctx, dsn, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		return false, fmt.Errorf("connect: %w", err)
	}
	defer func() { _ = db.Close() }()

	report, err := db.VerifyMirror(ctx)
	if err != nil {
		return false, err
	}

	fmt.Printf("checked %d records, merkle root %s\n", report.Checked, report.RootHash)
	if len(report.Mismatched) == 0 {
		fmt.Println("all record hashes match")
		return true, nil
	}
	fmt.Printf("%d records do not match their stored hash: %v\n", len(report.Mismatched), report.Mismatched)
	return false, nil
}
