// Package numbering allocates sequential human-readable document numbers.
//
// Numbers keep the legacy format (prefix plus a zero-padded 5-digit
// running count) but are allocated through an atomic upsert on
// document_sequences instead of counting rows, so concurrent creates
// can never mint duplicates.
package numbering

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Kind selects the document sequence to draw from.
type Kind string

const (
	KindEstimate Kind = "EST"
	KindInvoice  Kind = "INV"
)

// RowQuerier is satisfied by pgxpool.Pool and pgx.Tx; allocation runs on
// the caller's transaction so an aborted create releases nothing visible.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

// Next allocates the next number for kind.
func Next(ctx context.Context, q RowQuerier, kind Kind) (string, error) {
	var seq int64
	err := q.QueryRow(ctx, `
		INSERT INTO document_sequences (doc_type, seq)
		VALUES ($1, 1)
		ON CONFLICT (doc_type)
		DO UPDATE SET seq = document_sequences.seq + 1
		RETURNING seq
	`, string(kind)).Scan(&seq)
	if err != nil {
		return "", fmt.Errorf("numbering: next %s: %w", kind, err)
	}
	return Format(kind, seq), nil
}

// Format renders a sequence value in the legacy wire format, e.g. EST-00001.
func Format(kind Kind, seq int64) string {
	return fmt.Sprintf("%s-%05d", kind, seq)
}
