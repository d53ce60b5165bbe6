// Copyright (c) 2026 Themehub Contributors. All rights reserved.
// See LICENSE for details.

// Package store contains all database access. Each entity gets its own
// store type over a shared *sql.DB; multi-entity writes run inside a
// caller-owned transaction passed to the Tx-suffixed methods.
package store

import (
	"context"
	"database/sql"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ListParams bound and order browse queries. Zero values mean no filter;
// Limit falls back to DefaultListLimit.
type ListParams struct {
	Limit       int
	Offset      int
	IncludeNSFW bool
	CreatorID   string
	Query       string
	Sort        Sort
}

// Sort selects the browse ordering.
type Sort string

const (
	SortAdded     Sort = "added"
	SortUpdated   Sort = "updated"
	SortDownloads Sort = "downloads"
)

const (
	DefaultListLimit = 30
	MaxListLimit     = 100
)

// orderClause maps a Sort to its ORDER BY expression. Newest first is
// the default; counter order doubles as insertion order.
func (p ListParams) orderClause() string {
	switch p.Sort {
	case SortUpdated:
		return " ORDER BY updated DESC"
	case SortDownloads:
		return " ORDER BY dl_count DESC, counter DESC"
	default:
		return " ORDER BY counter DESC"
	}
}

func (p ListParams) limit() int {
	switch {
	case p.Limit <= 0:
		return DefaultListLimit
	case p.Limit > MaxListLimit:
		return MaxListLimit
	}
	return p.Limit
}
