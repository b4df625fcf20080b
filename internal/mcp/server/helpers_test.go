package server

import (
	"context"
	"database/sql"
	"time"
)

const (
	waitFor = 5 * time.Second
	tick    = 10 * time.Millisecond
)

type staticPool struct {
	db *sql.DB
}

func (p staticPool) Acquire(context.Context) (*sql.DB, error) { return p.db, nil }

type failingPool struct {
	err error
}

func (p failingPool) Acquire(context.Context) (*sql.DB, error) { return nil, p.err }
