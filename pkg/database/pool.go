package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// acquirePool is the gorm ConnPool installed by open. Every statement
// outside a transaction, and every BEGIN, first checks a connection out
// of the pool under the acquisition timeout so an exhausted pool fails
// with an InfraError instead of blocking the caller.
type acquirePool struct {
	db      *sql.DB
	timeout time.Duration
}

func newAcquirePool(db *sql.DB, timeout time.Duration) *acquirePool {
	return &acquirePool{db: db, timeout: timeout}
}

func (p *acquirePool) acquire(ctx context.Context) (*sql.Conn, error) {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.db.Conn(actx)
	if err != nil {
		return nil, Classify(fmt.Errorf("acquire connection: %w", err))
	}
	return conn, nil
}

// GetDBConn lets gorm.DB.DB and gorm.DB.Connection reach the sql.DB.
func (p *acquirePool) GetDBConn() (*sql.DB, error) { return p.db, nil }

func (p *acquirePool) PrepareContext(ctx context.Context, query string) (*sql.Stmt, error) {
	return p.db.PrepareContext(ctx, query)
}

func (p *acquirePool) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	return conn.ExecContext(ctx, query, args...)
}

// Open rows keep the connection busy, so it is handed back once they close.
func (p *acquirePool) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := conn.QueryContext(ctx, query, args...)
	go conn.Close()
	return rows, err
}

func (p *acquirePool) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	actx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	conn, err := p.db.Conn(actx)
	if err != nil {
		if actx.Err() != nil {
			// an expired context makes the row carry the timeout
			return p.db.QueryRowContext(actx, query, args...)
		}
		return p.db.QueryRowContext(ctx, query, args...)
	}
	row := conn.QueryRowContext(ctx, query, args...)
	go conn.Close()
	return row
}

// BeginTx pins a connection for the life of the transaction.
func (p *acquirePool) BeginTx(ctx context.Context, opts *sql.TxOptions) (gorm.ConnPool, error) {
	conn, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	tx, err := conn.BeginTx(ctx, opts)
	if err != nil {
		_ = conn.Close()
		return nil, Classify(err)
	}
	return &connTx{Tx: tx, conn: conn, db: p.db}, nil
}

// dbresolver tunes every source pool it manages.
func (p *acquirePool) SetMaxOpenConns(n int)              { p.db.SetMaxOpenConns(n) }
func (p *acquirePool) SetMaxIdleConns(n int)              { p.db.SetMaxIdleConns(n) }
func (p *acquirePool) SetConnMaxLifetime(d time.Duration) { p.db.SetConnMaxLifetime(d) }
func (p *acquirePool) SetConnMaxIdleTime(d time.Duration) { p.db.SetConnMaxIdleTime(d) }

// connTx returns its pinned connection when the transaction ends.
type connTx struct {
	*sql.Tx
	conn *sql.Conn
	db   *sql.DB
}

func (t *connTx) GetDBConn() (*sql.DB, error) { return t.db, nil }

func (t *connTx) Commit() error {
	err := t.Tx.Commit()
	_ = t.conn.Close()
	return err
}

func (t *connTx) Rollback() error {
	err := t.Tx.Rollback()
	_ = t.conn.Close()
	return err
}
