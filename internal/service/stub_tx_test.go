package service

import (
	"context"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// stubTx stands in for a pgx transaction. Test doubles register finishers
// on it; Commit and Rollback run them in LIFO order, so a fake row lock
// taken first is released last, after any counter update has been applied.
type stubTx struct {
	mu        sync.Mutex
	done      bool
	committed bool
	finishers []func(committed bool)
}

func newStubTx() *stubTx { return &stubTx{} }

func (t *stubTx) addFinisher(f func(committed bool)) {
	t.mu.Lock()
	t.finishers = append(t.finishers, f)
	t.mu.Unlock()
}

func (t *stubTx) finish(committed bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		return pgx.ErrTxClosed
	}
	t.done = true
	t.committed = committed
	for i := len(t.finishers) - 1; i >= 0; i-- {
		t.finishers[i](committed)
	}
	return nil
}

// Begin opens a savepoint. Finishers registered on the child are not
// propagated; the savepoint tests only care about retry control flow.
func (t *stubTx) Begin(ctx context.Context) (pgx.Tx, error) { return newStubTx(), nil }

func (t *stubTx) Commit(ctx context.Context) error   { return t.finish(true) }
func (t *stubTx) Rollback(ctx context.Context) error { return t.finish(false) }

func (t *stubTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *stubTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *stubTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *stubTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *stubTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (t *stubTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *stubTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row { return nil }
func (t *stubTx) Conn() *pgx.Conn                                               { return nil }

// stubDB hands out stubTx transactions and remembers them for assertions.
type stubDB struct {
	mu  sync.Mutex
	txs []*stubTx
}

func (d *stubDB) BeginTx(ctx context.Context, _ pgx.TxOptions) (pgx.Tx, error) {
	tx := newStubTx()
	d.mu.Lock()
	d.txs = append(d.txs, tx)
	d.mu.Unlock()
	return tx, nil
}

func (d *stubDB) lastTx() *stubTx {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.txs) == 0 {
		return nil
	}
	return d.txs[len(d.txs)-1]
}
