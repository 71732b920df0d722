package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"kabuscalp/internal/store"
)

// State 为当前持仓的持久化快照。
// 系统同一时刻最多持有一只标的，因此表里至多一行。
type State struct {
	Symbol      string
	Exchange    int
	Qty         float64
	EntryPrice  float64
	StopPrice   float64
	ExitOrderID string
	EnteredAt   time.Time
	UpdatedAt   time.Time
}

// Repository 把单仓状态落到 SQLite，保证进程重启后可以恢复。
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRepository 创建仓位仓库并初始化表结构。
func NewRepository(db *sql.DB, logger *zap.Logger) (*Repository, error) {
	if db == nil {
		return nil, errors.New("position: 数据库实例不能为空")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	repo := &Repository{db: db, logger: logger}
	if err := repo.initSchema(); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *Repository) initSchema() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS position_state (
			slot INTEGER PRIMARY KEY CHECK (slot = 0),
			symbol TEXT NOT NULL,
			exchange INTEGER NOT NULL,
			qty REAL NOT NULL,
			entry_price REAL NOT NULL,
			stop_price REAL NOT NULL,
			exit_order_id TEXT NOT NULL DEFAULT '',
			entered_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS position_history (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			occurred_at TEXT NOT NULL,
			event_type TEXT NOT NULL,
			symbol TEXT NOT NULL,
			qty REAL NOT NULL,
			price REAL NOT NULL,
			details TEXT
		);`,
	}

	return store.ApplySchema(r.db, "position", schema...)
}

// Load 读取当前持仓，不存在时返回 ok=false。
func (r *Repository) Load(ctx context.Context) (State, bool, error) {
	var (
		st        State
		enteredAt string
		updatedAt string
	)

	row := r.db.QueryRowContext(ctx,
		`SELECT symbol, exchange, qty, entry_price, stop_price, exit_order_id, entered_at, updated_at
		 FROM position_state WHERE slot = 0`)
	err := row.Scan(&st.Symbol, &st.Exchange, &st.Qty, &st.EntryPrice, &st.StopPrice, &st.ExitOrderID, &enteredAt, &updatedAt)
	switch {
	case err == nil:
		st.EnteredAt, _ = time.Parse(time.RFC3339, enteredAt)
		st.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
		return st, true, nil
	case errors.Is(err, sql.ErrNoRows):
		return State{}, false, nil
	default:
		return State{}, false, fmt.Errorf("position: 读取仓位状态失败: %w", err)
	}
}

// Save 覆盖写入当前持仓。入场与退出单更新都走这里，先落库再下单。
func (r *Repository) Save(ctx context.Context, st State) error {
	now := time.Now().UTC().Format(time.RFC3339)
	enteredAt := st.EnteredAt
	if enteredAt.IsZero() {
		enteredAt = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO position_state (slot, symbol, exchange, qty, entry_price, stop_price, exit_order_id, entered_at, updated_at)
		 VALUES (0, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(slot) DO UPDATE SET
			symbol = excluded.symbol,
			exchange = excluded.exchange,
			qty = excluded.qty,
			entry_price = excluded.entry_price,
			stop_price = excluded.stop_price,
			exit_order_id = excluded.exit_order_id,
			entered_at = excluded.entered_at,
			updated_at = excluded.updated_at`,
		st.Symbol, st.Exchange, st.Qty, st.EntryPrice, st.StopPrice, st.ExitOrderID,
		enteredAt.Format(time.RFC3339), now,
	)
	if err != nil {
		return fmt.Errorf("position: 写入仓位状态失败: %w", err)
	}

	return nil
}

// Clear 清除当前持仓并记录一条历史。
func (r *Repository) Clear(ctx context.Context, eventType string, st State) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("position: 开启事务失败: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM position_state WHERE slot = 0`); err != nil {
		err = fmt.Errorf("position: 清除仓位状态失败: %w", err)
		return err
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO position_history (occurred_at, event_type, symbol, qty, price, details)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		time.Now().UTC().Format(time.RFC3339), eventType, st.Symbol, st.Qty, st.EntryPrice, st.ExitOrderID,
	); err != nil {
		err = fmt.Errorf("position: 记录仓位历史失败: %w", err)
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("position: 提交事务失败: %w", err)
	}

	return nil
}
