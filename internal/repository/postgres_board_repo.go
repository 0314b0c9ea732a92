package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hitoshi/bingo/internal/model"
)

// PostgresBoardRepo はPostgreSQLを使用した盤面リポジトリ。
// マスはJSONBカラムに5x5の配列として保存する。
type PostgresBoardRepo struct {
	db *sql.DB
}

// NewPostgresBoardRepo はPostgresBoardRepoを生成する。
func NewPostgresBoardRepo(db *sql.DB) *PostgresBoardRepo {
	return &PostgresBoardRepo{db: db}
}

const boardColumns = `id, user_id, created_at, current, solved, cells`

// rowScanner は*sql.Rowと*sql.Rowsの共通インターフェース。
type rowScanner interface {
	Scan(dest ...any) error
}

func scanBoard(s rowScanner) (*model.Board, error) {
	board := &model.Board{}
	var cells []byte
	if err := s.Scan(
		&board.ID, &board.UserID, &board.CreatedAt,
		&board.Current, &board.Solved, &cells,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(cells, &board.Cells); err != nil {
		return nil, fmt.Errorf("failed to decode cells of board %s: %w", board.ID, err)
	}
	return board, nil
}

// Get は指定IDの盤面を取得する。見つからない場合はnilを返す。
func (r *PostgresBoardRepo) Get(ctx context.Context, id string) (*model.Board, error) {
	board, err := scanBoard(r.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE id = $1`,
		id,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get board: %w", err)
	}
	return board, nil
}

// Put は盤面のマス状態とsolvedを上書きする。
// flipと新規作成が競合した場合は後勝ちとなり、置き換え済みの盤面に書き込まれることがある。
func (r *PostgresBoardRepo) Put(ctx context.Context, board *model.Board) error {
	cells, err := json.Marshal(board.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode cells: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE boards SET cells = $2, solved = $3 WHERE id = $1`,
		board.ID, cells, board.Solved,
	)
	if err != nil {
		return fmt.Errorf("failed to update board: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("board not found: %s", board.ID)
	}
	return nil
}

// FindCurrentByUser はユーザーのcurrent盤面を取得する。見つからない場合はnilを返す。
func (r *PostgresBoardRepo) FindCurrentByUser(ctx context.Context, userID int64) (*model.Board, error) {
	board, err := scanBoard(r.db.QueryRowContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE user_id = $1 AND current`,
		userID,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find current board: %w", err)
	}
	return board, nil
}

// FindAllByUser はユーザーの全盤面を作成日時の降順で返す。
func (r *PostgresBoardRepo) FindAllByUser(ctx context.Context, userID int64) ([]*model.Board, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+boardColumns+` FROM boards WHERE user_id = $1 ORDER BY created_at DESC, id`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	defer rows.Close()

	var boards []*model.Board
	for rows.Next() {
		board, err := scanBoard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan board: %w", err)
		}
		boards = append(boards, board)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate boards: %w", err)
	}

	return boards, nil
}

// ReplaceCurrent は既存盤面の降格と新盤面の挿入を1トランザクションで行う。
// pg_advisory_xact_lockで同一ユーザーの作成を直列化し、
// boards_one_current_per_user部分ユニークインデックスを最終防衛線とする。
// ctxがキャンセルされた場合はロールバックされ、途中状態は外部から見えない。
func (r *PostgresBoardRepo) ReplaceCurrent(ctx context.Context, board *model.Board) error {
	cells, err := json.Marshal(board.Cells)
	if err != nil {
		return fmt.Errorf("failed to encode cells: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, board.UserID); err != nil {
		return fmt.Errorf("failed to lock user boards: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE boards SET current = FALSE WHERE user_id = $1 AND current`,
		board.UserID,
	); err != nil {
		return fmt.Errorf("failed to demote current board: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO boards (id, user_id, created_at, current, solved, cells)
		 VALUES ($1, $2, $3, TRUE, $4, $5)`,
		board.ID, board.UserID, board.CreatedAt, board.Solved, cells,
	); err != nil {
		return fmt.Errorf("failed to insert board: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	board.Current = true
	return nil
}

// compile-time interface check
var _ BoardRepository = (*PostgresBoardRepo)(nil)
