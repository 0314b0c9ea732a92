// Package board は盤面のライフサイクル（作成、current盤面の取得、マスの反転）を管理する。
package board

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/bingo/internal/model"
	"github.com/hitoshi/bingo/internal/repository"
)

// OptionPool は盤面の候補ラベルを提供する。
type OptionPool interface {
	OptionPool(ctx context.Context) ([]string, error)
}

// Recorder は盤面操作のメトリクスを記録する。
type Recorder interface {
	RecordBoardCreated()
	RecordBoardCreateLatency(duration time.Duration)
	RecordFlip()
}

// Service は盤面に関するビジネスロジックを提供する。
// 呼び出し元は認可ゲートでallowed=trueと判定済みであることを前提とする。
type Service struct {
	repo     repository.BoardRepository
	pool     OptionPool
	recorder Recorder
	intN     func(n int) int
	now      func() time.Time
}

// NewService はServiceを生成する。
func NewService(repo repository.BoardRepository, pool OptionPool, recorder Recorder) *Service {
	return &Service{
		repo:     repo,
		pool:     pool,
		recorder: recorder,
		intN:     rand.IntN,
		now:      time.Now,
	}
}

// GetOrCreateCurrentBoard はユーザーのcurrent盤面を返す。存在しない場合は新規作成する。
func (s *Service) GetOrCreateCurrentBoard(ctx context.Context, userID int64) (*model.Board, error) {
	current, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find current board: %w", err)
	}
	if current != nil {
		return current, nil
	}

	return s.CreateBoard(ctx, userID)
}

// CreateBoard は候補から25個のラベルを重複なく無作為に選んで盤面を作成し、
// ユーザーの既存のcurrent盤面と置き換える。
// 候補が25個未満の場合はInsufficientPoolエラーを返し、何も保存しない。
func (s *Service) CreateBoard(ctx context.Context, userID int64) (*model.Board, error) {
	start := s.now()

	labels, err := s.pool.OptionPool(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load option pool: %w", err)
	}
	if len(labels) < model.CellCount {
		return nil, model.NewInsufficientPoolError(len(labels))
	}

	board := &model.Board{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: start.UTC(),
	}
	for i, label := range s.sample(labels, model.CellCount) {
		board.Cells[i/model.BoardSize][i%model.BoardSize] = model.Cell{
			Label: label,
			Index: i,
		}
	}

	if err := s.repo.ReplaceCurrent(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to replace current board: %w", err)
	}

	s.recorder.RecordBoardCreated()
	s.recorder.RecordBoardCreateLatency(s.now().Sub(start))
	slog.Info("board created",
		slog.Int64("user_id", userID),
		slog.String("board_id", board.ID),
	)
	return board, nil
}

// sample はlabelsからk個を非復元抽出する。抽出順がそのまま配置順になる。
// labelsは変更しない。
func (s *Service) sample(labels []string, k int) []string {
	pool := make([]string, len(labels))
	copy(pool, labels)

	// 部分的なFisher-Yatesシャッフル
	for i := 0; i < k; i++ {
		j := i + s.intN(len(pool)-i)
		pool[i], pool[j] = pool[j], pool[i]
	}
	return pool[:k]
}

// FlipCell はcurrent盤面のindex番目のマスのチェック状態を反転して保存する。
// current盤面がない場合、またはindexが範囲外の場合は盤面を変更せずエラーを返す。
// solvedは縦・横・対角線のいずれかが揃っているかで毎回再計算する。
//
// 同一ユーザーのCreateBoardと競合した場合は後勝ちとなる。
func (s *Service) FlipCell(ctx context.Context, userID int64, index int) (*model.Board, error) {
	board, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find current board: %w", err)
	}
	if board == nil {
		return nil, model.NewNoCurrentBoardError()
	}
	if !model.ValidIndex(index) {
		return nil, model.NewInvalidIndexError(index)
	}

	if !board.Toggle(index) {
		return board, nil
	}
	board.Solved = board.HasLine()

	if err := s.repo.Put(ctx, board); err != nil {
		return nil, fmt.Errorf("failed to save board: %w", err)
	}

	s.recorder.RecordFlip()
	return board, nil
}

// CurrentBoard はユーザーのcurrent盤面を返す。存在しない場合はnilを返す。
func (s *Service) CurrentBoard(ctx context.Context, userID int64) (*model.Board, error) {
	board, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find current board: %w", err)
	}
	return board, nil
}

// ListBoards はユーザーの盤面履歴を新しい順に返す。
func (s *Service) ListBoards(ctx context.Context, userID int64) ([]model.BoardSummary, error) {
	boards, err := s.repo.FindAllByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}

	summaries := make([]model.BoardSummary, 0, len(boards))
	for _, b := range boards {
		summaries = append(summaries, b.Summary())
	}
	return summaries, nil
}
