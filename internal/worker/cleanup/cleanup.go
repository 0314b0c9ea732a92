// Package cleanup は期限切れセッションの自動削除ジョブを提供する。
// 期限切れのセッションは参照時に無視されるため、削除はストレージの整理のみを目的とする。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// deleteExpiredQuery は期限切れセッションをBatchSize件ずつ削除する。
const deleteExpiredQuery = `DELETE FROM sessions
WHERE id IN (SELECT id FROM sessions WHERE expires_at < now() LIMIT $1)`

// CleanupJob は期限切れセッションの削除ジョブ。
// 冪等であり、削除対象がない場合もエラーにしない。
type CleanupJob struct {
	db        Executor
	logger    *slog.Logger
	BatchSize int // 1回のDELETEで削除する最大件数（デフォルト: 1000）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(db Executor, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		db:        db,
		logger:    logger,
		BatchSize: 1000,
	}
}

// Run は期限切れセッションを削除する。
// 長時間のロックを避けるため、削除件数がBatchSizeを下回るまでバッチ単位で繰り返す。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := time.Now()

	var total int64
	for {
		result, err := j.db.ExecContext(ctx, deleteExpiredQuery, j.BatchSize)
		if err != nil {
			j.logger.Error("セッションクリーンアップジョブの実行に失敗しました",
				slog.String("error", err.Error()),
				slog.Int64("deleted_count", total),
			)
			return fmt.Errorf("failed to delete expired sessions: %w", err)
		}

		deleted, err := result.RowsAffected()
		if err != nil {
			j.logger.Error("削除件数の取得に失敗しました",
				slog.String("error", err.Error()),
			)
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		total += deleted

		if deleted < int64(j.BatchSize) {
			break
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}

	j.logger.Info("セッションクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", total),
		slog.Int("batch_size", j.BatchSize),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// Start はinterval間隔でRunを実行する。起動直後に1回実行し、
// コンテキストがキャンセルされるまで継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("セッションクリーンアップを開始しました",
		slog.Duration("interval", interval),
	)

	// 失敗はRun内でログ出力済みのため、次の周期で再試行する
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("セッションクリーンアップを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
