// Package settings は管理者が運用する候補ラベルと許可リストを読み取る。
// どちらもリクエストごとにDBから読み込み、キャッシュしない。
// 同時刻に重なった読み取りだけをsingleflightで1回のクエリにまとめる。
package settings

import (
	"context"
	"fmt"
	"slices"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/hitoshi/bingo/internal/repository"
)

const (
	optionsKey = "options"
	allowedKey = "allowed"
)

// sharedReadTimeout は複数の呼び出し元で共有する読み取り1回あたりの上限。
const sharedReadTimeout = 5 * time.Second

// Sanitizer はラベル文字列を正規化する。
type Sanitizer interface {
	Clean(raw string) string
}

// Provider は候補プールと許可リストの読み取りを提供する。
type Provider struct {
	repo      repository.SettingsRepository
	sanitizer Sanitizer
	group     singleflight.Group
}

// NewProvider はProviderを生成する。
func NewProvider(repo repository.SettingsRepository, sanitizer Sanitizer) *Provider {
	return &Provider{
		repo:      repo,
		sanitizer: sanitizer,
	}
}

// OptionPool は盤面の候補ラベルを登録順に返す。
// サニタイズ後に空になったラベルは除外し、重複は最初の出現のみ残す。
func (p *Provider) OptionPool(ctx context.Context) ([]string, error) {
	v, err := p.shared(ctx, optionsKey, func(ctx context.Context) (any, error) {
		raw, err := p.repo.ListOptions(ctx)
		if err != nil {
			return nil, err
		}

		seen := make(map[string]struct{}, len(raw))
		labels := make([]string, 0, len(raw))
		for _, r := range raw {
			label := p.sanitizer.Clean(r)
			if label == "" {
				continue
			}
			if _, dup := seen[label]; dup {
				continue
			}
			seen[label] = struct{}{}
			labels = append(labels, label)
		}
		return labels, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load option pool: %w", err)
	}

	// 呼び出し元同士でスライスを共有しない
	return slices.Clone(v.([]string)), nil
}

// AllowList は許可リストを集合として返す。
func (p *Provider) AllowList(ctx context.Context) (map[int64]struct{}, error) {
	v, err := p.shared(ctx, allowedKey, func(ctx context.Context) (any, error) {
		ids, err := p.repo.ListAllowedIDs(ctx)
		if err != nil {
			return nil, err
		}
		set := make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			set[id] = struct{}{}
		}
		return set, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load allow list: %w", err)
	}
	return v.(map[int64]struct{}), nil
}

// IsAllowed は外部IDが許可リストに含まれるかを返す。
// 読み込みに失敗した場合はfalseとエラーを返す。
func (p *Provider) IsAllowed(ctx context.Context, externalID int64) (bool, error) {
	set, err := p.AllowList(ctx)
	if err != nil {
		return false, err
	}
	_, ok := set[externalID]
	return ok, nil
}

// shared はkeyの読み取りを同時刻の呼び出し元とまとめて1回だけ実行する。
// 読み取りは呼び出し元のキャンセルから切り離して実行し、
// 呼び出し元は自分のctxが終了した時点で待機をやめる。
func (p *Provider) shared(ctx context.Context, key string, read func(ctx context.Context) (any, error)) (any, error) {
	ch := p.group.DoChan(key, func() (any, error) {
		readCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedReadTimeout)
		defer cancel()
		return read(readCtx)
	})

	select {
	case res := <-ch:
		return res.Val, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
