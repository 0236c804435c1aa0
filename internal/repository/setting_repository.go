package repository

import "context"

// key/value設定
type SettingRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Upsert(ctx context.Context, key string, value string) error
}
