package repository

import "errors"

var (
	// 対象の行が存在しない
	ErrNotFound = errors.New("record not found")
	// 一意制約に違反した
	ErrDuplicate = errors.New("duplicate record")
)
