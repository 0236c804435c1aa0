package usecase

import (
	"errors"
	"fmt"
	"net/http"
)

// エラーの種類（HTTPステータスへの対応はここだけで決める）
type Kind int

const (
	KindValidation Kind = iota + 1
	KindUnauthenticated
	KindForbidden
	KindConflict
	KindNotFound
	KindIntegrity
	KindTooManyRequests
)

// Conflictはフロントの期待に合わせて400で返す
func (k Kind) Status() int {
	switch k {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindTooManyRequests:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// レスポンスのerrorフィールドに入れるコード
func (k Kind) Code() string {
	switch k {
	case KindValidation:
		return "VALIDATION_ERROR"
	case KindUnauthenticated:
		return "UNAUTHORIZED"
	case KindForbidden:
		return "FORBIDDEN"
	case KindConflict:
		return "CONFLICT"
	case KindNotFound:
		return "NOT_FOUND"
	case KindTooManyRequests:
		return "TOO_MANY_REQUESTS"
	default:
		return "INTERNAL"
	}
}

// usecaseが返すエラー。Errは内部ログ用でクライアントには出さない。
type AppError struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewError(kind Kind, msg string) error {
	return &AppError{Kind: kind, Message: msg}
}

func Validation(msg string) error      { return NewError(KindValidation, msg) }
func Unauthenticated(msg string) error { return NewError(KindUnauthenticated, msg) }
func Forbidden(msg string) error       { return NewError(KindForbidden, msg) }
func Conflict(msg string) error        { return NewError(KindConflict, msg) }
func NotFound(msg string) error        { return NewError(KindNotFound, msg) }

// ストア障害など。メッセージは固定で中身は漏らさない。
func Integrity(err error) error {
	return &AppError{Kind: KindIntegrity, Message: "internal error", Err: err}
}

func AsAppError(err error) (*AppError, bool) {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// AppError以外は全部Integrity扱い
func KindOf(err error) Kind {
	if ae, ok := AsAppError(err); ok {
		return ae.Kind
	}
	return KindIntegrity
}

// tx内で返したエラーはそのまま、それ以外はIntegrityに包む
func asAppError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := AsAppError(err); ok {
		return err
	}
	return Integrity(err)
}

const (
	msgInvalidCredentials = "invalid email or password"
	msgInvalidSession     = "invalid session"
)

// ログイン失敗はユーザーの有無を区別しない
func errInvalidCredentials() error {
	return Unauthenticated(msgInvalidCredentials)
}

// rotateの失敗理由はすべて同じに見せる
func errInvalidSession() error {
	return Unauthenticated(msgInvalidSession)
}
