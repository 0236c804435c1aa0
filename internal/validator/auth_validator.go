package validator

import (
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	minPasswordLen = 8
	// bcryptは72byteまで
	maxPasswordBytes = 72
	minNicknameLen   = 3
	maxNicknameLen   = 50
	maxEmailLen      = 255
)

// 入力が不正。Messageはそのままクライアントに返してよい。
type Error struct {
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &Error{Message: msg}
}

// よく使われる弱いパスワード
var weakPasswords = map[string]struct{}{
	"password":  {},
	"password1": {},
	"12345678":  {},
	"123456789": {},
	"qwertyui":  {},
	"11111111":  {},
}

// ドメインにドットがあること
var emailLike = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// 保存・検索用に小文字へ
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// 正規化済みのemailを検証
func Email(email string) error {
	if email == "" {
		return invalid("email is required")
	}
	if len(email) > maxEmailLen {
		return invalid("email is too long")
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !emailLike.MatchString(email) {
		return invalid("invalid email")
	}
	return nil
}

func Password(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLen {
		return invalid("password must be at least 8 characters")
	}
	if len(password) > maxPasswordBytes {
		return invalid("password is too long")
	}
	if _, weak := weakPasswords[strings.ToLower(password)]; weak {
		return invalid("password is too weak")
	}
	return nil
}

// 前後の空白を除いて3〜50文字。整形後の値を返す。
func Nickname(nickname string) (string, error) {
	n := strings.TrimSpace(nickname)
	l := utf8.RuneCountInString(n)
	if l < minNicknameLen {
		return "", invalid("nickname must be at least 3 characters")
	}
	if l > maxNicknameLen {
		return "", invalid("nickname must be at most 50 characters")
	}
	return n, nil
}
