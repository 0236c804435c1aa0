package handler

import (
	"net/http"
	"time"
)

const refreshCookieName = "refreshToken"

// refresh token cookieの属性
type CookieConfig struct {
	Secure bool
	TTL    time.Duration
}

// JSからは読めない・同一サイトのみ
func (cc CookieConfig) refreshCookie(value string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  expiresAt,
		MaxAge:   int(cc.TTL.Seconds()),
	}
}

func (cc CookieConfig) clearedRefreshCookie() *http.Cookie {
	return &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
	}
}
