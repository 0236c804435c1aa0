package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// postgres: unique_violation
const pgUniqueViolation = "23505"

// mysql: ER_DUP_ENTRY
const mysqlDupEntry = 1062

// 一意制約違反かどうか（ドライバごとにエラー型が違う）
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDupEntry
	}

	//sqliteはメッセージで判定
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
