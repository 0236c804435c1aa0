package usecase

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"storefront/internal/domain/model"
	"storefront/internal/repository"
	"storefront/internal/validator"
)

const maxUserAgent = 255

type AuthOptions struct {
	RefreshTTL time.Duration
	// 使用済みtokenが再提示されたら後続のtokenもまとめて失効する
	ReuseCascade bool
}

type RegisterInput struct {
	Email    string
	Password string
	Nickname string
}

type LoginInput struct {
	Email     string
	Password  string
	UserAgent string
}

// handlerがJSONとcookieに詰める値
type SessionOutput struct {
	Identity              model.Identity
	Theme                 model.Theme
	AccessToken           string
	AccessTokenExpiresAt  time.Time
	RefreshToken          string
	RefreshTokenExpiresAt time.Time
}

// 登録・ログイン・rotate・ログアウト
type AuthUsecase struct {
	users     repository.UserRepository
	tokens    repository.RefreshTokenRepository
	tx        repository.TransactionManager
	hasher    PasswordHasher
	issuer    AccessTokenIssuer
	clock     Clock
	idGen     IDGenerator
	events    EventPublisher
	opts      AuthOptions
	dummyOnce sync.Once
	dummy     string
}

func NewAuthUsecase(
	users repository.UserRepository,
	tokens repository.RefreshTokenRepository,
	tx repository.TransactionManager,
	hasher PasswordHasher,
	issuer AccessTokenIssuer,
	clock Clock,
	idGen IDGenerator,
	events EventPublisher,
	opts AuthOptions,
) *AuthUsecase {
	return &AuthUsecase{
		users:  users,
		tokens: tokens,
		tx:     tx,
		hasher: hasher,
		issuer: issuer,
		clock:  clock,
		idGen:  idGen,
		events: events,
		opts:   opts,
	}
}

func normalizeEmail(email string) string {
	return validator.NormalizeEmail(email)
}

// validatorのエラーはValidationにする
func invalidInput(err error) error {
	if err == nil {
		return nil
	}
	var ve *validator.Error
	if errors.As(err, &ve) {
		return Validation(ve.Message)
	}
	return Integrity(err)
}

func validateEmail(email string) error {
	return invalidInput(validator.Email(email))
}

func validatePassword(password string) error {
	return invalidInput(validator.Password(password))
}

func validateNickname(nickname string) (string, error) {
	n, err := validator.Nickname(nickname)
	return n, invalidInput(err)
}

func truncateUserAgent(ua string) string {
	if len(ua) <= maxUserAgent {
		return ua
	}
	// マルチバイトの途中で切らない
	cut := ua[:maxUserAgent]
	for !utf8.ValidString(cut) {
		cut = cut[:len(cut)-1]
	}
	return cut
}

// 新規登録。emailは小文字に正規化して保存する。
func (u *AuthUsecase) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	email := normalizeEmail(in.Email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	nickname, err := validateNickname(in.Nickname)
	if err != nil {
		return nil, err
	}

	//先に存在確認（最終的には一意制約で守る）
	if _, err := u.users.FindByEmail(ctx, email); err == nil {
		return nil, Conflict("email already registered")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, Integrity(err)
	}

	pwHash, err := u.hasher.Hash(in.Password)
	if err != nil {
		return nil, Integrity(err)
	}

	user := &model.User{
		Email:        email,
		PasswordHash: pwHash,
		Nickname:     nickname,
		Role:         model.RoleUser,
		Theme:        model.ThemeLight,
	}
	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, Conflict("email already registered")
		}
		return nil, Integrity(err)
	}

	publishEvent(ctx, u.events, u.idGen, u.clock, TopicUserEvents, user.Email, EventUserRegistered, UserRegisteredPayload{
		UserID:   user.ID,
		Email:    user.Email,
		Nickname: user.Nickname,
	})

	return user, nil
}

// 起動時の管理者作成。既にいればroleだけadminに揃える。
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email, password, nickname string) (created bool, err error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return false, err
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role.IsAdmin() {
			return false, nil
		}
		if err := u.users.UpdateRole(ctx, existing.ID, model.RoleAdmin); err != nil {
			return false, Integrity(err)
		}
		return false, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return false, Integrity(err)
	}

	if err := validatePassword(password); err != nil {
		return false, err
	}
	nick, err := validateNickname(nickname)
	if err != nil {
		return false, err
	}
	pwHash, err := u.hasher.Hash(password)
	if err != nil {
		return false, Integrity(err)
	}

	admin := &model.User{
		Email:        email,
		PasswordHash: pwHash,
		Nickname:     nick,
		Role:         model.RoleAdmin,
		Theme:        model.ThemeLight,
	}
	if err := u.users.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return false, nil
		}
		return false, Integrity(err)
	}
	return true, nil
}

// ユーザーが居ない時の比較用ハッシュ（同じhasherで一度だけ作る）
func (u *AuthUsecase) dummyHash() string {
	u.dummyOnce.Do(func() {
		h, err := u.hasher.Hash("storefront-nonexistent-user")
		if err == nil {
			u.dummy = h
		}
	})
	return u.dummy
}

// ログイン。emailが無い場合もパスワード違いも同じエラー。
func (u *AuthUsecase) Login(ctx context.Context, in LoginInput) (SessionOutput, error) {
	email := normalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return SessionOutput{}, Validation("email and password are required")
	}

	user, err := u.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_ = u.hasher.Verify(in.Password, u.dummyHash())
			return SessionOutput{}, errInvalidCredentials()
		}
		return SessionOutput{}, Integrity(err)
	}

	if !u.hasher.Verify(in.Password, user.PasswordHash) {
		return SessionOutput{}, errInvalidCredentials()
	}

	now := u.clock.Now()
	out, err := u.newSession(user, now)
	if err != nil {
		return SessionOutput{}, err
	}

	rt := &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashRefreshToken(out.RefreshToken),
		UserAgent: truncateUserAgent(in.UserAgent),
		ExpiresAt: out.RefreshTokenExpiresAt,
	}
	if err := u.tokens.Create(ctx, rt); err != nil {
		return SessionOutput{}, Integrity(err)
	}
	return out, nil
}

// access tokenと新しいrefresh token（平文）を作る。保存は呼び出し側。
func (u *AuthUsecase) newSession(user *model.User, now time.Time) (SessionOutput, error) {
	identity := user.Identity()
	access, accessExp, err := u.issuer.Issue(identity, now)
	if err != nil {
		return SessionOutput{}, Integrity(err)
	}
	plain, _, err := newRefreshToken()
	if err != nil {
		return SessionOutput{}, Integrity(err)
	}
	return SessionOutput{
		Identity:              identity,
		Theme:                 user.Theme,
		AccessToken:           access,
		AccessTokenExpiresAt:  accessExp,
		RefreshToken:          plain,
		RefreshTokenExpiresAt: now.Add(u.opts.RefreshTTL),
	}, nil
}
