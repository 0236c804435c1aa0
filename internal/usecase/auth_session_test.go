package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister_CreatesUserAndPublishesEvent(t *testing.T) {
	env := newTestEnv(t)

	u := env.register(t, "  Alice@Example.COM ", "alice")

	assert.Equal(t, "alice@example.com", u.Email)
	assert.Equal(t, model.RoleUser, u.Role)
	assert.Equal(t, model.ThemeLight, u.Theme)
	assert.NotEqual(t, testPassword, u.PasswordHash)
	assert.Equal(t, []string{EventUserRegistered}, env.events.Types())
	assert.Equal(t, []string{TopicUserEvents}, env.events.topics)
}

func TestRegister_DuplicateEmailIsConflict(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "bob@example.com", "bob")

	_, err := env.auth.Register(context.Background(), RegisterInput{
		Email:    "BOB@example.com",
		Password: testPassword,
		Nickname: "bobby",
	})
	requireKind(t, err, KindConflict)
	assert.Equal(t, 400, KindOf(err).Status())
	assert.Equal(t, int64(1), env.count(t, &model.User{}))
}

func TestRegister_Validation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name string
		in   RegisterInput
	}{
		{"bad email", RegisterInput{Email: "not-an-email", Password: testPassword, Nickname: "abc"}},
		{"short password", RegisterInput{Email: "a@example.com", Password: "short", Nickname: "abc"}},
		{"weak password", RegisterInput{Email: "a@example.com", Password: "password1", Nickname: "abc"}},
		{"short nickname", RegisterInput{Email: "a@example.com", Password: testPassword, Nickname: " ab "}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.auth.Register(context.Background(), tc.in)
			requireKind(t, err, KindValidation)
		})
	}
	assert.Equal(t, int64(0), env.count(t, &model.User{}))
}

func TestLogin_IssuesAccessAndStoresOnlyHash(t *testing.T) {
	env := newTestEnv(t)
	u := env.register(t, "carol@example.com", "carol")

	out := env.login(t, "CAROL@example.com")

	assert.Equal(t, u.ID, out.Identity.UserID)
	assert.Equal(t, model.RoleUser, out.Identity.Role)
	assert.Equal(t, "carol", out.Identity.Nickname)
	assert.Equal(t, env.clock.Now().Add(testRefreshTTL), out.RefreshTokenExpiresAt)

	id, err := env.issuer.Parse(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, out.Identity, id)

	rt := env.tokenRow(t, out.RefreshToken)
	assert.NotEqual(t, out.RefreshToken, rt.TokenHash)
	assert.Len(t, rt.TokenHash, 64)
	assert.Equal(t, model.TokenIssued, rt.State(env.clock.Now()))
	assert.Equal(t, "go-test", rt.UserAgent)
}

func TestLogin_UnknownEmailAndWrongPasswordLookTheSame(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "dave@example.com", "dave")

	_, errUnknown := env.auth.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: testPassword})
	_, errWrong := env.auth.Login(context.Background(), LoginInput{Email: "dave@example.com", Password: "wrong-password"})

	requireKind(t, errUnknown, KindUnauthenticated)
	requireKind(t, errWrong, KindUnauthenticated)
	assert.Equal(t, errUnknown.Error(), errWrong.Error())
	assert.Equal(t, int64(0), env.count(t, &model.RefreshToken{}))
}

func TestRotate_Chain(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "erin@example.com", "erin")
	ctx := context.Background()

	t0 := env.login(t, "erin@example.com").RefreshToken

	s1, err := env.auth.Rotate(ctx, t0, "go-test")
	require.NoError(t, err)
	t1 := s1.RefreshToken
	require.NotEqual(t, t0, t1)

	s2, err := env.auth.Rotate(ctx, t1, "go-test")
	require.NoError(t, err)
	t2 := s2.RefreshToken

	// 使用済みは二度と使えない
	_, err = env.auth.Rotate(ctx, t0, "go-test")
	requireKind(t, err, KindUnauthenticated)
	_, err = env.auth.Rotate(ctx, t1, "go-test")
	requireKind(t, err, KindUnauthenticated)

	// 最新は使える
	_, err = env.auth.Rotate(ctx, t2, "go-test")
	require.NoError(t, err)

	now := env.clock.Now()
	r0 := env.tokenRow(t, t0)
	r1 := env.tokenRow(t, t1)
	assert.Equal(t, model.TokenRotated, r0.State(now))
	require.NotNil(t, r0.ReplacedByTokenHash)
	assert.Equal(t, r1.TokenHash, *r0.ReplacedByTokenHash)
	assert.Equal(t, model.TokenRotated, r1.State(now))
	assert.Equal(t, model.TokenRotated, env.tokenRow(t, t2).State(now))
}

func TestRotate_RejectionsUseTheSameMessage(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "frank@example.com", "frank")
	ctx := context.Background()

	t0 := env.login(t, "frank@example.com").RefreshToken
	_, err := env.auth.Rotate(ctx, t0, "")
	require.NoError(t, err)

	_, errReused := env.auth.Rotate(ctx, t0, "")
	_, errUnknown := env.auth.Rotate(ctx, "definitely-not-a-token", "")
	_, errEmpty := env.auth.Rotate(ctx, "", "")

	for _, err := range []error{errReused, errUnknown, errEmpty} {
		requireKind(t, err, KindUnauthenticated)
		ae, ok := AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, msgInvalidSession, ae.Message)
	}
}

func TestRotate_ConcurrentDuplicateHasExactlyOneWinner(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "grace@example.com", "grace")
	t0 := env.login(t, "grace@example.com").RefreshToken

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		failed  int
	)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := env.auth.Rotate(context.Background(), t0, "go-test")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			if KindOf(err) == KindUnauthenticated {
				failed++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, workers-1, failed)
	// 元の1行 + 勝者の後継1行だけ
	assert.Equal(t, int64(2), env.count(t, &model.RefreshToken{}))
}

func TestRotate_ExpiredTokenAlwaysFails(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "heidi@example.com", "heidi")
	ctx := context.Background()

	t0 := env.login(t, "heidi@example.com").RefreshToken
	env.clock.Advance(testRefreshTTL)

	_, err := env.auth.Rotate(ctx, t0, "")
	requireKind(t, err, KindUnauthenticated)

	// 期限切れはREVOKEDになり、時計を戻しても使えない
	row := env.tokenRow(t, t0)
	assert.NotNil(t, row.RevokedAt)
	assert.Nil(t, row.ReplacedByTokenHash)

	env.clock.Advance(-testRefreshTTL)
	_, err = env.auth.Rotate(ctx, t0, "")
	requireKind(t, err, KindUnauthenticated)
	assert.Equal(t, int64(1), env.count(t, &model.RefreshToken{}))
}

func TestLogout_IsIdempotentAndBlocksRotate(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "ivan@example.com", "ivan")
	ctx := context.Background()

	t0 := env.login(t, "ivan@example.com").RefreshToken

	require.NoError(t, env.auth.Logout(ctx, t0))
	require.NoError(t, env.auth.Logout(ctx, t0))
	require.NoError(t, env.auth.Logout(ctx, "unknown-token"))
	require.NoError(t, env.auth.Logout(ctx, ""))

	assert.Equal(t, model.TokenRevoked, env.tokenRow(t, t0).State(env.clock.Now()))

	_, err := env.auth.Rotate(ctx, t0, "")
	requireKind(t, err, KindUnauthenticated)
}

func TestRotate_ReuseWithoutCascadeKeepsSuccessor(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "judy@example.com", "judy")
	ctx := context.Background()

	t0 := env.login(t, "judy@example.com").RefreshToken
	s1, err := env.auth.Rotate(ctx, t0, "")
	require.NoError(t, err)

	_, err = env.auth.Rotate(ctx, t0, "")
	requireKind(t, err, KindUnauthenticated)

	_, err = env.auth.Rotate(ctx, s1.RefreshToken, "")
	assert.NoError(t, err)
}

func TestRotate_ReuseWithCascadeRevokesSuccessors(t *testing.T) {
	env := newTestEnv(t, withCascade)
	env.register(t, "mallory@example.com", "mallory")
	ctx := context.Background()

	t0 := env.login(t, "mallory@example.com").RefreshToken
	s1, err := env.auth.Rotate(ctx, t0, "")
	require.NoError(t, err)
	s2, err := env.auth.Rotate(ctx, s1.RefreshToken, "")
	require.NoError(t, err)

	// 盗まれたt0が再提示された
	_, err = env.auth.Rotate(ctx, t0, "")
	requireKind(t, err, KindUnauthenticated)

	_, err = env.auth.Rotate(ctx, s2.RefreshToken, "")
	requireKind(t, err, KindUnauthenticated)
	assert.Equal(t, model.TokenRevoked, env.tokenRow(t, s2.RefreshToken).State(env.clock.Now()))
}

func TestRotate_OtherSessionsAreIndependent(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "oscar@example.com", "oscar")
	ctx := context.Background()

	a := env.login(t, "oscar@example.com").RefreshToken
	b := env.login(t, "oscar@example.com").RefreshToken

	require.NoError(t, env.auth.Logout(ctx, a))
	_, err := env.auth.Rotate(ctx, b, "")
	assert.NoError(t, err)
}

func TestPurgeExpired(t *testing.T) {
	env := newTestEnv(t)
	env.register(t, "peggy@example.com", "peggy")
	ctx := context.Background()

	env.login(t, "peggy@example.com")
	env.clock.Advance(testRefreshTTL + 48*time.Hour)
	env.login(t, "peggy@example.com")

	n, err := env.auth.PurgeExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, int64(1), env.count(t, &model.RefreshToken{}))

	_, err = env.auth.PurgeExpired(ctx, -time.Second)
	requireKind(t, err, KindValidation)
}

func TestEnsureAdmin_CreatesThenPromotes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.auth.EnsureAdmin(ctx, "root@example.com", testPassword, "root")
	require.NoError(t, err)
	assert.True(t, created)

	created, err = env.auth.EnsureAdmin(ctx, "root@example.com", testPassword, "root")
	require.NoError(t, err)
	assert.False(t, created)

	u := env.register(t, "promote@example.com", "promote")
	created, err = env.auth.EnsureAdmin(ctx, "promote@example.com", "", "")
	require.NoError(t, err)
	assert.False(t, created)

	got, err := env.users.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
}
