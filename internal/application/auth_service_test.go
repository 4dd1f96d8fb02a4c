package application

import (
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/contacts-api/internal/domain/entity"
	"github.com/oksasatya/contacts-api/internal/domain/repository"
	"github.com/oksasatya/contacts-api/internal/infrastructure/cache"
	"github.com/oksasatya/contacts-api/pkg/mailer"
	"github.com/oksasatya/contacts-api/pkg/token"
)

const (
	testVerifyURL = "https://app.test/verify"
	testResetURL  = "https://app.test/reset"
)

type fakeUserRepo struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*entity.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*entity.User{}}
}

func (r *fakeUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	r.nextID++
	u.ID = r.nextID
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id int64) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(_ context.Context, email string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) SetRefreshToken(_ context.Context, id int64, tok string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshToken = tok
	return nil
}

func (r *fakeUserRepo) RotateRefreshToken(_ context.Context, id int64, old, next string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || u.RefreshToken != old {
		return repository.ErrNotFound
	}
	u.RefreshToken = next
	return nil
}

func (r *fakeUserRepo) SetVerified(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsVerified = true
	return nil
}

func (r *fakeUserRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Password = hash
	return nil
}

func (r *fakeUserRepo) UpdateAvatar(_ context.Context, id int64, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.AvatarURL = url
	return nil
}

func (r *fakeUserRepo) stored(t *testing.T, id int64) entity.User {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	require.True(t, ok, "user %d not in repo", id)
	return *u
}

var _ repository.UserRepository = (*fakeUserRepo)(nil)

type mapCache struct {
	mu sync.Mutex
	m  map[string][]byte
}

func (c *mapCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.m[key]
	return b, ok, nil
}

func (c *mapCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = value
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	jobs []mailer.EmailJob
}

func (p *fakePublisher) PublishJSON(_ context.Context, body any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.jobs = append(p.jobs, body.(mailer.EmailJob))
	return nil
}

func (p *fakePublisher) last(t *testing.T) mailer.EmailJob {
	t.Helper()
	p.mu.Lock()
	defer p.mu.Unlock()
	require.NotEmpty(t, p.jobs, "no email jobs published")
	return p.jobs[len(p.jobs)-1]
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.jobs)
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newAuthFixture() (*AuthService, *fakeUserRepo, *fakePublisher) {
	repo := newFakeUserRepo()
	store := cache.NewUserStore(repo, &mapCache{m: map[string][]byte{}}, time.Minute, quietLogger())
	codec := token.New("test-secret", 15*time.Minute, 7*24*time.Hour, 24*time.Hour, time.Hour)
	pub := &fakePublisher{}
	svc := NewAuthService(repo, store, codec, pub, quietLogger(), testVerifyURL, testResetURL)
	return svc, repo, pub
}

// tokenFromLink extracts the token query parameter from an emailed link.
func tokenFromLink(t *testing.T, job mailer.EmailJob, base string) string {
	t.Helper()
	link, ok := job.Data["Link"].(string)
	require.True(t, ok, "job has no Link")
	require.True(t, strings.HasPrefix(link, base+"?token="), "unexpected link %q", link)
	return strings.TrimPrefix(link, base+"?token=")
}

func TestSignupLoginFlow(t *testing.T) {
	svc, repo, pub := newAuthFixture()
	ctx := context.Background()

	u, err := svc.Signup(ctx, "alice@example.com", "s3cret-pw")
	require.NoError(t, err)
	require.False(t, u.IsVerified)
	require.Equal(t, entity.RoleUser, u.Role)

	job := pub.last(t)
	require.Equal(t, "alice@example.com", job.To)
	require.Equal(t, mailer.TemplateVerifyEmail, job.Template)

	// Unverified with the right password is a distinct failure from bad
	// credentials, and bad credentials win when both apply.
	_, err = svc.Login(ctx, "alice@example.com", "wrong-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "alice@example.com", "s3cret-pw")
	require.ErrorIs(t, err, ErrEmailNotVerified)
	_, err = svc.Login(ctx, "nobody@example.com", "s3cret-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	verifyTok := tokenFromLink(t, job, testVerifyURL)
	confirmed, err := svc.ConfirmEmail(ctx, verifyTok)
	require.NoError(t, err)
	require.True(t, confirmed.IsVerified)

	pair, err := svc.Login(ctx, "alice@example.com", "s3cret-pw")
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.True(t, pair.RefreshTokenExpiry.After(pair.AccessTokenExpiry))
	require.Equal(t, pair.RefreshToken, repo.stored(t, u.ID).RefreshToken)
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "bob@example.com", "pw-one")
	require.NoError(t, err)
	_, err = svc.Signup(ctx, "bob@example.com", "pw-two")
	require.ErrorIs(t, err, ErrEmailTaken)
}

// seedVerified registers and verifies a user without going through email.
func seedVerified(t *testing.T, svc *AuthService, repo *fakeUserRepo, email, password string) *entity.User {
	t.Helper()
	u, err := svc.Signup(context.Background(), email, password)
	require.NoError(t, err)
	require.NoError(t, repo.SetVerified(context.Background(), u.ID))
	u.IsVerified = true
	return u
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	ctx := context.Background()
	u := seedVerified(t, svc, repo, "carol@example.com", "carol-pw")

	pair, err := svc.Login(ctx, "carol@example.com", "carol-pw")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)
	require.Equal(t, next.RefreshToken, repo.stored(t, u.ID).RefreshToken)
}

func TestRefreshRejectsSupersededToken(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	ctx := context.Background()
	u := seedVerified(t, svc, repo, "dave@example.com", "dave-pw")

	pair, err := svc.Login(ctx, "dave@example.com", "dave-pw")
	require.NoError(t, err)

	// Another session rotated first; the old token must be dead even though
	// it still verifies cryptographically.
	require.NoError(t, repo.SetRefreshToken(ctx, u.ID, "token-from-newer-session"))
	_, err = svc.Refresh(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	require.Equal(t, "token-from-newer-session", repo.stored(t, u.ID).RefreshToken)
}

func TestRefreshRejectsWrongKind(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	ctx := context.Background()
	seedVerified(t, svc, repo, "erin@example.com", "erin-pw")

	pair, err := svc.Login(ctx, "erin@example.com", "erin-pw")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Refresh(ctx, "not-a-token")
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCurrentUser(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	ctx := context.Background()
	u := seedVerified(t, svc, repo, "frank@example.com", "frank-pw")

	pair, err := svc.Login(ctx, "frank@example.com", "frank-pw")
	require.NoError(t, err)

	got, err := svc.CurrentUser(ctx, pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)
	require.Equal(t, "frank@example.com", got.Email)

	// A refresh token is not an access token.
	_, err = svc.CurrentUser(ctx, pair.RefreshToken)
	require.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestConfirmEmailIdempotent(t *testing.T) {
	svc, _, pub := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "grace@example.com", "grace-pw")
	require.NoError(t, err)
	verifyTok := tokenFromLink(t, pub.last(t), testVerifyURL)

	first, err := svc.ConfirmEmail(ctx, verifyTok)
	require.NoError(t, err)
	require.True(t, first.IsVerified)

	second, err := svc.ConfirmEmail(ctx, verifyTok)
	require.NoError(t, err)
	require.True(t, second.IsVerified)
}

func TestConfirmEmailRejectsWrongKind(t *testing.T) {
	svc, repo, _ := newAuthFixture()
	ctx := context.Background()
	seedVerified(t, svc, repo, "heidi@example.com", "heidi-pw")

	pair, err := svc.Login(ctx, "heidi@example.com", "heidi-pw")
	require.NoError(t, err)

	_, err = svc.ConfirmEmail(ctx, pair.AccessToken)
	require.ErrorIs(t, err, ErrInvalidToken)
	_, err = svc.ConfirmEmail(ctx, "garbage")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestPasswordResetFlow(t *testing.T) {
	svc, repo, pub := newAuthFixture()
	ctx := context.Background()
	seedVerified(t, svc, repo, "ivan@example.com", "old-pw")

	require.NoError(t, svc.RequestPasswordReset(ctx, "ivan@example.com"))
	job := pub.last(t)
	require.Equal(t, mailer.TemplatePasswordReset, job.Template)

	resetTok := tokenFromLink(t, job, testResetURL)
	require.NoError(t, svc.ConfirmPasswordReset(ctx, resetTok, "new-pw"))

	_, err := svc.Login(ctx, "ivan@example.com", "old-pw")
	require.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "ivan@example.com", "new-pw")
	require.NoError(t, err)
}

func TestPasswordResetDoesNotLeakExistence(t *testing.T) {
	svc, repo, pub := newAuthFixture()
	ctx := context.Background()
	seedVerified(t, svc, repo, "judy@example.com", "judy-pw")
	before := pub.count()

	require.NoError(t, svc.RequestPasswordReset(ctx, "judy@example.com"))
	require.NoError(t, svc.RequestPasswordReset(ctx, "ghost@example.com"))

	// Same nil result either way; only the real address got a job.
	require.Equal(t, before+1, pub.count())
}

func TestConfirmPasswordResetRejectsWrongKind(t *testing.T) {
	svc, _, pub := newAuthFixture()
	ctx := context.Background()

	_, err := svc.Signup(ctx, "kim@example.com", "kim-pw")
	require.NoError(t, err)
	verifyTok := tokenFromLink(t, pub.last(t), testVerifyURL)

	err = svc.ConfirmPasswordReset(ctx, verifyTok, "new-pw")
	require.ErrorIs(t, err, ErrInvalidToken)
}

func TestRequireAdmin(t *testing.T) {
	svc, _, _ := newAuthFixture()

	admin := &entity.User{ID: 1, Role: entity.RoleAdmin}
	got, err := svc.RequireAdmin(admin)
	require.NoError(t, err)
	require.Equal(t, admin, got)

	_, err = svc.RequireAdmin(&entity.User{ID: 2, Role: entity.RoleUser})
	require.ErrorIs(t, err, ErrForbidden)
	_, err = svc.RequireAdmin(nil)
	require.ErrorIs(t, err, ErrForbidden)
}
