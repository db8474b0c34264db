package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubLimiter struct {
	max      int
	failures map[string]int
	err      error
	resets   int
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{max: max, failures: make(map[string]int)}
}

func (l *stubLimiter) Allowed(_ context.Context, key string) (bool, error) {
	if l.err != nil {
		return false, l.err
	}
	return l.failures[key] < l.max, nil
}

func (l *stubLimiter) RecordFailure(_ context.Context, key string) error {
	if l.err != nil {
		return l.err
	}
	l.failures[key]++
	return nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	l.resets++
	delete(l.failures, key)
	return nil
}

type recordingAudit struct {
	mu     sync.Mutex
	events []domain.AuditEvent
}

func (r *recordingAudit) Record(e domain.AuditEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingAudit) actions() []domain.AuditAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.AuditAction, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

var discardLogger = zerolog.Nop()

type authFixture struct {
	svc     *AuthService
	creds   *CredentialStore
	repo    *stubUserRepo
	tokens  *TokenService
	limiter *stubLimiter
	audit   *recordingAudit
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	creds, repo := newTestCredentialStore()
	tokens := newTestTokenService(t, time.Hour)
	limiter := newStubLimiter(3)
	audit := &recordingAudit{}
	return &authFixture{
		svc:     NewAuthService(creds, tokens, limiter, audit, discardLogger),
		creds:   creds,
		repo:    repo,
		tokens:  tokens,
		limiter: limiter,
		audit:   audit,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_ForcesPlayerRole(t *testing.T) {
	f := newAuthFixture(t)

	u, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.HasRole(domain.RoleAdmin) || !u.HasRole(domain.RolePlayer) {
		t.Errorf("registered users are players only, got %v", u.Roles)
	}
	if got := f.audit.actions(); len(got) != 1 || got[0] != domain.AuditUserRegistered {
		t.Errorf("audit: want [user.registered], got %v", got)
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	_, err := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "x"})
	if !errors.Is(err, domain.ErrDuplicateUsername) {
		t.Errorf("want ErrDuplicateUsername, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_IssuesVerifiableToken(t *testing.T) {
	f := newAuthFixture(t)
	u, _ := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	res, err := f.svc.Login(context.Background(), "alice", "pw123")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	claims, err := f.tokens.Verify(res.Token, time.Now())
	if err != nil {
		t.Fatalf("issued token must verify: %v", err)
	}
	if claims.Subject != u.ID {
		t.Errorf("subject: want %q, got %q", u.ID, claims.Subject)
	}
	if !res.ExpiresAt.Equal(claims.ExpiresAt) {
		t.Errorf("ExpiresAt: result %v, token %v", res.ExpiresAt, claims.ExpiresAt)
	}
	if res.User.ID != u.ID {
		t.Errorf("result user: want %q, got %q", u.ID, res.User.ID)
	}
}

func TestAuthService_Login_WrongPasswordAndUnknownUserLookAlike(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	_, errWrong := f.svc.Login(context.Background(), "alice", "nope")
	_, errUnknown := f.svc.Login(context.Background(), "mallory", "nope")

	if !errors.Is(errWrong, domain.ErrInvalidCredentials) || !errors.Is(errUnknown, domain.ErrInvalidCredentials) {
		t.Fatalf("want ErrInvalidCredentials for both, got %v / %v", errWrong, errUnknown)
	}
	if errWrong.Error() != errUnknown.Error() {
		t.Errorf("messages must not reveal which part was wrong: %q vs %q", errWrong, errUnknown)
	}
}

func TestAuthService_Login_EmptyCredentials(t *testing.T) {
	f := newAuthFixture(t)
	if _, err := f.svc.Login(context.Background(), "", ""); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
	if f.repo.calls != 0 {
		t.Errorf("empty credentials must not reach the store, got %d calls", f.repo.calls)
	}
}

func TestAuthService_Login_Throttled(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	for i := 0; i < 3; i++ {
		_, _ = f.svc.Login(context.Background(), "alice", "bad")
	}

	_, err := f.svc.Login(context.Background(), "alice", "pw123")
	if !errors.Is(err, domain.ErrTooManyAttempts) {
		t.Errorf("want ErrTooManyAttempts after 3 failures, got %v", err)
	}
}

func TestAuthService_Login_SuccessResetsLimiter(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	_, _ = f.svc.Login(context.Background(), "alice", "bad")
	if _, err := f.svc.Login(context.Background(), "alice", "pw123"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if f.limiter.failures["alice"] != 0 || f.limiter.resets != 1 {
		t.Errorf("successful login must reset the counter: failures=%d resets=%d", f.limiter.failures["alice"], f.limiter.resets)
	}
}

func TestAuthService_Login_LimiterFailureFailsOpen(t *testing.T) {
	f := newAuthFixture(t)
	_, _ = f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})
	f.limiter.err = errors.New("redis down")

	if _, err := f.svc.Login(context.Background(), "alice", "pw123"); err != nil {
		t.Errorf("limiter errors must not block login, got %v", err)
	}
}

func TestAuthService_Login_DisabledUser(t *testing.T) {
	f := newAuthFixture(t)
	u, _ := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})
	_ = f.creds.SetDisabled(context.Background(), u.ID, true)

	if _, err := f.svc.Login(context.Background(), "alice", "pw123"); !errors.Is(err, domain.ErrUserDisabled) {
		t.Errorf("want ErrUserDisabled, got %v", err)
	}
}

func TestAuthService_Login_StoreErrorPropagates(t *testing.T) {
	f := newAuthFixture(t)
	f.repo.findErr = domain.ErrStoreUnavailable

	if _, err := f.svc.Login(context.Background(), "alice", "pw123"); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("want ErrStoreUnavailable, got %v", err)
	}
	if len(f.limiter.failures) != 0 {
		t.Error("store outages must not count as failed attempts")
	}
}

func TestAuthService_Login_NilLimiter(t *testing.T) {
	creds, _ := newTestCredentialStore()
	svc := NewAuthService(creds, newTestTokenService(t, time.Hour), nil, nil, discardLogger)
	_, _ = svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})

	if _, err := svc.Login(context.Background(), "alice", "bad"); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Errorf("want ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "alice", "pw123"); err != nil {
		t.Errorf("Login: %v", err)
	}
}

// ---------------------------------------------------------------------------
// ChangePassword / EnsureAdmin
// ---------------------------------------------------------------------------

func TestAuthService_ChangePassword(t *testing.T) {
	f := newAuthFixture(t)
	u, _ := f.svc.Register(context.Background(), ports.RegisterInput{Username: "alice", Password: "pw123"})
	me := domain.Principal{Subject: u.ID, Roles: u.Roles}

	if err := f.svc.ChangePassword(context.Background(), domain.Principal{}, "pw123", "x"); !errors.Is(err, domain.ErrUnauthenticated) {
		t.Errorf("anonymous: want ErrUnauthenticated, got %v", err)
	}
	if err := f.svc.ChangePassword(context.Background(), me, "pw123", "pw456"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, err := f.svc.Login(context.Background(), "alice", "pw456"); err != nil {
		t.Errorf("login with new password: %v", err)
	}
}

func TestAuthService_EnsureAdmin_Idempotent(t *testing.T) {
	f := newAuthFixture(t)

	first, err := f.svc.EnsureAdmin(context.Background(), "root", "root-pw")
	if err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	if !first.HasRole(domain.RoleAdmin) {
		t.Errorf("bootstrap user must be admin, got %v", first.Roles)
	}

	second, err := f.svc.EnsureAdmin(context.Background(), "root", "other")
	if err != nil {
		t.Fatalf("second EnsureAdmin: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("second call must return the existing admin")
	}
	if len(f.repo.byID) != 1 {
		t.Errorf("want 1 user, got %d", len(f.repo.byID))
	}
}
