package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

// fakeUserStore is an in-memory UserStore returning the repository package's
// sentinel errors, like the real implementation does.
type fakeUserStore struct {
	mu     sync.Mutex
	nextID int64
	users  map[int64]*model.User
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[int64]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateEmail
		}
	}

	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	cp := *user
	f.users[user.ID] = &cp
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, u := range f.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserStore) SetVerified(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		u.IsVerified = true
	}
	return nil
}

func (f *fakeUserStore) SetRefreshFingerprint(_ context.Context, id int64, fingerprint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		u.RefreshFingerprint = fingerprint
	}
	return nil
}

func (f *fakeUserStore) SetAvatarURL(_ context.Context, id int64, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if u, ok := f.users[id]; ok {
		u.AvatarURL = url
	}
	return nil
}

func (f *fakeUserStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

// fakeMailer records dispatched verification tokens.
type fakeMailer struct {
	mu     sync.Mutex
	tokens []string
}

func (f *fakeMailer) SendVerification(_ context.Context, _, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, token)
	return nil
}

func (f *fakeMailer) lastToken(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.tokens) == 0 {
		t.Fatal("no verification email was sent")
	}
	return f.tokens[len(f.tokens)-1]
}

func (f *fakeMailer) sent() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

func newTestAuthService() (*AuthService, *fakeUserStore, *fakeMailer) {
	store := newFakeUserStore()
	mailer := &fakeMailer{}
	tokens := crypto.NewIssuer("test-secret", time.Hour, time.Hour, time.Hour)
	return NewAuthService(store, tokens, mailer, nil), store, mailer
}

func signupAndVerify(t *testing.T, svc *AuthService, mailer *fakeMailer, email, password string) {
	t.Helper()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: email, Password: password}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}
	if err := svc.VerifyEmail(ctx, mailer.lastToken(t)); err != nil {
		t.Fatalf("VerifyEmail() unexpected error: %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "", Password: "pw"}); !errors.Is(err, ErrEmailRequired) {
		t.Errorf("Signup() error = %v, want ErrEmailRequired", err)
	}
	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: ""}); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("Signup() error = %v, want ErrPasswordRequired", err)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, store, _ := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw1"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	_, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw2"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("Signup() error = %v, want ErrDuplicateEmail", err)
	}

	if store.count() != 1 {
		t.Errorf("store has %d users after duplicate signup, want 1", store.count())
	}
}

func TestSignupSendsVerificationEmail(t *testing.T) {
	svc, _, mailer := newTestAuthService()

	if _, err := svc.Signup(context.Background(), model.SignupRequest{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	if mailer.sent() != 1 {
		t.Fatalf("sent %d verification emails, want 1", mailer.sent())
	}
	if mailer.lastToken(t) == "" {
		t.Error("verification email carried an empty token")
	}
}

func TestSignupStoresHashedPassword(t *testing.T) {
	svc, store, _ := newTestAuthService()

	if _, err := svc.Signup(context.Background(), model.SignupRequest{Email: "a@x.com", Password: "secret-pw"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	user, err := store.GetByEmail(context.Background(), "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}
	if user.PasswordHash == "secret-pw" || !strings.HasPrefix(user.PasswordHash, "$argon2id$") {
		t.Errorf("password stored as %q, want an argon2id hash", user.PasswordHash)
	}
}

func TestLoginRequiresVerification(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	_, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"})
	if !errors.Is(err, ErrUnverifiedAccount) {
		t.Fatalf("Login() before verification error = %v, want ErrUnverifiedAccount", err)
	}

	if err := svc.VerifyEmail(ctx, mailer.lastToken(t)); err != nil {
		t.Fatalf("VerifyEmail() unexpected error: %v", err)
	}

	pair, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() after verification unexpected error: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Error("Login() returned empty tokens")
	}
	if pair.TokenType != "bearer" {
		t.Errorf("Login() token type = %q, want %q", pair.TokenType, "bearer")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "a@x.com", "pw")

	if _, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "wrong"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() wrong password error = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login(ctx, model.LoginRequest{Email: "nobody@x.com", Password: "pw"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() unknown email error = %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyEmailIdempotent(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	token := mailer.lastToken(t)
	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Fatalf("VerifyEmail() unexpected error: %v", err)
	}
	if err := svc.VerifyEmail(ctx, token); err != nil {
		t.Errorf("VerifyEmail() on already verified account error = %v, want nil", err)
	}
}

func TestVerifyEmailRejectsWrongTokens(t *testing.T) {
	svc, _, _ := newTestAuthService()
	ctx := context.Background()

	if err := svc.VerifyEmail(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyEmail() garbage error = %v, want ErrInvalidToken", err)
	}

	// Access tokens must not be usable to confirm an email address.
	access, err := crypto.NewIssuer("test-secret", time.Hour, time.Hour, time.Hour).AccessToken(1)
	if err != nil {
		t.Fatalf("AccessToken() unexpected error: %v", err)
	}
	if err := svc.VerifyEmail(ctx, access); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("VerifyEmail() access token error = %v, want ErrInvalidToken", err)
	}
}

func TestRefreshRotation(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "a@x.com", "pw")

	pair1, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	pair2, err := svc.Refresh(ctx, pair1.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh() unexpected error: %v", err)
	}
	if pair2.RefreshToken == pair1.RefreshToken {
		t.Error("Refresh() did not rotate the refresh token")
	}

	// The superseded token must now be rejected.
	if _, err := svc.Refresh(ctx, pair1.RefreshToken); !errors.Is(err, ErrRevokedToken) {
		t.Errorf("Refresh() with superseded token error = %v, want ErrRevokedToken", err)
	}
}

func TestRefreshRejectsInvalidTokens(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "a@x.com", "pw")

	if _, err := svc.Refresh(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() garbage error = %v, want ErrInvalidToken", err)
	}

	pair, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.AccessToken); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("Refresh() with access token error = %v, want ErrInvalidToken", err)
	}
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	svc, store, mailer := newTestAuthService()
	ctx := context.Background()
	signupAndVerify(t, svc, mailer, "a@x.com", "pw")

	pair, err := svc.Login(ctx, model.LoginRequest{Email: "a@x.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() unexpected error: %v", err)
	}

	user, err := store.GetByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("GetByEmail() unexpected error: %v", err)
	}

	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatalf("Logout() unexpected error: %v", err)
	}

	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRevokedToken) {
		t.Errorf("Refresh() after logout error = %v, want ErrRevokedToken", err)
	}
}

func TestRequestVerification(t *testing.T) {
	svc, _, mailer := newTestAuthService()
	ctx := context.Background()

	// Unknown addresses are a silent no-op.
	if err := svc.RequestVerification(ctx, "nobody@x.com"); err != nil {
		t.Fatalf("RequestVerification() unknown email error = %v", err)
	}
	if mailer.sent() != 0 {
		t.Fatalf("sent %d emails for unknown address, want 0", mailer.sent())
	}

	if _, err := svc.Signup(ctx, model.SignupRequest{Email: "a@x.com", Password: "pw"}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}
	if err := svc.RequestVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestVerification() unexpected error: %v", err)
	}
	if mailer.sent() != 2 {
		t.Fatalf("sent %d emails after re-request, want 2", mailer.sent())
	}

	// Verified accounts get nothing further.
	if err := svc.VerifyEmail(ctx, mailer.lastToken(t)); err != nil {
		t.Fatalf("VerifyEmail() unexpected error: %v", err)
	}
	if err := svc.RequestVerification(ctx, "a@x.com"); err != nil {
		t.Fatalf("RequestVerification() unexpected error: %v", err)
	}
	if mailer.sent() != 2 {
		t.Errorf("sent %d emails after verified re-request, want 2", mailer.sent())
	}
}
