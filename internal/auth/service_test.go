package auth_test

import (
	"context"
	"errors"
	"testing"

	"github.com/owlet-learn/owlet/internal/auth"
)

func newService() *auth.Service {
	return auth.NewService(auth.NewMemoryStore(), auth.NewMemorySessions())
}

func TestService_RegisterAndLogin(t *testing.T) {
	svc := newService()

	account, err := svc.Register(context.Background(), "parent@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if account.PasswordHash == "correct horse" {
		t.Fatal("password stored in plaintext")
	}

	token, identity, err := svc.Login(context.Background(), "parent@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token == "" {
		t.Fatal("empty session token")
	}
	if identity.AccountID != account.ID {
		t.Errorf("identity.AccountID = %s, want %s", identity.AccountID, account.ID)
	}

	resolved, err := svc.Authenticate(context.Background(), token)
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}
	if resolved.AccountID != account.ID {
		t.Errorf("resolved.AccountID = %s, want %s", resolved.AccountID, account.ID)
	}
}

func TestService_LoginFailuresLookAlike(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), "parent@example.com", "correct horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, _, wrongPassword := svc.Login(context.Background(), "parent@example.com", "wrong")
	_, _, wrongEmail := svc.Login(context.Background(), "nobody@example.com", "correct horse")

	if !errors.Is(wrongPassword, auth.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(wrongEmail, auth.ErrInvalidCredentials) {
		t.Errorf("wrong email error = %v, want ErrInvalidCredentials", wrongEmail)
	}
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), "parent@example.com", "correct horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), "Parent@Example.com", "another pass")
	if !errors.Is(err, auth.ErrEmailTaken) {
		t.Fatalf("duplicate register error = %v, want ErrEmailTaken", err)
	}
}

func TestService_RegisterRejectsShortPassword(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), "parent@example.com", "short"); err == nil {
		t.Fatal("Register() accepted a short password")
	}
}

func TestService_Logout(t *testing.T) {
	svc := newService()
	if _, err := svc.Register(context.Background(), "parent@example.com", "correct horse"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	token, _, err := svc.Login(context.Background(), "parent@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	if err := svc.Logout(context.Background(), token); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if _, err := svc.Authenticate(context.Background(), token); !errors.Is(err, auth.ErrSessionExpired) {
		t.Errorf("Authenticate() after logout error = %v, want ErrSessionExpired", err)
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := auth.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword() error = %v", err)
	}
	if !auth.CheckPassword(hash, "correct horse") {
		t.Error("CheckPassword() rejected the right password")
	}
	if auth.CheckPassword(hash, "wrong horse") {
		t.Error("CheckPassword() accepted the wrong password")
	}
}
