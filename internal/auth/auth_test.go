// filename: internal/auth/auth_test.go
package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/rulesmith/rulesmith/internal/models"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatal(err)
	}

	if hash == "correct horse battery staple" {
		t.Error("Hash must not equal the plaintext password")
	}
	if !CheckPassword(hash, "correct horse battery staple") {
		t.Error("Expected matching password to verify")
	}
	if CheckPassword(hash, "wrong password") {
		t.Error("Expected wrong password to fail")
	}
}

func TestHashPasswordTooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("Expected error for short password")
	}
}

func TestTokenIssueAndParse(t *testing.T) {
	manager, err := NewTokenManager("test-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	user := &models.User{ID: 42, Username: "analyst", Role: "user"}

	token, claims, err := manager.Issue(user)
	if err != nil {
		t.Fatal(err)
	}
	if claims.ID == "" {
		t.Error("Expected token id to be set")
	}

	parsed, err := manager.Parse(token)
	if err != nil {
		t.Fatal(err)
	}

	if parsed.UserID != 42 || parsed.Username != "analyst" || parsed.Role != "user" {
		t.Errorf("Claims mismatch: %+v", parsed)
	}
	if parsed.ID != claims.ID {
		t.Error("Token id changed between issue and parse")
	}
}

func TestTokenParseWrongSecret(t *testing.T) {
	manager, _ := NewTokenManager("secret-one", time.Hour)
	other, _ := NewTokenManager("secret-two", time.Hour)

	token, _, err := manager.Issue(&models.User{ID: 1, Username: "u"})
	if err != nil {
		t.Fatal(err)
	}

	if _, err := other.Parse(token); err == nil {
		t.Error("Expected parse to fail with a different secret")
	}
}

func TestTokenParseExpired(t *testing.T) {
	manager, _ := NewTokenManager("test-secret", time.Millisecond)

	token, _, err := manager.Issue(&models.User{ID: 1, Username: "u"})
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)

	if _, err := manager.Parse(token); err == nil {
		t.Error("Expected parse to fail for expired token")
	}
}

func TestTokenParseGarbage(t *testing.T) {
	manager, _ := NewTokenManager("test-secret", time.Hour)

	if _, err := manager.Parse("not.a.token"); err == nil {
		t.Error("Expected parse to fail for malformed token")
	}
	if _, err := manager.Parse(""); err == nil {
		t.Error("Expected parse to fail for empty token")
	}
}

func TestNewTokenManagerRequiresSecret(t *testing.T) {
	if _, err := NewTokenManager("", time.Hour); err == nil {
		t.Error("Expected error for empty secret")
	}
}

func TestNewTokenManagerDefaultTTL(t *testing.T) {
	manager, err := NewTokenManager("test-secret", 0)
	if err != nil {
		t.Fatal(err)
	}
	if manager.TTL() != 24*time.Hour {
		t.Errorf("Expected 24h default TTL, got %s", manager.TTL())
	}
}

func TestUserToSafeHidesHash(t *testing.T) {
	user := &models.User{ID: 1, Username: "u", PasswordHash: "hash", Email: "u@example.com", Role: "admin"}

	safe := user.ToSafe()
	if safe.Username != "u" || safe.Role != "admin" {
		t.Errorf("Safe user mismatch: %+v", safe)
	}

	// В безопасном представлении нет поля с хэшем
	if strings.Contains(strings.ToLower(
		strings.Join([]string{safe.Username, safe.Email, safe.Role}, " ")), "hash") {
		t.Error("Safe user leaked the password hash")
	}
}
