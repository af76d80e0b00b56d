package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/piyawat/agencydesk-backend/pkg/config"
	"github.com/piyawat/agencydesk-backend/pkg/enums"
)

func testJWTConfig() config.JWTConfig {
	return config.JWTConfig{
		AccessSecret:      strings.Repeat("a", 32),
		RefreshSecret:     strings.Repeat("r", 32),
		Issuer:            "agencydesk",
		AccessTTLMinutes:  10,
		RefreshTTLMinutes: 43200,
	}
}

func TestMintAndParseRoundTrip(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	payload := TokenPayload{UserID: uuid.New(), Role: enums.UserRoleSuper}

	access, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	refresh, err := MintRefreshToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	accessClaims, err := ParseAccessToken(cfg, access)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}
	refreshClaims, err := ParseRefreshToken(cfg, refresh)
	if err != nil {
		t.Fatalf("parse refresh token: %v", err)
	}

	for _, claims := range []*Claims{accessClaims, refreshClaims} {
		if claims.UserID != payload.UserID {
			t.Fatalf("expected user id %s, got %s", payload.UserID, claims.UserID)
		}
		if claims.Role != enums.UserRoleSuper {
			t.Fatalf("unexpected role %s", claims.Role)
		}
		if claims.Issuer != cfg.Issuer {
			t.Fatalf("unexpected issuer %s", claims.Issuer)
		}
	}

	if accessClaims.ExpiresAt.Time.Sub(now) > 11*time.Minute {
		t.Fatalf("access expiry too far out: %s", accessClaims.ExpiresAt.Time)
	}
	if refreshClaims.ExpiresAt.Time.Sub(now) < 29*24*time.Hour {
		t.Fatalf("refresh expiry too close: %s", refreshClaims.ExpiresAt.Time)
	}
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC()
	payload := TokenPayload{UserID: uuid.New(), Role: enums.UserRoleEmployee}

	access, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	refresh, err := MintRefreshToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint refresh token: %v", err)
	}

	if _, err := ParseRefreshToken(cfg, access); err == nil {
		t.Fatalf("access token must not verify as refresh token")
	}
	if _, err := ParseAccessToken(cfg, refresh); err == nil {
		t.Fatalf("refresh token must not verify as access token")
	}
}

func TestTokenUseCheckedEvenWithSharedSecret(t *testing.T) {
	cfg := testJWTConfig()
	cfg.RefreshSecret = cfg.AccessSecret
	now := time.Now().UTC()
	payload := TokenPayload{UserID: uuid.New(), Role: enums.UserRoleEmployee}

	access, err := MintAccessToken(cfg, now, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseRefreshToken(cfg, access); err == nil {
		t.Fatalf("token use claim must reject cross-use")
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	cfg := testJWTConfig()
	past := time.Now().UTC().Add(-time.Hour)
	payload := TokenPayload{UserID: uuid.New(), Role: enums.UserRoleEmployee}

	token, err := MintAccessToken(cfg, past, payload)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}
	if _, err := ParseAccessToken(cfg, token); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	cfg := testJWTConfig()
	for _, tok := range []string{"", "garbage", "a.b.c"} {
		if _, err := ParseAccessToken(cfg, tok); err == nil {
			t.Fatalf("expected parse failure for %q", tok)
		}
	}
}

func TestMintRejectsInvalidRole(t *testing.T) {
	cfg := testJWTConfig()
	payload := TokenPayload{UserID: uuid.New(), Role: enums.UserRole("Intruder")}
	if _, err := MintAccessToken(cfg, time.Now().UTC(), payload); err == nil {
		t.Fatalf("expected error for invalid role")
	}
}

func TestUnverifiedExpiry(t *testing.T) {
	cfg := testJWTConfig()
	now := time.Now().UTC().Truncate(time.Second)
	token, err := MintAccessToken(cfg, now, TokenPayload{UserID: uuid.New(), Role: enums.UserRoleEmployee})
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	exp, err := UnverifiedExpiry(token)
	if err != nil {
		t.Fatalf("unverified expiry: %v", err)
	}
	if want := now.Add(cfg.AccessTTL()); !exp.Equal(want) {
		t.Fatalf("expected expiry %s, got %s", want, exp)
	}

	if _, err := UnverifiedExpiry("not-a-token"); err == nil {
		t.Fatalf("expected error for malformed token")
	}
}

func TestRefreshCookieAttributes(t *testing.T) {
	cookie := NewRefreshCookie("tok", 30*24*time.Hour, true)
	if cookie.Name != RefreshCookieName {
		t.Fatalf("unexpected cookie name %s", cookie.Name)
	}
	if !cookie.HttpOnly || !cookie.Secure {
		t.Fatalf("cookie must be http-only and secure")
	}
	if cookie.SameSite != http.SameSiteStrictMode {
		t.Fatalf("cookie must be same-site strict")
	}
	if cookie.Path != "/" {
		t.Fatalf("cookie must be scoped to /")
	}
	if cookie.MaxAge != 30*24*60*60 {
		t.Fatalf("unexpected max-age %d", cookie.MaxAge)
	}

	cleared := ExpiredRefreshCookie(false)
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Fatalf("expected immediate expiry cookie")
	}
}

func TestReadRefreshCookie(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/v1/auth/refresh", nil)
	if got := ReadRefreshCookie(r); got != "" {
		t.Fatalf("expected empty token without cookie, got %q", got)
	}

	r.AddCookie(&http.Cookie{Name: RefreshCookieName, Value: "tok"})
	if got := ReadRefreshCookie(r); got != "tok" {
		t.Fatalf("expected token from cookie, got %q", got)
	}
}
