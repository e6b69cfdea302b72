package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

func TestTokenIssuerAndVerifier_RoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewTokenIssuer(secret, time.Hour)
	verifier := NewTokenVerifier(secret)

	token, err := issuer.Issue("user-1", domain.ActorEnterpriseAdmin, "ENT-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.ActorID != "user-1" || claims.ActorRole != domain.ActorEnterpriseAdmin || claims.EnterpriseID != "ENT-1" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestTokenVerifier_RejectsTamperedToken(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"))
	if _, err := verifier.Verify("not-a-real-token"); err == nil {
		t.Fatal("expected error verifying garbage token")
	}
}

func TestTokenVerifier_RejectsTokenSignedWithDifferentSecret(t *testing.T) {
	issuer := NewTokenIssuer([]byte("secret-a"), time.Hour)
	verifier := NewTokenVerifier([]byte("secret-b"))

	token, err := issuer.Issue("user-1", domain.ActorUser, "")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Verify(token); err == nil {
		t.Fatal("expected verification to fail with mismatched secret")
	}
}

func TestAuthenticate_RejectsMissingBearerHeader(t *testing.T) {
	verifier := NewTokenVerifier([]byte("test-secret"))
	handler := Authenticate(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/suites", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAuthenticate_InjectsActorOnValidToken(t *testing.T) {
	secret := []byte("test-secret")
	issuer := NewTokenIssuer(secret, time.Hour)
	verifier := NewTokenVerifier(secret)

	token, err := issuer.Issue("user-1", domain.ActorSuperAdmin, "ENT-1")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	var seen Actor
	handler := Authenticate(verifier)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = actorFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/suites", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if seen.ActorID != "user-1" || seen.ActorRole != domain.ActorSuperAdmin {
		t.Fatalf("unexpected actor: %+v", seen)
	}
}

func TestRequireRole_RejectsDisallowedRole(t *testing.T) {
	handler := RequireRole(domain.ActorCalibrationAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/commands/approve-for-ga", nil)
	req = req.WithContext(withActor(req.Context(), Actor{ActorID: "user-1", ActorRole: domain.ActorUser}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}

func TestRequireRole_AllowsMatchingRole(t *testing.T) {
	called := false
	handler := RequireRole(domain.ActorCalibrationAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/commands/approve-for-ga", nil)
	req = req.WithContext(withActor(req.Context(), Actor{ActorID: "admin-1", ActorRole: domain.ActorCalibrationAdmin}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !called || rec.Code != http.StatusOK {
		t.Fatalf("expected handler to run with 200, got called=%v code=%d", called, rec.Code)
	}
}
