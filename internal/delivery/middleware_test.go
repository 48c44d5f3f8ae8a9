package delivery

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang-jwt/jwt"

	"github.com/tinashem/speechai/internal/identity"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return signed
}

func echoIdentity(w http.ResponseWriter, r *http.Request) {
	id, ok := IdentityFrom(r.Context())
	if !ok {
		w.Write([]byte("anonymous"))
		return
	}
	w.Write([]byte(id.UID + ":" + id.Role))
}

func TestIdentifyPassesAnonymous(t *testing.T) {
	h := Identify(identity.NewVerifier(testSecret))(http.HandlerFunc(echoIdentity))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))

	if rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Errorf("code=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestIdentifyAttachesIdentity(t *testing.T) {
	h := Identify(identity.NewVerifier(testSecret))(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"uid": "u1", "role": "admin"}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "u1:admin" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestIdentifyRejectsBadToken(t *testing.T) {
	h := Identify(identity.NewVerifier(testSecret))(http.HandlerFunc(echoIdentity))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("code = %d, want 401", rec.Code)
	}
}

func TestRequireUser(t *testing.T) {
	chain := Identify(identity.NewVerifier(testSecret))(RequireUser(http.HandlerFunc(echoIdentity)))

	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: code = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"uid": "u1"}))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("signed in: code = %d, want 200", rec.Code)
	}
}

func TestRequireRole(t *testing.T) {
	chain := Identify(identity.NewVerifier(testSecret))(RequireRole("admin")(http.HandlerFunc(echoIdentity)))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"uid": "u1"}))
	rec := httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("user role: code = %d, want 403", rec.Code)
	}

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"uid": "u1", "role": "admin"}))
	rec = httptest.NewRecorder()
	chain.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("admin role: code = %d, want 200", rec.Code)
	}
}
