package identity

import (
	"testing"

	"github.com/golang-jwt/jwt"
)

func TestSessionNotifiesSubscribers(t *testing.T) {
	s := NewSession()

	var events []string
	cancel := s.Subscribe(func(id Identity, ok bool) {
		if ok {
			events = append(events, "login:"+id.UID)
		} else {
			events = append(events, "logout")
		}
	})

	s.SetUser(Identity{UID: "u1"})
	s.Clear()

	if len(events) != 2 || events[0] != "login:u1" || events[1] != "logout" {
		t.Fatalf("unexpected events: %v", events)
	}

	cancel()
	s.SetUser(Identity{UID: "u2"})
	if len(events) != 2 {
		t.Fatalf("subscriber called after cancel: %v", events)
	}
}

func TestSessionCurrent(t *testing.T) {
	s := NewSession()
	if _, ok := s.Current(); ok {
		t.Fatal("fresh session should be signed out")
	}

	s.SetUser(Identity{UID: "u1", Email: "u1@example.com"})
	id, ok := s.Current()
	if !ok || id.UID != "u1" {
		t.Fatalf("Current() = %+v, %v", id, ok)
	}

	s.Clear()
	if _, ok := s.Current(); ok {
		t.Fatal("session should be signed out after Clear")
	}
}

func TestVerifier(t *testing.T) {
	secret := "test-secret"
	v := NewVerifier(secret)

	sign := func(claims jwt.MapClaims) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(secret))
		if err != nil {
			t.Fatalf("sign: %v", err)
		}
		return signed
	}

	id, err := v.Verify(sign(jwt.MapClaims{
		"uid":   "abc",
		"email": "a@b.c",
		"name":  "A B",
		"role":  "admin",
	}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.UID != "abc" || id.Role != "admin" {
		t.Errorf("unexpected identity: %+v", id)
	}

	// role defaults to user
	id, err = v.Verify(sign(jwt.MapClaims{"uid": "abc"}))
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if id.Role != "user" {
		t.Errorf("role = %q, want user", id.Role)
	}

	// missing uid rejected
	if _, err := v.Verify(sign(jwt.MapClaims{"email": "x@y.z"})); err == nil {
		t.Error("expected error for missing uid")
	}

	// wrong secret rejected
	other := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"uid": "abc"})
	bad, _ := other.SignedString([]byte("other-secret"))
	if _, err := v.Verify(bad); err == nil {
		t.Error("expected error for wrong secret")
	}
}
