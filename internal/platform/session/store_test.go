package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "1",
		"exp": exp.Unix(),
	})
	s, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCreate_ReadsExpFromToken(t *testing.T) {
	store := NewStore(time.Hour)
	exp := time.Now().Add(15 * time.Minute).Truncate(time.Second)

	sess := store.Create(User{IDUser: 1, Type: "medic"}, signedToken(t, exp))
	if !sess.ExpiresAt.Equal(exp) {
		t.Errorf("expected expiry %v from exp claim, got %v", exp, sess.ExpiresAt)
	}
}

func TestCreate_FallbackTTLWithoutExp(t *testing.T) {
	store := NewStore(30 * time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	sess := store.Create(User{IDUser: 1}, "not-a-jwt")
	if !sess.ExpiresAt.Equal(base.Add(30 * time.Minute)) {
		t.Errorf("expected fallback TTL expiry, got %v", sess.ExpiresAt)
	}
}

func TestGet_ExpiredSessionDropped(t *testing.T) {
	store := NewStore(time.Minute)
	base := time.Now()
	store.now = func() time.Time { return base }

	sess := store.Create(User{IDUser: 2}, "")
	store.now = func() time.Time { return base.Add(2 * time.Minute) }

	if _, err := store.Get(sess.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for expired session, got %v", err)
	}
}

func TestGetDelete_Lifecycle(t *testing.T) {
	store := NewStore(time.Hour)
	sess := store.Create(User{IDUser: 3, Email: "ana@x.com"}, "")

	got, err := store.Get(sess.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.User.Email != "ana@x.com" {
		t.Errorf("unexpected user: %+v", got.User)
	}

	store.Delete(sess.ID)
	if _, err := store.Get(sess.ID); err != ErrNotFound {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}
