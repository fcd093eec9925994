package server

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ppiankov/verdict/internal/logging"
	"github.com/ppiankov/verdict/internal/metrics"
	"github.com/ppiankov/verdict/internal/session"
)

func TestRegistry_PutGetDelete(t *testing.T) {
	r := NewRegistry(time.Minute, nil, logging.Discard())
	s := session.New(&stubVerifier{}, stubResponder{})

	id := r.Put(s)
	got, ok := r.Get(id)
	if !ok || got != s {
		t.Fatal("expected stored session")
	}
	if r.Len() != 1 {
		t.Errorf("expected 1 session, got %d", r.Len())
	}

	if !r.Delete(id) {
		t.Error("expected delete to succeed")
	}
	if r.Delete(id) {
		t.Error("second delete should report missing")
	}
	if _, ok := r.Get(id); ok {
		t.Error("deleted session still present")
	}
}

func TestRegistry_Expiry(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(50*time.Millisecond, m, logging.Discard())

	id := r.Put(session.New(&stubVerifier{}, stubResponder{}))
	time.Sleep(100 * time.Millisecond)

	if _, ok := r.Get(id); ok {
		t.Error("expected session to expire")
	}

	// The janitor runs every second at minimum
	deadline := time.Now().Add(3 * time.Second)
	for testutil.ToFloat64(m.SessionsActive) != 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("expected gauge to drop after eviction, got %v", got)
	}
}

func TestRegistry_TouchDoesNotRevive(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	r := NewRegistry(time.Minute, m, logging.Discard())

	id := r.Put(session.New(&stubVerifier{}, stubResponder{}))
	if !r.Touch(id) {
		t.Fatal("expected live session to be touched")
	}

	r.Delete(id)
	if r.Touch(id) {
		t.Error("touch reported a deleted session")
	}
	if _, ok := r.Get(id); ok {
		t.Error("deleted session came back")
	}
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
	if got := testutil.ToFloat64(m.SessionsActive); got != 0 {
		t.Errorf("expected gauge 0, got %v", got)
	}
}

func TestRegistry_TouchExtendsLifetime(t *testing.T) {
	r := NewRegistry(200*time.Millisecond, nil, logging.Discard())
	id := r.Put(session.New(&stubVerifier{}, stubResponder{}))

	for range 4 {
		time.Sleep(100 * time.Millisecond)
		if !r.Touch(id) {
			t.Fatal("session expired while being touched")
		}
	}
}
