package order

import (
	"sync"
	"testing"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()

	if _, ok := s.Get(1); ok {
		t.Error("empty store returned a session")
	}

	s.Put(1, &Session{UserID: 1, State: StateAwaitingLocation})
	sess, ok := s.Get(1)
	if !ok || sess.State != StateAwaitingLocation {
		t.Errorf("got %+v, ok=%v", sess, ok)
	}

	s.Delete(1)
	if _, ok := s.Get(1); ok {
		t.Error("session survived Delete")
	}
}

func TestMemoryStoreConcurrent(t *testing.T) {
	s := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		uid := int64(i % 8)
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Put(uid, &Session{UserID: uid, State: StateIdle})
			s.Get(uid)
		}()
	}
	wg.Wait()
}
