package identity

import (
	"bytes"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestNewIdentity_Format(t *testing.T) {
	id, shortID, err := NewIdentity()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("expected id to be a uuid, got %q: %v", id, err)
	}
	if parsed.Version() != 4 {
		t.Errorf("expected version 4 uuid, got %d", parsed.Version())
	}

	if !IsShortID(shortID) {
		t.Errorf("expected 8 alphanumeric characters, got %q", shortID)
	}
	if strings.Contains(strings.ReplaceAll(id, "-", ""), shortID) {
		t.Errorf("short id %q should not be derived from id %q", shortID, id)
	}
}

func TestNewIdentity_NoCollisions(t *testing.T) {
	const n = 10000
	ids := make(map[string]struct{}, n)
	shortIDs := make(map[string]struct{}, n)

	for i := 0; i < n; i++ {
		id, shortID, err := NewIdentity()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if _, dup := ids[id]; dup {
			t.Fatalf("id collision after %d generations: %s", i, id)
		}
		if _, dup := shortIDs[shortID]; dup {
			t.Fatalf("short id collision after %d generations: %s", i, shortID)
		}
		ids[id] = struct{}{}
		shortIDs[shortID] = struct{}{}
	}
}

func TestNewIdentity_Concurrent(t *testing.T) {
	var (
		mu   sync.Mutex
		seen = make(map[string]struct{})
		wg   sync.WaitGroup
	)

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 250; i++ {
				id, _, err := NewIdentity()
				if err != nil {
					t.Errorf("expected no error, got %v", err)
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != 8*250 {
		t.Errorf("expected %d distinct ids, got %d", 8*250, len(seen))
	}
}

func TestAssigner_DeterministicSource(t *testing.T) {
	a1 := NewAssigner(rand.New(rand.NewSource(42)))
	a2 := NewAssigner(rand.New(rand.NewSource(42)))

	for i := 0; i < 5; i++ {
		id1, short1, err := a1.NewIdentity()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		id2, short2, err := a2.NewIdentity()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if id1 != id2 || short1 != short2 {
			t.Errorf("expected identical identities from identical seeds, got (%s,%s) and (%s,%s)", id1, short1, id2, short2)
		}
	}
}

func TestAssigner_RejectsBiasedBytes(t *testing.T) {
	// 16 bytes for the uuid, then a run of rejected bytes before usable ones.
	src := append(bytes.Repeat([]byte{0x01}, 16), bytes.Repeat([]byte{0xff}, 16)...)
	src = append(src, bytes.Repeat([]byte{0x00}, 16)...)

	_, shortID, err := NewAssigner(bytes.NewReader(src)).NewIdentity()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if shortID != "00000000" {
		t.Errorf("expected 00000000, got %q", shortID)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestAssigner_SourceError(t *testing.T) {
	_, _, err := NewAssigner(failingReader{}).NewIdentity()
	if err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestIsShortID(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"abc12345", true},
		{"ABCdef90", true},
		{"abc1234", false},
		{"abc-2345", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsShortID(tt.in); got != tt.want {
			t.Errorf("IsShortID(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
