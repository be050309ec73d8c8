package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KaramelBytes/concentra-cli/internal/dataset"
	"github.com/KaramelBytes/concentra-cli/internal/schema"
)

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestStore(ttl time.Duration) (*Store, *clock) {
	c := &clock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := NewStore(ttl, nil)
	s.now = c.now
	return s, c
}

func sample() (*dataset.Dataset, schema.Schema) {
	ds := dataset.New("sales.csv", []string{"region", "amount"}, [][]dataset.Value{
		{dataset.Text("north"), dataset.Number(1)},
	})
	return ds, schema.Classify(ds)
}

func TestCreateGetDelete(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ds, sc := sample()
	sess := s.Create("sales.csv", ds, sc)
	if sess.ID == "" || s.Len() != 1 {
		t.Fatalf("create: %+v len=%d", sess, s.Len())
	}
	got, err := s.Get(sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Source != "sales.csv" || got.Dataset.Len() != 1 {
		t.Fatalf("get: %+v", got)
	}
	// Mutating a snapshot does not leak into the store.
	got.Schema.Categorical[0] = "changed"
	again, _ := s.Get(sess.ID)
	if again.Schema.Categorical[0] != "region" {
		t.Fatalf("snapshot shares schema: %v", again.Schema.Categorical)
	}
	if err := s.Delete(sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after delete: %v", err)
	}
	if err := s.Delete(sess.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("double delete: %v", err)
	}
}

func TestExpiry(t *testing.T) {
	s, c := newTestStore(time.Minute)
	ds, sc := sample()
	a := s.Create("a.csv", ds, sc)
	b := s.Create("b.csv", ds, sc)

	c.advance(50 * time.Second)
	if _, err := s.Get(a.ID); err != nil {
		t.Fatalf("access within ttl: %v", err)
	}
	c.advance(30 * time.Second)
	// a was touched 30s ago, b 80s ago.
	if _, err := s.Get(b.ID); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected expired, got %v", err)
	}
	if _, err := s.Get(b.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expired session should be removed, got %v", err)
	}
	if n := s.Sweep(c.now().Add(2 * time.Minute)); n != 1 || s.Len() != 0 {
		t.Fatalf("sweep removed %d, len %d", n, s.Len())
	}
}

func TestZeroTTLNeverExpires(t *testing.T) {
	s, c := newTestStore(0)
	ds, sc := sample()
	sess := s.Create("a.csv", ds, sc)
	c.advance(24 * 365 * time.Hour)
	if n := s.Sweep(c.now()); n != 0 {
		t.Fatalf("swept %d", n)
	}
	if _, err := s.Get(sess.ID); err != nil {
		t.Fatal(err)
	}
}

func TestReplaceKeepsID(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ds, sc := sample()
	sess := s.Create("a.csv", ds, sc)
	next := dataset.New("b.csv", []string{"year", "amount"}, [][]dataset.Value{
		{dataset.Number(2020), dataset.Number(1)},
		{dataset.Number(2021), dataset.Number(2)},
	})
	if err := s.Replace(sess.ID, "b.csv", next, schema.Classify(next)); err != nil {
		t.Fatal(err)
	}
	got, _ := s.Get(sess.ID)
	if got.Source != "b.csv" || got.Dataset.Len() != 2 || len(got.Schema.Temporal) != 1 {
		t.Fatalf("replace: %+v", got)
	}
	if err := s.Replace("missing", "x.csv", next, schema.Schema{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("replace unknown: %v", err)
	}
}

func TestUpdateCommitsOnlyOnSuccess(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ds, sc := sample()
	sess := s.Create("a.csv", ds, sc)

	boom := errors.New("boom")
	err := s.Update(sess.ID, func(w *Session) error {
		w.Schema.Numeric = nil
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("update error: %v", err)
	}
	got, _ := s.Get(sess.ID)
	if len(got.Schema.Numeric) != 1 {
		t.Fatalf("failed update leaked: %+v", got.Schema)
	}

	err = s.Update(sess.ID, func(w *Session) error {
		next, err := schema.Reclassify(w.Dataset, []string{"region", "amount"}, nil, nil)
		if err != nil {
			return err
		}
		w.Schema = next
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got, _ = s.Get(sess.ID)
	if len(got.Schema.Categorical) != 2 || got.Dataset.At(0, 1).Kind != dataset.KindText {
		t.Fatalf("update not applied: %+v", got.Schema)
	}
	// The dataset held by the earlier snapshot is untouched.
	if ds.At(0, 1).Kind != dataset.KindNumber {
		t.Fatal("update mutated the original dataset")
	}
}

func TestConcurrentUpdates(t *testing.T) {
	s, _ := newTestStore(time.Hour)
	ds, sc := sample()
	sess := s.Create("a.csv", ds, sc)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Update(sess.ID, func(w *Session) error {
				w.Schema.Temporal = append(w.Schema.Temporal, "x")
				return nil
			})
		}()
	}
	wg.Wait()
	got, _ := s.Get(sess.ID)
	if len(got.Schema.Temporal) != 20 {
		t.Fatalf("lost updates: %d", len(got.Schema.Temporal))
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	s, _ := newTestStore(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx, time.Millisecond)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
