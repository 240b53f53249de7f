package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/ports"
)

type recordingSender struct {
	mu   sync.Mutex
	got  []ports.ResetMail
	fail bool
	done chan struct{}
}

func (s *recordingSender) Deliver(_ context.Context, m ports.ResetMail) error {
	s.mu.Lock()
	s.got = append(s.got, m)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	if s.fail {
		return errors.New("smtp down")
	}
	return nil
}

func (s *recordingSender) mails() []ports.ResetMail {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.ResetMail(nil), s.got...)
}

func waitFor(t *testing.T, done <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out waiting for delivery %d of %d", i+1, n)
		}
	}
}

func TestShardIndex_DeterministicAndCaseInsensitive(t *testing.T) {
	d := NewMailDispatcher(8, &recordingSender{}, zerolog.Nop())

	a := d.shardIndex("Alice@Example.com")
	b := d.shardIndex("alice@example.com")
	if a != b {
		t.Fatalf("expected same shard, got %d and %d", a, b)
	}
	if a < 0 || a >= 8 {
		t.Fatalf("shard out of range: %d", a)
	}
}

func TestNewMailDispatcher_DefaultWorkers(t *testing.T) {
	d := NewMailDispatcher(0, &recordingSender{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestSendResetMail_DeliversInOrderPerRecipient(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{}, 3)}
	d := NewMailDispatcher(4, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	for _, u := range []string{"1", "2", "3"} {
		if err := d.SendResetMail(ctx, ports.ResetMail{To: "bob@example.com", ResetURL: u}); err != nil {
			t.Fatalf("SendResetMail: %v", err)
		}
	}
	waitFor(t, sender.done, 3)

	got := sender.mails()
	for i, want := range []string{"1", "2", "3"} {
		if got[i].ResetURL != want {
			t.Fatalf("mail %d: expected %s, got %s", i, want, got[i].ResetURL)
		}
	}
}

func TestSendResetMail_SenderErrorDoesNotStopWorker(t *testing.T) {
	sender := &recordingSender{fail: true, done: make(chan struct{}, 2)}
	d := NewMailDispatcher(1, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_ = d.SendResetMail(ctx, ports.ResetMail{To: "a@example.com"})
	_ = d.SendResetMail(ctx, ports.ResetMail{To: "a@example.com"})
	waitFor(t, sender.done, 2)

	if n := len(sender.mails()); n != 2 {
		t.Fatalf("expected 2 delivery attempts, got %d", n)
	}
}

func TestSendResetMail_QueueFull(t *testing.T) {
	// Workers are never started, so the single shard fills up.
	d := NewMailDispatcher(1, &recordingSender{}, zerolog.Nop())
	ctx := context.Background()

	for i := 0; i < channelBuffer; i++ {
		if err := d.SendResetMail(ctx, ports.ResetMail{To: "a@example.com"}); err != nil {
			t.Fatalf("enqueue %d: %v", i, err)
		}
	}
	if err := d.SendResetMail(ctx, ports.ResetMail{To: "a@example.com"}); !errors.Is(err, ErrQueueFull) {
		t.Fatalf("expected ErrQueueFull, got %v", err)
	}
}

type recordingObserver struct {
	mu        sync.Mutex
	queued    map[int]int
	dequeued  map[int]int
	delivered []error
}

func newRecordingObserver() *recordingObserver {
	return &recordingObserver{queued: map[int]int{}, dequeued: map[int]int{}}
}

func (o *recordingObserver) Queued(w int) {
	o.mu.Lock()
	o.queued[w]++
	o.mu.Unlock()
}

func (o *recordingObserver) Dequeued(w int) {
	o.mu.Lock()
	o.dequeued[w]++
	o.mu.Unlock()
}

func (o *recordingObserver) Delivered(_ int, err error) {
	o.mu.Lock()
	o.delivered = append(o.delivered, err)
	o.mu.Unlock()
}

func TestSendResetMail_ReportsToObserver(t *testing.T) {
	sender := &recordingSender{fail: true, done: make(chan struct{}, 2)}
	obs := newRecordingObserver()
	d := NewMailDispatcher(2, sender, zerolog.Nop(), WithObserver(obs))
	idx := d.shardIndex("carol@example.com")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	_ = d.SendResetMail(ctx, ports.ResetMail{To: "carol@example.com"})
	_ = d.SendResetMail(ctx, ports.ResetMail{To: "CAROL@example.com"})
	waitFor(t, sender.done, 2)

	deadline := time.Now().Add(2 * time.Second)
	for {
		obs.mu.Lock()
		n := len(obs.delivered)
		obs.mu.Unlock()
		if n == 2 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	obs.mu.Lock()
	defer obs.mu.Unlock()
	if obs.queued[idx] != 2 || obs.dequeued[idx] != 2 {
		t.Fatalf("expected 2 queued and dequeued on worker %d, got %v / %v", idx, obs.queued, obs.dequeued)
	}
	if len(obs.delivered) != 2 || obs.delivered[0] == nil {
		t.Fatalf("expected two failed deliveries, got %v", obs.delivered)
	}
}

func TestWithObserver_NilKeepsDefault(t *testing.T) {
	d := NewMailDispatcher(1, &recordingSender{}, zerolog.Nop(), WithObserver(nil))
	if _, ok := d.observer.(nopObserver); !ok {
		t.Fatalf("expected nop observer, got %T", d.observer)
	}
	if err := d.SendResetMail(context.Background(), ports.ResetMail{To: "a@example.com"}); err != nil {
		t.Fatalf("SendResetMail: %v", err)
	}
}
