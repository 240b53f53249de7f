package queue

import (
	"context"
	"errors"
	"hash/fnv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/festapp/identity/internal/core/ports"
)

var _ ports.ResetMailer = (*MailDispatcher)(nil)

const (
	defaultWorkers = 4
	channelBuffer  = 64
)

// ErrQueueFull is returned when the worker owning a recipient has no room left.
var ErrQueueFull = errors.New("mail queue full")

// Sender performs the actual delivery of a reset mail.
type Sender interface {
	Deliver(ctx context.Context, mail ports.ResetMail) error
}

// Observer is told about queue movements and delivery outcomes, per worker.
type Observer interface {
	Queued(worker int)
	Dequeued(worker int)
	Delivered(worker int, err error)
}

type nopObserver struct{}

func (nopObserver) Queued(int)           {}
func (nopObserver) Dequeued(int)         {}
func (nopObserver) Delivered(int, error) {}

// Option configures a MailDispatcher.
type Option func(*MailDispatcher)

// WithObserver reports queue activity to o.
func WithObserver(o Observer) Option {
	return func(d *MailDispatcher) {
		if o != nil {
			d.observer = o
		}
	}
}

// MailDispatcher implements ports.ResetMailer by handing mails to a fixed set
// of workers, sharded by recipient so one inbox sees its mails in order.
// Reset requests therefore return without waiting on delivery.
type MailDispatcher struct {
	workers  []chan ports.ResetMail
	sender   Sender
	observer Observer
	log      zerolog.Logger
}

// NewMailDispatcher creates a MailDispatcher with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewMailDispatcher(numWorkers int, sender Sender, log zerolog.Logger, opts ...Option) *MailDispatcher {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	d := &MailDispatcher{
		workers:  make([]chan ports.ResetMail, numWorkers),
		sender:   sender,
		observer: nopObserver{},
		log:      log,
	}
	for i := range d.workers {
		d.workers[i] = make(chan ports.ResetMail, channelBuffer)
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (d *MailDispatcher) Start(ctx context.Context) {
	for i, ch := range d.workers {
		go d.runWorker(ctx, i, ch)
	}
}

// SendResetMail enqueues mail without blocking; a full shard reports ErrQueueFull.
func (d *MailDispatcher) SendResetMail(ctx context.Context, mail ports.ResetMail) error {
	idx := d.shardIndex(mail.To)
	select {
	case <-ctx.Done():
		return ctx.Err()
	case d.workers[idx] <- mail:
		d.observer.Queued(idx)
		return nil
	default:
		return ErrQueueFull
	}
}

// shardIndex maps a recipient deterministically to a worker index.
func (d *MailDispatcher) shardIndex(recipient string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(recipient)))
	return int(h.Sum32() % uint32(len(d.workers)))
}

func (d *MailDispatcher) runWorker(ctx context.Context, id int, ch <-chan ports.ResetMail) {
	for {
		select {
		case <-ctx.Done():
			return
		case mail, ok := <-ch:
			if !ok {
				return
			}
			d.observer.Dequeued(id)
			err := d.sender.Deliver(ctx, mail)
			d.observer.Delivered(id, err)
			if err != nil {
				d.log.Error().Err(err).
					Int("worker_id", id).
					Msg("reset mail delivery failed")
			}
		}
	}
}
