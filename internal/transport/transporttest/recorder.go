// Package transporttest provides an in-memory transport for tests.
package transporttest

import (
	"context"
	"sync"

	"github.com/hray3182/RemindMe/internal/transport"
)

type Sent struct {
	ConvID string
	Text   string
}

// Recorder keeps every sent message. Errors queued with FailNext are
// returned by the following sends, one each.
type Recorder struct {
	mu    sync.Mutex
	sent  []Sent
	fails []error
	in    chan transport.Message
	name  string
}

func NewRecorder(username string) *Recorder {
	return &Recorder{in: make(chan transport.Message, 16), name: username}
}

func (r *Recorder) Send(_ context.Context, convID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, Sent{ConvID: convID, Text: text})
	if len(r.fails) > 0 {
		err := r.fails[0]
		r.fails = r.fails[1:]
		return err
	}
	return nil
}

func (r *Recorder) FailNext(errs ...error) {
	r.mu.Lock()
	r.fails = append(r.fails, errs...)
	r.mu.Unlock()
}

// Sent returns a copy of everything sent so far.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Texts returns the sent texts, in order.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	texts := make([]string, len(r.sent))
	for i, s := range r.sent {
		texts[i] = s.Text
	}
	return texts
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	r.sent = nil
	r.mu.Unlock()
}

// Push queues an inbound message for Messages.
func (r *Recorder) Push(msg transport.Message) {
	r.in <- msg
}

func (r *Recorder) Messages(ctx context.Context) <-chan transport.Message {
	out := make(chan transport.Message)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg := <-r.in:
				select {
				case out <- msg:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

func (r *Recorder) Username() string {
	return r.name
}
