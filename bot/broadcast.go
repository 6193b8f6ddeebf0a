package bot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tonebot/domain"
	"tonebot/errors"
)

// DefaultPacing separates consecutive broadcast sends.
const DefaultPacing = time.Second

// SendFunc delivers one outbound message.
type SendFunc func(ctx context.Context, chat domain.ChatID, msg domain.Outbound) error

// BroadcastRun is the process-wide singleton repeat-send operation.
// Cancellation is cooperative: the flag is polled between sends, so a
// request takes effect within one pacing interval, not immediately.
type BroadcastRun struct {
	ID        uuid.UUID
	Chat      domain.ChatID
	Initiator domain.ParticipantID
	Count     int

	cancelRequested atomic.Bool
}

// Broadcast guards the singleton run. Begin is an atomic check-and-set:
// two commands racing for it can never both begin.
type Broadcast struct {
	log    *slog.Logger
	pacing time.Duration

	mu      sync.Mutex
	current *BroadcastRun
}

func NewBroadcast(log *slog.Logger, pacing time.Duration) *Broadcast {
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	return &Broadcast{log: log, pacing: pacing}
}

// Begin validates the count and claims the singleton slot. The caller
// owns the returned run and must hand it to Run, which releases the
// slot when the loop ends.
func (b *Broadcast) Begin(chat domain.ChatID, initiator domain.ParticipantID, count int) (*BroadcastRun, error) {
	if count < domain.MinBroadcastCount || count > domain.MaxBroadcastCount {
		return nil, errors.ErrCountOutOfRange
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current != nil {
		return nil, errors.ErrBroadcastActive
	}
	run := &BroadcastRun{ID: uuid.New(), Chat: chat, Initiator: initiator, Count: count}
	b.current = run
	return run, nil
}

func (b *Broadcast) finish(run *BroadcastRun) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == run {
		b.current = nil
	}
}

// Run performs the run's paced sends and blocks until they finish, the
// run is cancelled, or the context ends. It reports whether the run was
// cancelled. Callers handling inbound messages should call it on a
// goroutine of its own: a run can last minutes, and the initiator's
// stop request arrives through the same conversation.
func (b *Broadcast) Run(ctx context.Context, run *BroadcastRun, send SendFunc,
	text string, mentions []domain.ParticipantID) (bool, error) {
	defer b.finish(run)

	b.log.Info("Broadcast started",
		"run", run.ID, "chat", run.Chat, "initiator", run.Initiator, "count", run.Count)

	for i := 0; i < run.Count; i++ {
		if run.cancelRequested.Load() {
			b.log.Info("Broadcast cancelled", "run", run.ID, "sent", i)
			return true, nil
		}
		if err := send(ctx, run.Chat, domain.Outbound{Text: text, Mentions: mentions}); err != nil {
			b.log.Warn("Broadcast send failed", "run", run.ID, "error", err)
		}
		if i == run.Count-1 {
			break
		}
		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-time.After(b.pacing):
		}
	}

	b.log.Info("Broadcast complete", "run", run.ID)
	return false, nil
}

// Start is Begin followed by Run, for callers that can afford to block.
// Rejections (active run, count out of range) leave any running
// broadcast untouched.
func (b *Broadcast) Start(ctx context.Context, send SendFunc, chat domain.ChatID,
	initiator domain.ParticipantID, text string, mentions []domain.ParticipantID, count int) (bool, error) {
	run, err := b.Begin(chat, initiator, count)
	if err != nil {
		return false, err
	}
	return b.Run(ctx, run, send, text, mentions)
}

// RequestCancel flags the active run for cancellation.
// Only the initiator may cancel; anyone else gets ErrNotInitiator and
// the flag stays untouched.
func (b *Broadcast) RequestCancel(requester domain.ParticipantID) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return errors.ErrNoBroadcast
	}
	if b.current.Initiator != requester {
		return errors.ErrNotInitiator
	}
	b.current.cancelRequested.Store(true)
	return nil
}

// Initiator reports who started the active run, if any.
func (b *Broadcast) Initiator() (domain.ParticipantID, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return "", false
	}
	return b.current.Initiator, true
}

// Active reports whether a run is in flight.
func (b *Broadcast) Active() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil
}

// CancelRequested reports the active run's cancellation flag.
func (b *Broadcast) CancelRequested() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current != nil && b.current.cancelRequested.Load()
}
