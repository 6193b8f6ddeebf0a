// Package history holds the bounded per-conversation message ledger.
// It feeds burst detection and reply context; durable storage lives in archive.
package history

import (
	"sync"

	"tonebot/domain"
)

// DefaultCapacity is the number of entries kept per conversation.
const DefaultCapacity = 20

type conversation struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

// Ledger keeps the most recent entries of every conversation.
// Each conversation has its own lock, so appends and reads on different
// conversations never contend.
type Ledger struct {
	capacity int

	mu    sync.RWMutex
	chats map[domain.ChatID]*conversation
}

func NewLedger(capacity int) *Ledger {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ledger{
		capacity: capacity,
		chats:    make(map[domain.ChatID]*conversation),
	}
}

func (l *Ledger) conversation(chat domain.ChatID) *conversation {
	l.mu.RLock()
	c, ok := l.chats[chat]
	l.mu.RUnlock()
	if ok {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok = l.chats[chat]; ok {
		return c
	}
	c = &conversation{}
	l.chats[chat] = c
	return c
}

// Append records an entry, evicting the oldest one at capacity.
// Entries are never mutated after append.
func (l *Ledger) Append(chat domain.ChatID, entry domain.HistoryEntry) {
	c := l.conversation(chat)
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = append(c.entries, entry)
	if len(c.entries) > l.capacity {
		c.entries = c.entries[1:]
	}
}

// Recent returns a snapshot of the conversation's entries in insertion order.
// Callers may keep the slice; it never aliases the ledger's storage.
func (l *Ledger) Recent(chat domain.ChatID) []domain.HistoryEntry {
	c := l.conversation(chat)
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]domain.HistoryEntry, len(c.entries))
	copy(snapshot, c.entries)
	return snapshot
}
