//go:generate go run go.uber.org/mock/mockgen -source=contract.go -destination=../mocks/mock_contract.go -package=mocks
package contract

import (
	"context"
	"reflect"

	"tonebot/domain"
)

// ConnectionState mirrors the transport's view of the session.
type ConnectionState string

const (
	ConnectionOpen   ConnectionState = "open"
	ConnectionClosed ConnectionState = "closed"
)

// ConnectionUpdate is delivered by the transport on every state change.
// Terminal marks a close that must not be retried (explicit logout).
// QR, when set, carries a pairing payload the operator has to scan.
type ConnectionUpdate struct {
	State    ConnectionState
	Terminal bool
	Reason   string
	QR       string
}

// Session is a live protocol connection owned by the transport collaborator.
// Handlers are registered once per connection attempt and must tolerate
// re-registration across reconnects.
type Session interface {
	OnConnection(fn func(ConnectionUpdate))
	OnCredentials(fn func(blob []byte))
	OnMessage(fn func(msg domain.InboundMessage))
	Send(ctx context.Context, chat domain.ChatID, msg domain.Outbound) error
	Participants(ctx context.Context, chat domain.ChatID) ([]domain.ParticipantID, error)
	SelfID() domain.ParticipantID
	Close() error
}

// Transport establishes protocol sessions. Encryption, pairing and
// keep-alive are its business, not ours.
type Transport interface {
	Dial(ctx context.Context, creds []byte) (Session, error)
}

// CredentialStore persists the opaque session credential blob.
// Load returns (nil, nil) when no credentials exist yet, which starts
// a fresh pairing flow rather than failing.
type CredentialStore interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, blob []byte) error
}

// Mood is the inference collaborator's answer to a mood analysis.
type Mood struct {
	Mood   string
	Phrase string
}

// Inference is the HTTP language-generation collaborator.
type Inference interface {
	AnalyzeMood(ctx context.Context, text string) (Mood, error)
	ToneReply(ctx context.Context, conversation string) (string, error)
	ReplyByTone(ctx context.Context, tone string) (string, error)
	Joke(ctx context.Context) (string, error)
	Roast(ctx context.Context) (string, error)
	Fact(ctx context.Context) (string, error)
	Quote(ctx context.Context, kind string) (string, error)
	SummarizeNews(ctx context.Context, title string) (string, error)
}

// Article is a single headline from the news collaborator.
type Article struct {
	Title  string
	Source string
	URL    string
}

// News fetches current headlines.
type News interface {
	TopHeadlines(ctx context.Context) ([]Article, error)
}

// ArchivedHit is a search result from the durable message archive.
type ArchivedHit struct {
	Chat  domain.ChatID
	Entry domain.HistoryEntry
}

// Archive is the durable, searchable message log. Failures here are
// logged and never block message processing.
type Archive interface {
	Store(chat domain.ChatID, entry domain.HistoryEntry) error
	Recent(chat domain.ChatID, limit int) ([]domain.HistoryEntry, error)
	Search(ctx context.Context, term string, limit int) ([]ArchivedHit, error)
	Count() (int, error)
}

// Worker doesn't protect itself.
// Can be silly, focused.
type Worker interface {
	Run(ctx context.Context) error
}

// GetWorkerName uses reflection to retrieve the type name of the worker.
// This is used for logging and supervision purposes, avoiding the need
// for manual naming in the Worker interface.
func GetWorkerName(w Worker) string {
	if w == nil {
		return "NilWorker"
	}
	t := reflect.TypeOf(w)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return t.Name()
}
