// Package archive is the durable, searchable message log.
// The in-memory ledger keeps the working window; this keeps everything,
// for the !search command, the status endpoint and the inspector tool.
package archive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.mongodb.org/mongo-driver/bson"

	"tonebot/contract"
	"tonebot/domain"
)

// KeyPrefix namespaces archive entries inside badger.
const KeyPrefix = "msg:"

// Record is the stored form of a history entry. BSON keeps the value
// codec aligned with the mongo credential backend.
type Record struct {
	ID     string `bson:"_id"`
	Chat   string `bson:"chat"`
	Sender string `bson:"sender"`
	Text   string `bson:"text"`
	AtNano int64  `bson:"at"`
}

type Repository struct {
	db    *badger.DB
	index *bluge.Writer
	log   *slog.Logger
}

func NewRepository(db *badger.DB, index *bluge.Writer, log *slog.Logger) *Repository {
	return &Repository{db: db, index: index, log: log}
}

// key is formatted as "msg:{chat}:{timestamp_padded}:{uuid}" to:
//  1. Ensure chronological sorting using 19-digit zero padding (lexicographical order).
//  2. Prevent data loss by using UUID as a collision disconnector if two messages
//     arrive at the same nanosecond.
func key(chat domain.ChatID, at time.Time, id uuid.UUID) []byte {
	return []byte(fmt.Sprintf("%s%s:%019d:%s", KeyPrefix, chat, at.UnixNano(), id))
}

// Store persists an entry and feeds the full-text index.
func (r *Repository) Store(chat domain.ChatID, entry domain.HistoryEntry) error {
	id := uuid.New()
	k := key(chat, entry.At, id)

	value, err := bson.Marshal(Record{
		ID:     id.String(),
		Chat:   string(chat),
		Sender: string(entry.Sender),
		Text:   entry.Text,
		AtNano: entry.At.UnixNano(),
	})
	if err != nil {
		return err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
	if err != nil {
		return err
	}

	doc := bluge.NewDocument(string(k)).
		AddField(bluge.NewTextField("text", entry.Text).StoreValue()).
		AddField(bluge.NewKeywordField("chat", string(chat)).StoreValue()).
		AddField(bluge.NewKeywordField("sender", string(entry.Sender)).StoreValue()).
		AddField(bluge.NewNumericField("at", float64(entry.At.UnixNano())).StoreValue())
	return r.index.Update(doc.ID(), doc)
}

// Recent retrieves the latest entries of one conversation, newest first.
// Thanks to the padded timestamp in the key, a reverse prefix scan walks
// messages in reverse-chronological order without sorting.
func (r *Repository) Recent(chat domain.ChatID, limit int) ([]domain.HistoryEntry, error) {
	var raw [][]byte
	err := r.db.View(func(txn *badger.Txn) error {
		prefix := []byte(KeyPrefix + string(chat) + ":")
		options := badger.DefaultIteratorOptions
		options.Reverse = true
		it := txn.NewIterator(options)
		defer it.Close()

		// Seek past the newest possible timestamp, then walk backwards.
		seekKey := append(append([]byte{}, prefix...), []byte("9999999999999999999")...)
		for it.Seek(seekKey); it.ValidForPrefix(prefix); it.Next() {
			if limit > 0 && len(raw) == limit {
				break
			}
			err := it.Item().Value(func(value []byte) error {
				raw = append(raw, append([]byte{}, value...))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	entries := make([]domain.HistoryEntry, 0, len(raw))
	for _, value := range raw {
		var record Record
		if err := bson.Unmarshal(value, &record); err != nil {
			return nil, err
		}
		entries = append(entries, toEntry(record))
	}
	return entries, nil
}

// Count reports the number of archived entries across all conversations.
func (r *Repository) Count() (int, error) {
	count := 0
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.PrefetchValues = false
		it := txn.NewIterator(options)
		defer it.Close()

		prefix := []byte(KeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	return count, err
}

// Search runs a full-text match over archived message text.
func (r *Repository) Search(ctx context.Context, term string, limit int) ([]contract.ArchivedHit, error) {
	reader, err := r.index.Reader()
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := reader.Close(); err != nil {
			r.log.Warn("Closing index reader failed", "error", err)
		}
	}()

	query := bluge.NewMatchQuery(term).SetField("text")
	iterator, err := reader.Search(ctx, bluge.NewTopNSearch(limit, query))
	if err != nil {
		return nil, err
	}

	var hits []contract.ArchivedHit
	for {
		match, err := iterator.Next()
		if err != nil {
			return nil, err
		}
		if match == nil {
			break
		}

		var hit contract.ArchivedHit
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			switch field {
			case "text":
				hit.Entry.Text = string(value)
			case "chat":
				hit.Chat = domain.ChatID(value)
			case "sender":
				hit.Entry.Sender = domain.ParticipantID(value)
			case "at":
				if nano, err := bluge.DecodeNumericFloat64(value); err == nil {
					hit.Entry.At = time.Unix(0, int64(nano)).UTC()
				}
			}
			return true
		})
		if err != nil {
			return nil, err
		}
		hits = append(hits, hit)
	}
	return hits, nil
}

func toEntry(record Record) domain.HistoryEntry {
	return domain.HistoryEntry{
		Sender: domain.ParticipantID(record.Sender),
		Text:   record.Text,
		At:     time.Unix(0, record.AtNano).UTC(),
	}
}

// Entries converts raw records in bulk, used by the inspector tool.
func Entries(records []Record) []domain.HistoryEntry {
	return lo.Map(records, func(record Record, _ int) domain.HistoryEntry {
		return toEntry(record)
	})
}
