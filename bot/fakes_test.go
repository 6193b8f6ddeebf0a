package bot

import (
	"context"
	"sync"

	"tonebot/contract"
	"tonebot/domain"
)

const (
	testGroup  = domain.ChatID("120363000000000001@g.us")
	testDirect = domain.ChatID("923001112222@s.whatsapp.net")

	allowedUser  = domain.ParticipantID("923001112222@s.whatsapp.net")
	strangerUser = domain.ParticipantID("923009998888@s.whatsapp.net")
	botUser      = domain.ParticipantID("923005556666@s.whatsapp.net")
)

type sentMessage struct {
	Chat domain.ChatID
	Out  domain.Outbound
}

type fakeSession struct {
	mu           sync.Mutex
	sent         []sentMessage
	self         domain.ParticipantID
	participants []domain.ParticipantID
	sendErr      error
}

func (f *fakeSession) OnConnection(func(contract.ConnectionUpdate)) {}
func (f *fakeSession) OnCredentials(func([]byte))                   {}
func (f *fakeSession) OnMessage(func(domain.InboundMessage))        {}

func (f *fakeSession) Send(_ context.Context, chat domain.ChatID, out domain.Outbound) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{Chat: chat, Out: out})
	return nil
}

func (f *fakeSession) Participants(context.Context, domain.ChatID) ([]domain.ParticipantID, error) {
	return f.participants, nil
}

func (f *fakeSession) SelfID() domain.ParticipantID { return f.self }
func (f *fakeSession) Close() error                 { return nil }

func (f *fakeSession) sentMessages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]sentMessage, len(f.sent))
	copy(out, f.sent)
	return out
}

// fakeInference returns canned strings per endpoint; err fails them all.
type fakeInference struct {
	err     error
	replies map[string]string
}

func (f *fakeInference) reply(key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.replies[key], nil
}

func (f *fakeInference) AnalyzeMood(context.Context, string) (contract.Mood, error) {
	if f.err != nil {
		return contract.Mood{}, f.err
	}
	return contract.Mood{Mood: f.replies["mood"], Phrase: f.replies["phrase"]}, nil
}

func (f *fakeInference) ToneReply(context.Context, string) (string, error)   { return f.reply("tone") }
func (f *fakeInference) ReplyByTone(context.Context, string) (string, error) { return f.reply("bytone") }
func (f *fakeInference) Joke(context.Context) (string, error)                { return f.reply("joke") }
func (f *fakeInference) Roast(context.Context) (string, error)               { return f.reply("roast") }
func (f *fakeInference) Fact(context.Context) (string, error)                { return f.reply("fact") }
func (f *fakeInference) Quote(context.Context, string) (string, error)       { return f.reply("quote") }
func (f *fakeInference) SummarizeNews(context.Context, string) (string, error) {
	return f.reply("summary")
}

type fakeNews struct {
	err      error
	articles []contract.Article
}

func (f *fakeNews) TopHeadlines(context.Context) ([]contract.Article, error) {
	return f.articles, f.err
}

type fakeArchive struct {
	stored []contract.ArchivedHit
	hits   []contract.ArchivedHit
	err    error
}

func (f *fakeArchive) Store(chat domain.ChatID, entry domain.HistoryEntry) error {
	f.stored = append(f.stored, contract.ArchivedHit{Chat: chat, Entry: entry})
	return f.err
}

func (f *fakeArchive) Recent(domain.ChatID, int) ([]domain.HistoryEntry, error) { return nil, f.err }

func (f *fakeArchive) Search(context.Context, string, int) ([]contract.ArchivedHit, error) {
	return f.hits, f.err
}

func (f *fakeArchive) Count() (int, error) { return len(f.stored), f.err }
