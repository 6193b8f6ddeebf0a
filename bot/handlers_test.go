package bot

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tonebot/contract"
	"tonebot/domain"
)

func TestHandleRoast(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{replies: map[string]string{"roast": "teri typing speed bhi slow hai"}})
	p.Bind(session)

	// No mention tagged: ask for one.
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!roast")))

	msg := inbound(testGroup, allowedUser, "!roast @someone")
	msg.Mentions = []domain.ParticipantID{strangerUser}
	req.NoError(p.handle(context.Background(), msg))

	sent := session.sentMessages()
	req.Len(sent, 2)
	req.Equal("Whom to roast? Tag them! (!roast @user)", sent[0].Out.Text)
	req.Equal(fmt.Sprintf("Oh bhai, @%s! teri typing speed bhi slow hai 🔥", strangerUser.Short()), sent[1].Out.Text)
	req.Equal([]domain.ParticipantID{strangerUser}, sent[1].Out.Mentions)
}

func TestHandleFactFallbacks(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{err: fmt.Errorf("inference down")})
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!fact")))

	sent := session.sentMessages()
	req.Len(sent, 1)
	req.Equal("Can't generate a fact, maybe facts are also on vacation these days.", sent[0].Out.Text)
}

func TestHandleMood(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	inf := &fakeInference{replies: map[string]string{"mood": "funny", "phrase": "sab maze mein hain"}}
	p := newTestPipeline(session, inf)
	p.Bind(session)

	// Direct chats are refused.
	req.NoError(p.handle(context.Background(), inbound(testDirect, allowedUser, "!mood")))

	// Empty history in the group.
	req.NoError(p.handleMood(context.Background(), inbound(testGroup, allowedUser, "!mood"), ""))

	// With history the analysis runs.
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "haha that was great")))
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!mood")))

	sent := session.sentMessages()
	req.Len(sent, 3)
	req.Equal(groupOnlyReply, sent[0].Out.Text)
	req.Contains(sent[1].Out.Text, "No khaas conversation yet")
	req.Contains(sent[2].Out.Text, `quite "funny"`)
	req.Contains(sent[2].Out.Text, "sab maze mein hain")
}

func TestHandleTagAll(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{
		self:         botUser,
		participants: []domain.ParticipantID{allowedUser, strangerUser, botUser},
	}
	p := newTestPipeline(session, &fakeInference{})
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!tagall")))
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!tag meeting in five")))

	sent := session.sentMessages()
	req.Len(sent, 2)
	req.Equal("Time to wake everyone up!", sent[0].Out.Text)
	// The agent never tags itself.
	req.ElementsMatch([]domain.ParticipantID{allowedUser, strangerUser}, sent[0].Out.Mentions)
	req.Equal("meeting in five", sent[1].Out.Text)
}

func TestHandleNewsFormatting(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	inf := &fakeInference{replies: map[string]string{"summary": "roman urdu headline"}}
	p := newTestPipeline(session, inf)
	p.news = &fakeNews{articles: []contract.Article{
		{Title: "Original headline", Source: "The Daily", URL: "https://example.com/1"},
	}}
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!news")))

	sent := session.sentMessages()
	req.Len(sent, 1)
	req.Contains(sent[0].Out.Text, "📰 *Today's Top Headlines (in Roman Urdu):*")
	req.Contains(sent[0].Out.Text, "1. *roman urdu headline*")
	req.Contains(sent[0].Out.Text, "_Source: The Daily_")
	req.Contains(sent[0].Out.Text, "Link: https://example.com/1")
}

func TestHandleNewsEmpty(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.news = &fakeNews{}
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!news")))

	sent := session.sentMessages()
	req.Len(sent, 1)
	req.Equal("Couldn't find any news for today.", sent[0].Out.Text)
}

func TestHandleSpamLifecycle(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.Bind(session)

	// Wrong format.
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!spam hello 3")))
	// Count too large.
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, `!spam "hello" 21`)))
	// Direct chats are refused.
	req.NoError(p.handle(context.Background(), inbound(testDirect, allowedUser, `!spam "hello" 3`)))
	// A valid run completes and announces it. The sends arrive after
	// handle returns because the run leaves the drain goroutine free.
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, `!spam "hello all" 2`)))
	req.Eventually(func() bool {
		return len(session.sentMessages()) == 6
	}, 2*time.Second, 5*time.Millisecond)

	sent := session.sentMessages()
	req.Contains(sent[0].Out.Text, "Spam command format is incorrect")
	req.Equal("Spam count should be between 1 and 20.", sent[1].Out.Text)
	req.Equal(groupOnlyReply, sent[2].Out.Text)
	req.Equal("hello all", sent[3].Out.Text)
	req.Equal("hello all", sent[4].Out.Text)
	req.Equal("Spam complete! Now everyone will sit in peace.", sent[5].Out.Text)
}

func TestHandleSpamWithMention(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.Bind(session)

	text := fmt.Sprintf(`!spam @%s "wake up" 1`, strangerUser.Short())
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, text)))
	req.Eventually(func() bool {
		return len(session.sentMessages()) == 2
	}, 2*time.Second, 5*time.Millisecond)

	sent := session.sentMessages()
	req.Equal("wake up", sent[0].Out.Text)
	req.Equal([]domain.ParticipantID{strangerUser}, sent[0].Out.Mentions)
}

func TestHandleStopWithoutRun(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.Bind(session)

	msg := inbound(testGroup, allowedUser, "stop it please")
	msg.Mentions = []domain.ParticipantID{botUser}
	req.NoError(p.handle(context.Background(), msg))

	sent := session.sentMessages()
	req.Len(sent, 1)
	req.Equal("No spam is running, what to stop?", sent[0].Out.Text)
}

func TestHandleStopByNonInitiator(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.broadcast = NewBroadcast(p.log, 20*time.Millisecond)
	p.allowList = append(p.allowList, strangerUser)
	p.Bind(session)

	ctx := context.Background()
	p.Dispatch(ctx, inbound(testGroup, allowedUser, `!spam "mine" 20`))
	req.Eventually(p.broadcast.Active, time.Second, time.Millisecond)

	msg := inbound(testGroup, strangerUser, "stop this")
	msg.Mentions = []domain.ParticipantID{botUser}
	p.Dispatch(ctx, msg)

	rejection := fmt.Sprintf("Only the person who started the spam can stop it. Initiator: @%s", allowedUser.Short())
	req.Eventually(func() bool {
		for _, s := range session.sentMessages() {
			if s.Out.Text == rejection {
				return true
			}
		}
		return false
	}, time.Second, time.Millisecond)
	req.False(p.broadcast.CancelRequested())

	ownerMsg := inbound(testGroup, allowedUser, "stop now")
	ownerMsg.Mentions = []domain.ParticipantID{botUser}
	p.Dispatch(ctx, ownerMsg)

	req.Eventually(func() bool { return !p.broadcast.Active() }, time.Second, time.Millisecond)

	var texts []string
	for _, s := range session.sentMessages() {
		texts = append(texts, s.Out.Text)
	}
	req.Contains(texts, "Okay, spam has been stopped.")
	req.NotContains(texts, "Spam complete! Now everyone will sit in peace.")
}

func TestHandleSpamStoppedByInitiatorMidRun(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.broadcast = NewBroadcast(p.log, 30*time.Millisecond)
	p.Bind(session)

	ctx := context.Background()
	p.Dispatch(ctx, inbound(testGroup, allowedUser, `!spam "flood" 20`))
	req.Eventually(p.broadcast.Active, time.Second, time.Millisecond)

	// The stop travels the same conversation queue as the spam command
	// and must take effect while the run is still going.
	stop := inbound(testGroup, allowedUser, "stop right now")
	stop.Mentions = []domain.ParticipantID{botUser}
	p.Dispatch(ctx, stop)

	req.Eventually(func() bool { return !p.broadcast.Active() }, time.Second, 5*time.Millisecond)

	floods := 0
	var texts []string
	for _, s := range session.sentMessages() {
		texts = append(texts, s.Out.Text)
		if s.Out.Text == "flood" {
			floods++
		}
	}
	req.Less(floods, 20)
	req.Contains(texts, "Okay, spam has been stopped.")
	req.NotContains(texts, "Spam complete! Now everyone will sit in peace.")
}

func TestHandleSearch(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.archive = &fakeArchive{hits: []contract.ArchivedHit{
		{Chat: testGroup, Entry: domain.HistoryEntry{Sender: allowedUser, Text: "pizza tonight?"}},
	}}
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!search pizza")))
	req.NoError(p.handle(context.Background(), inbound(testGroup, allowedUser, "!search")))

	sent := session.sentMessages()
	req.Len(sent, 2)
	req.Contains(sent[0].Out.Text, "pizza tonight?")
	req.Contains(sent[0].Out.Text, "@"+allowedUser.Short())
	req.Equal("Search what? (!search <words>)", sent[1].Out.Text)
}

func TestHandleHelpListsCommands(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{})
	p.Bind(session)

	req.NoError(p.handle(context.Background(), inbound(testDirect, allowedUser, "!help")))

	sent := session.sentMessages()
	req.Len(sent, 1)
	for _, cmd := range []string{"!joke", "!roast", "!fact", "!mood", "!tagall", "!news", "!quote", "!spam", "!search", "!help"} {
		req.Contains(sent[0].Out.Text, cmd)
	}
	req.Contains(sent[0].Out.Text, "Stop @"+botUser.Short())
}

func TestSendDailyQuote(t *testing.T) {
	req := require.New(t)
	session := &fakeSession{self: botUser}
	p := newTestPipeline(session, &fakeInference{replies: map[string]string{"quote": "himmat na haro"}})
	p.Bind(session)

	req.NoError(p.SendDailyQuote(context.Background(), testGroup))

	sent := session.sentMessages()
	req.Len(sent, 1)
	req.Equal("himmat na haro", sent[0].Out.Text)
}
