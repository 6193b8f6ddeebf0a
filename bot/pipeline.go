package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"tonebot/contract"
	"tonebot/domain"
	"tonebot/history"
	"tonebot/moderation"
)

// queueCapacity bounds each conversation's pending messages. A full
// queue drops the newest message rather than blocking the transport.
const queueCapacity = 64

const (
	unauthorizedReply = "You are not authorized to use this command."
	groupOnlyReply    = "This command only works in groups."
)

type queuedMessage struct {
	ctx context.Context
	msg domain.InboundMessage
}

type handlerFunc func(ctx context.Context, msg domain.InboundMessage, args string) error

// Pipeline routes every inbound message: record, authorize, flood-check,
// then dispatch to a command handler or the tone-aware replier.
//
// Each conversation gets its own queue drained by a single goroutine, so
// messages within a chat are processed in arrival order while distinct
// chats proceed concurrently.
type Pipeline struct {
	log       *slog.Logger
	ledger    *history.Ledger
	archive   contract.Archive
	inference contract.Inference
	news      contract.News
	replier   *Replier
	broadcast *Broadcast
	allowList []domain.ParticipantID
	now       func() time.Time

	mu       sync.Mutex
	session  contract.Session
	selfID   domain.ParticipantID
	queues   map[domain.ChatID]chan queuedMessage
	handlers map[string]handlerFunc
}

func NewPipeline(
	log *slog.Logger,
	ledger *history.Ledger,
	archive contract.Archive,
	inference contract.Inference,
	news contract.News,
	censor *moderation.Censor,
	broadcast *Broadcast,
	allowList []domain.ParticipantID,
) *Pipeline {
	p := &Pipeline{
		log:       log,
		ledger:    ledger,
		archive:   archive,
		inference: inference,
		news:      news,
		replier:   NewReplier(inference, ledger, censor, log),
		broadcast: broadcast,
		allowList: allowList,
		now:       time.Now,
		queues:    make(map[domain.ChatID]chan queuedMessage),
	}
	p.handlers = map[string]handlerFunc{
		"joke":   p.handleJoke,
		"roast":  p.handleRoast,
		"fact":   p.handleFact,
		"mood":   p.handleMood,
		"tagall": p.handleTagAll,
		"tag":    p.handleTagAll,
		"news":   p.handleNews,
		"quote":  p.handleQuote,
		"spam":   p.handleSpam,
		"search": p.handleSearch,
		"help":   p.handleHelp,
	}
	return p
}

// WithClock overrides the pipeline's time source, used by tests.
func (p *Pipeline) WithClock(now func() time.Time) *Pipeline {
	p.now = now
	return p
}

// Bind attaches the live session. Called on every successful connect,
// replacing whatever session a previous attempt left behind.
func (p *Pipeline) Bind(session contract.Session) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.session = session
	p.selfID = session.SelfID()
}

func (p *Pipeline) currentSession() contract.Session {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Pipeline) self() domain.ParticipantID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selfID
}

// Dispatch enqueues a message on its conversation's queue and returns
// immediately. Empty texts are ignored at the door.
func (p *Pipeline) Dispatch(ctx context.Context, msg domain.InboundMessage) {
	if strings.TrimSpace(msg.Text) == "" {
		return
	}
	queue := p.queue(msg.Chat)
	select {
	case queue <- queuedMessage{ctx: ctx, msg: msg}:
	default:
		p.log.Warn("Conversation queue full, dropping message", "chat", msg.Chat)
	}
}

func (p *Pipeline) queue(chat domain.ChatID) chan queuedMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	if queue, ok := p.queues[chat]; ok {
		return queue
	}
	queue := make(chan queuedMessage, queueCapacity)
	p.queues[chat] = queue
	go p.drain(queue)
	return queue
}

func (p *Pipeline) drain(queue chan queuedMessage) {
	for item := range queue {
		p.process(item.ctx, item.msg)
	}
}

func (p *Pipeline) process(ctx context.Context, msg domain.InboundMessage) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("Panic while processing message", "chat", msg.Chat, "panic", r)
		}
	}()
	if err := p.handle(ctx, msg); err != nil {
		p.log.Error("Message processing failed", "chat", msg.Chat, "error", err)
	}
}

func (p *Pipeline) handle(ctx context.Context, msg domain.InboundMessage) error {
	// Own messages are recorded nowhere and answered never, which is
	// what keeps the agent from talking to itself.
	if msg.SelfOriginated {
		return nil
	}

	entry := domain.HistoryEntry{Sender: msg.Sender, Text: msg.Text, At: msg.At}
	p.ledger.Append(msg.Chat, entry)
	if p.archive != nil {
		if err := p.archive.Store(msg.Chat, entry); err != nil {
			p.log.Warn("Archive write failed", "chat", msg.Chat, "error", err)
		}
	}

	if !domain.IsAuthorized(msg.Sender, msg.SelfOriginated, p.allowList) {
		if !msg.Chat.IsGroup() {
			p.log.Debug("Dropping unauthorized direct message", "sender", msg.Sender)
			return nil
		}
		if _, ok := domain.ParseCommand(msg.Text); ok {
			return p.send(ctx, msg.Chat, domain.Outbound{Text: unauthorizedReply})
		}
		return nil
	}

	if msg.Chat.IsGroup() &&
		domain.IsSpam(p.ledger.Recent(msg.Chat), msg.Sender, p.now(), domain.FloodWindow, domain.FloodThreshold) {
		warning := fmt.Sprintf(
			"Hey there, slow down a bit! What's the rush? Your keyboard will get hot. 😂 (%s)",
			msg.Sender)
		p.log.Info("Burst detected", "chat", msg.Chat, "sender", msg.Sender)
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: p.replier.FixedTone(ctx, "roast", warning),
		})
	}

	// "stop" with the agent tagged cancels an active broadcast. Checked
	// before command parsing so it works regardless of phrasing.
	if strings.Contains(strings.ToLower(msg.Text), "stop") && msg.Mentioned(p.self()) {
		return p.handleStop(ctx, msg)
	}

	if cmd, ok := domain.ParseCommand(msg.Text); ok {
		handler, known := p.handlers[cmd.Name]
		if !known {
			return p.send(ctx, msg.Chat, domain.Outbound{
				Text: p.replier.FixedTone(ctx, "chill",
					"Didn't understand what you're saying. Type !help to check commands."),
			})
		}
		return handler(ctx, msg, cmd.Args)
	}

	// Greetings do not replace the tone reply: a "good morning" that
	// also warrants one gets both, the emoji first.
	lower := strings.ToLower(msg.Text)
	switch {
	case strings.Contains(lower, "good morning"):
		if err := p.send(ctx, msg.Chat, domain.Outbound{Text: "🌸 Good Morning!"}); err != nil {
			return err
		}
	case strings.Contains(lower, "good night"):
		if err := p.send(ctx, msg.Chat, domain.Outbound{Text: "🌸 Good Night!"}); err != nil {
			return err
		}
	}

	if msg.Mentioned(p.self()) || !msg.Chat.IsGroup() {
		reply := p.replier.ToneReply(ctx, msg.Chat, msg.Text)
		return p.send(ctx, msg.Chat, domain.Outbound{Text: reply})
	}
	return nil
}

func (p *Pipeline) send(ctx context.Context, chat domain.ChatID, out domain.Outbound) error {
	session := p.currentSession()
	if session == nil {
		return fmt.Errorf("no active session to send through")
	}
	return session.Send(ctx, chat, out)
}
