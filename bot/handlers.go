package bot

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	stderrors "errors"

	"github.com/samber/lo"

	"tonebot/domain"
	"tonebot/errors"
)

// searchLimit bounds how many archive hits a !search reply shows.
const searchLimit = 5

func (p *Pipeline) handleJoke(ctx context.Context, msg domain.InboundMessage, _ string) error {
	joke, err := p.inference.Joke(ctx)
	if err != nil {
		p.log.Warn("Joke generation failed", "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: "Can't generate a joke, maybe my sense of humor is offline.",
		})
	}
	if strings.TrimSpace(joke) == "" {
		joke = "I can't remember any joke right now."
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: "😂: " + joke})
}

func (p *Pipeline) handleRoast(ctx context.Context, msg domain.InboundMessage, _ string) error {
	if len(msg.Mentions) == 0 {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Whom to roast? Tag them! (!roast @user)"})
	}
	target := msg.Mentions[0]

	roast, err := p.inference.Roast(ctx)
	if err != nil {
		p.log.Warn("Roast generation failed", "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: "Can't roast, maybe the target is too good for one.",
		})
	}
	if strings.TrimSpace(roast) == "" {
		roast = "It seems no roast can be made on you!"
	}
	return p.send(ctx, msg.Chat, domain.Outbound{
		Text:     fmt.Sprintf("Oh bhai, @%s! %s 🔥", target.Short(), roast),
		Mentions: []domain.ParticipantID{target},
	})
}

func (p *Pipeline) handleFact(ctx context.Context, msg domain.InboundMessage, _ string) error {
	fact, err := p.inference.Fact(ctx)
	if err != nil {
		p.log.Warn("Fact generation failed", "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: "Can't generate a fact, maybe facts are also on vacation these days.",
		})
	}
	if strings.TrimSpace(fact) == "" {
		fact = "I can't remember any fact right now."
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: "🧠 Did you know? " + fact})
}

func (p *Pipeline) handleMood(ctx context.Context, msg domain.InboundMessage, _ string) error {
	if !msg.Chat.IsGroup() {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: groupOnlyReply})
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: "Current mood: " + p.describeMood(ctx, msg.Chat)})
}

func (p *Pipeline) describeMood(ctx context.Context, chat domain.ChatID) string {
	recent := p.ledger.Recent(chat)
	if len(recent) == 0 {
		return "No khaas conversation yet, so can't determine the mood."
	}

	blob := strings.Join(lo.Map(recent, func(e domain.HistoryEntry, _ int) string {
		return e.Text
	}), " ")

	mood, err := p.inference.AnalyzeMood(ctx, blob)
	if err != nil {
		p.log.Warn("Mood analysis failed", "chat", chat, "error", err)
		return "Can't analyze the mood, maybe I'm also confused."
	}

	phrase := func(fallback string) string {
		return lo.Ternary(mood.Phrase != "", mood.Phrase, fallback)
	}
	switch {
	case strings.Contains(mood.Mood, "funny") || strings.Contains(mood.Mood, "roasting"):
		return `The group's mood seems quite "funny". ` + phrase("Everyone is engaged in humor!")
	case strings.Contains(mood.Mood, "chill") || strings.Contains(mood.Mood, "casual"):
		return `The group's mood seems "chill". ` + phrase("Everyone is fine and relaxed.")
	case strings.Contains(mood.Mood, "serious") || strings.Contains(mood.Mood, "emotional"):
		return `The group's mood seems a bit "serious". ` + phrase("Some deep conversations are happening.")
	default:
		return "I can't understand the group's mood. " + phrase("Perhaps everyone is quiet or there are mixed feelings.")
	}
}

func (p *Pipeline) handleTagAll(ctx context.Context, msg domain.InboundMessage, args string) error {
	if !msg.Chat.IsGroup() {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: groupOnlyReply})
	}

	session := p.currentSession()
	if session == nil {
		return fmt.Errorf("no active session to send through")
	}
	participants, err := session.Participants(ctx, msg.Chat)
	if err != nil {
		p.log.Warn("Participant lookup failed", "chat", msg.Chat, "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Couldn't tag everyone, something went wrong."})
	}

	self := p.self()
	others := lo.Filter(participants, func(id domain.ParticipantID, _ int) bool {
		return id != self
	})

	text := strings.TrimSpace(args)
	if text == "" {
		text = "Time to wake everyone up!"
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: text, Mentions: others})
}

func (p *Pipeline) handleNews(ctx context.Context, msg domain.InboundMessage, _ string) error {
	articles, err := p.news.TopHeadlines(ctx)
	if err != nil {
		p.log.Warn("Headline fetch failed", "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Something went wrong while fetching news."})
	}
	if len(articles) == 0 {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Couldn't find any news for today."})
	}

	var b strings.Builder
	b.WriteString("📰 *Today's Top Headlines (in Roman Urdu):*\n\n")
	for i, article := range articles {
		headline := article.Title
		if summary, err := p.inference.SummarizeNews(ctx, article.Title); err == nil && strings.TrimSpace(summary) != "" {
			headline = summary
		} else if err != nil {
			p.log.Warn("Headline summary failed", "title", article.Title, "error", err)
		}
		fmt.Fprintf(&b, "%d. *%s*\n   _Source: %s_\n   Link: %s\n\n", i+1, headline, article.Source, article.URL)
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: b.String()})
}

func (p *Pipeline) handleQuote(ctx context.Context, msg domain.InboundMessage, _ string) error {
	kinds := []string{"motivational", "funny"}
	quote, err := p.inference.Quote(ctx, kinds[rand.Intn(len(kinds))])
	if err != nil {
		p.log.Warn("Quote generation failed", "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: "Can't generate a quote, maybe I ran out of words today.",
		})
	}
	if strings.TrimSpace(quote) == "" {
		quote = "No quote found today."
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: quote})
}

func (p *Pipeline) handleSpam(ctx context.Context, msg domain.InboundMessage, args string) error {
	if !msg.Chat.IsGroup() {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: groupOnlyReply})
	}

	parsed, err := domain.ParseBroadcastArgs(args)
	switch {
	case stderrors.Is(err, errors.ErrCountOutOfRange):
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Spam count should be between 1 and 20."})
	case err != nil:
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: `Spam command format is incorrect. Correct format: !spam [@user] "<message>" <count>`,
		})
	}

	var mentions []domain.ParticipantID
	if parsed.Mention != nil {
		mentions = append(mentions, *parsed.Mention)
	}

	run, err := p.broadcast.Begin(msg.Chat, msg.Sender, parsed.Count)
	switch {
	case stderrors.Is(err, errors.ErrCountOutOfRange):
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Spam count should be between 1 and 20."})
	case stderrors.Is(err, errors.ErrBroadcastActive):
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text: "A spam run is already going on, wait for it to finish.",
		})
	case err != nil:
		return err
	}

	// The run must not occupy this conversation's drain goroutine:
	// the initiator's stop message arrives through the same queue and
	// has to be processed while the sends are still going.
	go func() {
		cancelled, err := p.broadcast.Run(ctx, run, p.send, parsed.Text, mentions)
		if err != nil {
			p.log.Error("Broadcast run failed", "chat", msg.Chat, "error", err)
			return
		}
		if cancelled {
			// The cancellation acknowledgement was already sent when
			// the stop request was accepted.
			return
		}
		if err := p.send(ctx, msg.Chat, domain.Outbound{Text: "Spam complete! Now everyone will sit in peace."}); err != nil {
			p.log.Warn("Broadcast completion notice failed", "chat", msg.Chat, "error", err)
		}
	}()
	return nil
}

func (p *Pipeline) handleStop(ctx context.Context, msg domain.InboundMessage) error {
	err := p.broadcast.RequestCancel(msg.Sender)
	switch {
	case stderrors.Is(err, errors.ErrNoBroadcast):
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "No spam is running, what to stop?"})
	case stderrors.Is(err, errors.ErrNotInitiator):
		initiator, _ := p.broadcast.Initiator()
		return p.send(ctx, msg.Chat, domain.Outbound{
			Text:     fmt.Sprintf("Only the person who started the spam can stop it. Initiator: @%s", initiator.Short()),
			Mentions: []domain.ParticipantID{initiator},
		})
	case err != nil:
		return err
	}
	p.log.Info("Broadcast stop accepted", "chat", msg.Chat, "requester", msg.Sender)
	return p.send(ctx, msg.Chat, domain.Outbound{Text: "Okay, spam has been stopped."})
}

func (p *Pipeline) handleSearch(ctx context.Context, msg domain.InboundMessage, args string) error {
	if p.archive == nil {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Search is unavailable right now."})
	}
	term := strings.TrimSpace(args)
	if term == "" {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Search what? (!search <words>)"})
	}

	hits, err := p.archive.Search(ctx, term, searchLimit)
	if err != nil {
		p.log.Warn("Archive search failed", "term", term, "error", err)
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "Search is unavailable right now."})
	}
	if len(hits) == 0 {
		return p.send(ctx, msg.Chat, domain.Outbound{Text: "No messages matched."})
	}

	var b strings.Builder
	b.WriteString("🔎 *Top matches:*\n")
	for i, hit := range hits {
		fmt.Fprintf(&b, "%d. @%s: %s\n", i+1, hit.Entry.Sender.Short(), hit.Entry.Text)
	}
	return p.send(ctx, msg.Chat, domain.Outbound{Text: b.String()})
}

func (p *Pipeline) handleHelp(ctx context.Context, msg domain.InboundMessage, _ string) error {
	help := fmt.Sprintf(`
*🌟 Tone-Aware WhatsApp Bot Commands 🌟*

🤖 *Key Features:*
- Conversation tone detection (Funny, Chill, Serious)
- Roman Urdu replies
- Spam detection & automated roasts

📜 *Commands:*
- `+"`!joke`"+`: Tell a funny Roman Urdu joke.
- `+"`!roast @user`"+`: Roast a user in funny Roman Urdu.
- `+"`!fact`"+`: Tell an interesting Roman Urdu fact.
- `+"`!mood`"+`: Tell the group's current mood.
- `+"`!tagall`"+`: Tag all group members.
- `+"`!news`"+`: Present today's top headlines in Roman Urdu.
- `+"`!quote`"+`: Send a random motivational or funny quote in Roman Urdu.
- `+"`!spam [@user] \"<message>\" <count>`"+`: Spam the group with the specified message <count> times. ([@user is optional])
- `+"`!search <words>`"+`: Search the message archive.
- `+"`Stop @%s`"+`: Stop spam (only the initiator can stop it).
- `+"`!help`"+`: Show this help message.

✨ *Other Reactions:*
- "Good morning" / "Good night": Bot will react with an emoji.

_Note: Bot automatically detects tone and replies in Roman Urdu if mentioned or in private chat._
`, p.self().Short())
	return p.send(ctx, msg.Chat, domain.Outbound{Text: help})
}

// SendDailyNews posts the headline digest to the given chat, used by the
// scheduler outside any inbound message.
func (p *Pipeline) SendDailyNews(ctx context.Context, chat domain.ChatID) error {
	return p.handleNews(ctx, domain.InboundMessage{Chat: chat}, "")
}

// SendDailyQuote posts a random quote to the given chat.
func (p *Pipeline) SendDailyQuote(ctx context.Context, chat domain.ChatID) error {
	return p.handleQuote(ctx, domain.InboundMessage{Chat: chat}, "")
}
