package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abadojack/whatlanggo"
	"github.com/samber/lo"

	"tonebot/contract"
	"tonebot/domain"
	"tonebot/history"
	"tonebot/moderation"
)

const (
	// toneContextWindow is how many trailing messages feed a tone reply.
	toneContextWindow = 10

	apologyReply = "Sorry, I can't reply right now. Something went wrong."
)

// Replier builds conversational replies through the inference
// collaborator and masks profanity on the way out.
type Replier struct {
	inference contract.Inference
	ledger    *history.Ledger
	censor    *moderation.Censor
	log       *slog.Logger
}

func NewReplier(inference contract.Inference, ledger *history.Ledger, censor *moderation.Censor, log *slog.Logger) *Replier {
	return &Replier{inference: inference, ledger: ledger, censor: censor, log: log}
}

// ToneReply generates a reply matching the conversation's tone. The
// prompt is the chat's recent history plus the triggering text,
// truncated to the last toneContextWindow lines. Collaborator failures
// degrade to a fixed apology, never an error.
func (r *Replier) ToneReply(ctx context.Context, chat domain.ChatID, latest string) string {
	texts := lo.Map(r.ledger.Recent(chat), func(e domain.HistoryEntry, _ int) string {
		return e.Text
	})
	texts = append(texts, latest)
	if len(texts) > toneContextWindow {
		texts = texts[len(texts)-toneContextWindow:]
	}
	conversation := strings.Join(texts, "\n")

	info := whatlanggo.Detect(conversation)
	r.log.Debug("Conversation language detected",
		"chat", chat, "lang", whatlanggo.LangToString(info.Lang), "confidence", info.Confidence)

	reply, err := r.inference.ToneReply(ctx, conversation)
	if err != nil {
		r.log.Warn("Tone reply failed", "chat", chat, "error", err)
		return apologyReply
	}
	if strings.TrimSpace(reply) == "" {
		return apologyReply
	}
	return r.sanitize(reply)
}

// FixedTone generates a short reply in the given tone. When fallback is
// non-empty it is sent as-is without consulting the collaborator.
func (r *Replier) FixedTone(ctx context.Context, tone, fallback string) string {
	if fallback != "" {
		return fallback
	}
	reply, err := r.inference.ReplyByTone(ctx, tone)
	if err != nil {
		r.log.Warn("Fixed tone reply failed", "tone", tone, "error", err)
		return fmt.Sprintf("Sorry, can't generate a %s reply.", tone)
	}
	if strings.TrimSpace(reply) == "" {
		return fmt.Sprintf("Wanted to say something %s, but can't find the words.", tone)
	}
	return r.sanitize(reply)
}

func (r *Replier) sanitize(text string) string {
	if r.censor == nil {
		return text
	}
	masked, matched := r.censor.Apply(text)
	if len(matched) > 0 {
		r.log.Debug("Masked generated reply", "words", len(matched))
	}
	return masked
}
