// Package domain contains core concepts of the chat agent.
// Identifiers, inbound messages and history entries are plain immutable values;
// all rules operating on them are pure functions.
package domain

import (
	"strings"
	"time"
)

const (
	// GroupSuffix marks a group conversation identifier.
	GroupSuffix = "@g.us"
	// DirectSuffix marks an individual participant identifier.
	DirectSuffix = "@s.whatsapp.net"
)

// ChatID identifies a conversation, direct or group.
// It is stable for the conversation's lifetime.
type ChatID string

func (c ChatID) IsGroup() bool {
	return strings.HasSuffix(string(c), GroupSuffix)
}

// ParticipantID identifies a message sender. In direct conversations
// it may equal the ChatID.
type ParticipantID string

// Short returns the bare identifier without its server suffix,
// the form used to render @mentions.
func (p ParticipantID) Short() string {
	id, _, _ := strings.Cut(string(p), "@")
	return id
}

// InboundMessage is a message as received from the transport.
// It is never persisted beyond the ledger window and the archive.
type InboundMessage struct {
	Chat           ChatID
	Sender         ParticipantID
	Text           string
	At             time.Time
	Mentions       []ParticipantID
	SelfOriginated bool
}

// Mentioned reports whether the given participant is tagged in the message.
func (m InboundMessage) Mentioned(p ParticipantID) bool {
	for _, id := range m.Mentions {
		if id == p {
			return true
		}
	}
	return false
}

// HistoryEntry is the ledger's view of a message.
type HistoryEntry struct {
	Sender ParticipantID
	Text   string
	At     time.Time
}

// Outbound is a message to be sent through the transport.
type Outbound struct {
	Text     string
	Mentions []ParticipantID
}
