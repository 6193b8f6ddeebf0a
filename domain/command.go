package domain

import (
	"regexp"
	"strconv"
	"strings"

	"tonebot/errors"
)

// CommandPrefix triggers command parsing.
const CommandPrefix = "!"

// Broadcast count bounds accepted by the !spam command.
const (
	MinBroadcastCount = 1
	MaxBroadcastCount = 20
)

// ParsedCommand is the result of splitting a prefix-triggered message.
// Name is lower-cased without the prefix; Args is the trimmed remainder.
type ParsedCommand struct {
	Name string
	Args string
}

// ParseCommand splits a command message into its name and argument string.
// It returns false when the text does not start with the command prefix.
func ParseCommand(text string) (ParsedCommand, bool) {
	if !strings.HasPrefix(text, CommandPrefix) {
		return ParsedCommand{}, false
	}
	token, rest, _ := strings.Cut(text, " ")
	name := strings.ToLower(strings.TrimPrefix(token, CommandPrefix))
	if name == "" {
		return ParsedCommand{}, false
	}
	return ParsedCommand{Name: name, Args: strings.TrimSpace(rest)}, true
}

// Grammar: an optional @mention, a double-quoted body, a trailing count.
// Example: @123456789 "wake up" 5
var broadcastArgsPattern = regexp.MustCompile(`^(?:@(\d+)\s+)?"([^"]+)"\s+(\d+)$`)

// BroadcastArgs are the validated arguments of a broadcast command.
type BroadcastArgs struct {
	Mention *ParticipantID
	Text    string
	Count   int
}

// ParseBroadcastArgs validates the broadcast argument grammar.
// A malformed string yields ErrMalformedBroadcast, an out-of-range count
// ErrCountOutOfRange; both are user errors, not faults.
func ParseBroadcastArgs(args string) (BroadcastArgs, error) {
	matches := broadcastArgsPattern.FindStringSubmatch(strings.TrimSpace(args))
	if matches == nil {
		return BroadcastArgs{}, errors.ErrMalformedBroadcast
	}

	count, err := strconv.Atoi(matches[3])
	if err != nil || count < MinBroadcastCount || count > MaxBroadcastCount {
		return BroadcastArgs{}, errors.ErrCountOutOfRange
	}

	parsed := BroadcastArgs{Text: matches[2], Count: count}
	if matches[1] != "" {
		mention := ParticipantID(matches[1] + DirectSuffix)
		parsed.Mention = &mention
	}
	return parsed, nil
}
