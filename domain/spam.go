package domain

import "time"

const (
	// FloodWindow is the sliding window used for burst detection.
	FloodWindow = 5 * time.Second
	// FloodThreshold is the number of messages within FloodWindow that counts as a burst.
	FloodThreshold = 5
)

// IsSpam reports whether the sender produced at least threshold messages
// within window of now, judged against the given history snapshot.
// Entries with a timestamp exactly window old are outside the window.
func IsSpam(history []HistoryEntry, sender ParticipantID, now time.Time, window time.Duration, threshold int) bool {
	count := 0
	for _, entry := range history {
		if entry.Sender != sender {
			continue
		}
		if now.Sub(entry.At) < window {
			count++
			if count >= threshold {
				return true
			}
		}
	}
	return false
}
