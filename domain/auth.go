package domain

import "github.com/samber/lo"

// IsAuthorized reports whether a sender may drive the agent.
// Self-originated messages are always authorized; everyone else must be
// on the static allow-list. The decision depends only on its inputs.
func IsAuthorized(sender ParticipantID, selfOriginated bool, allowList []ParticipantID) bool {
	return selfOriginated || lo.Contains(allowList, sender)
}
