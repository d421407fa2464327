// Package notify carries realtime match events to connected clients.
// Publishing is fire-and-forget: delivery is at-most-once and failures are
// swallowed, since clients self-heal through the state-sync fetch.
package notify

// Event names published on match topics.
const (
	EventMatchStarted         = "match_started"
	EventPlayerJoined         = "player_joined"
	EventStakeConfirmed       = "stake_confirmed"
	EventSelectionStarted     = "selection_started"
	EventCharacterSelected    = "character_selected"
	EventTurnResolved         = "turn_resolved"
	EventRoundEnded           = "round_ended"
	EventMatchCompleted       = "match_completed"
	EventMatchCancelled       = "match_cancelled"
	EventOpponentDisconnected = "opponent_disconnected"
	EventOpponentReconnected  = "opponent_reconnected"
)

// Publisher broadcasts an event on a match topic. Implementations must not
// block the caller on slow subscribers.
type Publisher interface {
	Publish(matchID, event string, payload any)
}

// NopPublisher drops everything; used when realtime delivery is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(string, string, any) {}
