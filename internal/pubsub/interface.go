package pubsub

// EventType is the topic an event is published to.
type EventType string

const (
	// EventMatchCommitted is published after a match result has been
	// durably committed to the ledger.
	EventMatchCommitted EventType = "match-committed"
	// EventSeasonClosed is published after a season has been closed.
	EventSeasonClosed EventType = "season-closed"
)

type PubSubClient interface {
	SendMessage(topic EventType, data any) error
	ProcessMessage(data []byte, returnValue any) error
}
