package infrastructure

import (
	"fmt"
	"strings"

	"socialstakes/events"
)

// EventSubjectMapper maps domain events to message bus subjects under a
// common prefix
type EventSubjectMapper struct {
	prefix string
}

// NewEventSubjectMapper creates a mapper. An empty prefix yields bare subjects.
func NewEventSubjectMapper(prefix string) *EventSubjectMapper {
	return &EventSubjectMapper{prefix: strings.Trim(prefix, ".")}
}

// MapEventToSubject converts a domain event to its subject
func (m *EventSubjectMapper) MapEventToSubject(event events.Event) string {
	var subject string
	switch event.Type() {
	case events.EventTypeBalanceChange:
		subject = "users.balance_changed"
	case events.EventTypeUserCreated:
		subject = "users.created"
	case events.EventTypeBetCreated:
		subject = "bets.created"
	case events.EventTypeBetJoined:
		subject = "bets.joined"
	case events.EventTypeBetStateChange:
		subject = "bets.state_changed"
	case events.EventTypeBetResolved:
		subject = "bets.resolved"
	case events.EventTypeBetInvited:
		subject = "bets.invited"
	case events.EventTypeInviteAnswered:
		subject = "bets.invite_answered"
	default:
		subject = fmt.Sprintf("unknown.%s", event.Type())
	}
	return m.withPrefix(subject)
}

// Wildcard returns the subject filter covering every mapped subject
func (m *EventSubjectMapper) Wildcard() string {
	return m.withPrefix(">")
}

func (m *EventSubjectMapper) withPrefix(subject string) string {
	if m.prefix == "" {
		return subject
	}
	return m.prefix + "." + subject
}

// PartitionKey returns the entity an event belongs to. Events sharing a key
// keep their relative order on partitioned transports.
func PartitionKey(event events.Event) string {
	switch e := event.(type) {
	case events.BalanceChangeEvent:
		return fmt.Sprintf("user:%d", e.UserID)
	case events.UserCreatedEvent:
		return fmt.Sprintf("user:%d", e.UserID)
	case events.BetCreatedEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	case events.BetJoinedEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	case events.BetStateChangeEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	case events.BetResolvedEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	case events.BetInvitedEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	case events.InviteAnsweredEvent:
		return fmt.Sprintf("bet:%d", e.BetID)
	default:
		return string(event.Type())
	}
}
