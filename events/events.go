package events

import (
	"context"
	"sync"

	"socialstakes/models"

	log "github.com/sirupsen/logrus"
)

// EventType represents different types of events in the system
type EventType string

const (
	EventTypeBalanceChange  EventType = "balance_change"
	EventTypeUserCreated    EventType = "user_created"
	EventTypeBetCreated     EventType = "bet_created"
	EventTypeBetJoined      EventType = "bet_joined"
	EventTypeBetStateChange EventType = "bet_state_change"
	EventTypeBetResolved    EventType = "bet_resolved"
	EventTypeBetInvited     EventType = "bet_invited"
	EventTypeInviteAnswered EventType = "bet_invite_answered"
)

// AllEventTypes lists every event type the services publish
func AllEventTypes() []EventType {
	return []EventType{
		EventTypeBalanceChange,
		EventTypeUserCreated,
		EventTypeBetCreated,
		EventTypeBetJoined,
		EventTypeBetStateChange,
		EventTypeBetResolved,
		EventTypeBetInvited,
		EventTypeInviteAnswered,
	}
}

// Event is the base interface for all events
type Event interface {
	Type() EventType
}

// BalanceChangeEvent represents a balance change that occurred
type BalanceChangeEvent struct {
	UserID          int64                  `json:"userId"`
	OldBalance      int64                  `json:"oldBalance"`
	NewBalance      int64                  `json:"newBalance"`
	TransactionType models.TransactionType `json:"transactionType"`
	ChangeAmount    int64                  `json:"changeAmount"`
	BetID           *int64                 `json:"betId,omitempty"`
}

func (e BalanceChangeEvent) Type() EventType {
	return EventTypeBalanceChange
}

// UserCreatedEvent represents a new registration
type UserCreatedEvent struct {
	UserID         int64  `json:"userId"`
	Username       string `json:"username"`
	InitialBalance int64  `json:"initialBalance"`
}

func (e UserCreatedEvent) Type() EventType {
	return EventTypeUserCreated
}

// BetCreatedEvent represents a newly opened bet
type BetCreatedEvent struct {
	BetID      int64                `json:"betId"`
	CreatorID  int64                `json:"creatorId"`
	Title      string               `json:"title"`
	Category   models.BetCategory   `json:"category"`
	Visibility models.BetVisibility `json:"visibility"`
	Options    []string             `json:"options"`
}

func (e BetCreatedEvent) Type() EventType {
	return EventTypeBetCreated
}

// BetJoinedEvent represents a stake placed on a bet
type BetJoinedEvent struct {
	BetID       int64                `json:"betId"`
	UserID      int64                `json:"userId"`
	OptionIndex int                  `json:"optionIndex"`
	Amount      int64                `json:"amount"`
	TotalPool   int64                `json:"totalPool"`
	Visibility  models.BetVisibility `json:"visibility"`
}

func (e BetJoinedEvent) Type() EventType {
	return EventTypeBetJoined
}

// BetStateChangeEvent represents a bet status transition
type BetStateChangeEvent struct {
	BetID      int64                `json:"betId"`
	OldState   models.BetStatus     `json:"oldState"`
	NewState   models.BetStatus     `json:"newState"`
	Visibility models.BetVisibility `json:"visibility"`
}

func (e BetStateChangeEvent) Type() EventType {
	return EventTypeBetStateChange
}

// BetResolvedEvent carries the settlement summary of a resolved bet
type BetResolvedEvent struct {
	BetID        int64                `json:"betId"`
	OutcomeIndex int                  `json:"outcomeIndex"`
	TotalPool    int64                `json:"totalPool"`
	WinnerCount  int                  `json:"winnerCount"`
	LoserCount   int                  `json:"loserCount"`
	Refunded     bool                 `json:"refunded"`
	Category     models.BetCategory   `json:"category"`
	Visibility   models.BetVisibility `json:"visibility"`
}

func (e BetResolvedEvent) Type() EventType {
	return EventTypeBetResolved
}

// BetInvitedEvent represents invitations sent by a bet's creator
type BetInvitedEvent struct {
	BetID      int64                `json:"betId"`
	CreatorID  int64                `json:"creatorId"`
	UserIDs    []int64              `json:"userIds"`
	Title      string               `json:"title"`
	Visibility models.BetVisibility `json:"visibility"`
}

func (e BetInvitedEvent) Type() EventType {
	return EventTypeBetInvited
}

// InviteAnsweredEvent represents an invitee accepting or declining. An
// acceptance is followed by a BetJoinedEvent for the stake.
type InviteAnsweredEvent struct {
	BetID      int64                `json:"betId"`
	UserID     int64                `json:"userId"`
	Accepted   bool                 `json:"accepted"`
	Visibility models.BetVisibility `json:"visibility"`
}

func (e InviteAnsweredEvent) Type() EventType {
	return EventTypeInviteAnswered
}

// Handler is a function that handles events
type Handler func(ctx context.Context, event Event)

// Bus manages event subscriptions and dispatching
type Bus struct {
	mu       sync.RWMutex
	handlers map[EventType][]Handler
}

// NewBus creates a new event bus
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[EventType][]Handler),
	}
}

// Subscribe adds a handler for a specific event type
func (b *Bus) Subscribe(eventType EventType, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)

	log.WithFields(log.Fields{
		"eventType":    eventType,
		"handlerCount": len(b.handlers[eventType]),
	}).Debug("Subscribed handler to event type")
}

// SubscribeAll adds the handler for every event type
func (b *Bus) SubscribeAll(handler Handler) {
	for _, eventType := range AllEventTypes() {
		b.Subscribe(eventType, handler)
	}
}

// Emit publishes an event to all registered handlers. Handlers run on their
// own goroutines and a panicking handler is logged, not propagated.
func (b *Bus) Emit(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers[event.Type()]))
	copy(handlers, b.handlers[event.Type()])
	b.mu.RUnlock()

	log.WithFields(log.Fields{
		"eventType":    event.Type(),
		"handlerCount": len(handlers),
	}).Debug("Emitting event")

	for i, handler := range handlers {
		go func(h Handler, handlerIndex int) {
			defer func() {
				if r := recover(); r != nil {
					log.WithFields(log.Fields{
						"eventType":    event.Type(),
						"handlerIndex": handlerIndex,
						"panic":        r,
					}).Error("Event handler panicked")
				}
			}()
			h(ctx, event)
		}(handler, i)
	}
}

// TransactionalBus holds events published inside a unit of work until the
// transaction commits.
type TransactionalBus struct {
	real    *Bus
	pending []Event
}

func NewTransactionalBus(real *Bus) *TransactionalBus {
	return &TransactionalBus{real: real}
}

func (b *TransactionalBus) Publish(e Event) {
	b.pending = append(b.pending, e)
}

// Pending returns the events waiting for commit
func (b *TransactionalBus) Pending() []Event {
	return b.pending
}

// Flush is called after a successful commit. Emission uses a background
// context since the request context may already be done.
func (b *TransactionalBus) Flush() {
	log.WithField("pendingEventCount", len(b.pending)).Debug("Flushing transactional bus")

	eventCtx := context.Background()
	for _, ev := range b.pending {
		b.real.Emit(eventCtx, ev)
	}
	b.pending = nil
}

// Discard drops pending events after a rollback
func (b *TransactionalBus) Discard() {
	b.pending = nil
}
