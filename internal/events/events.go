// Package events defines the change descriptors emitted by every
// mutating ledger and registry operation, and an in-process bus that
// fans them out to subscribed renderers. External adapters (WebSocket
// hub, AMQP publisher) consume the same stream.
package events

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
	ActionUndone  Action = "undone"

	EntityExpense  Entity = "expense"
	EntityTransfer Entity = "transfer"
	EntityMember   Entity = "member"
	EntityWallet   Entity = "wallet"
	EntityCategory Entity = "category"
)

type (
	Action string
	Entity string

	// Change describes one mutation of the ledger or a registry.
	Change struct {
		Action Action    `json:"action"`
		Entity Entity    `json:"entity"`
		ID     string    `json:"id"`
		Name   string    `json:"name,omitempty"`
		At     time.Time `json:"at"`
	}
)

// NewChange stamps a change descriptor with the current time.
func NewChange(action Action, entity Entity, id, name string) Change {
	return Change{Action: action, Entity: entity, ID: id, Name: name, At: time.Now().UTC()}
}

func (c Change) ToJSON() ([]byte, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal change: %w", err)
	}
	return body, nil
}

func ChangeFromJSON(body []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(body, &c); err != nil {
		return Change{}, fmt.Errorf("unmarshal change: %w", err)
	}
	return c, nil
}

// Bus is a small fan-out of change descriptors. Publishing never
// blocks: a subscriber that falls behind loses events rather than
// stalling the command path.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Change
	next int
}

func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Change)}
}

// Subscribe registers a buffered subscriber channel. The returned
// cancel func removes the subscription and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan Change, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Change, buffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers the change to every subscriber with room in its
// buffer.
func (b *Bus) Publish(c Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- c:
		default:
		}
	}
}

// Subscribers returns the current subscription count.
func (b *Bus) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
