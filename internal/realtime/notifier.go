package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// Relation collections subscribers can watch.
const (
	CollectionFollows        = "follows"
	CollectionFriendRequests = "friend_requests"
	CollectionFriendships    = "friendships"
	CollectionBlocks         = "blocks"
)

// Collections lists every collection the notifier knows about.
var Collections = []string{
	CollectionFollows,
	CollectionFriendRequests,
	CollectionFriendships,
	CollectionBlocks,
}

// Event is a pure invalidation signal: it names the collection and the user
// whose view of it changed, nothing more. Delivery is at-least-once and
// unordered relative to the subscriber's own writes, so handlers must
// re-query on receipt rather than apply a delta.
type Event struct {
	Collection string `json:"collection"`
	UserID     uint   `json:"user_id"`
}

// Subscription identifies one registered onChange callback.
type Subscription struct {
	id         uint64
	collection string
	userID     uint
}

// Notifier fans invalidation events out to in-process subscribers and,
// when a Redis client is configured, bridges them across instances via
// pub/sub. A nil client means local-only delivery.
type Notifier struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[string]map[uint]map[uint64]func(Event)
	rdb    *redis.Client
}

// NewNotifier creates a Notifier. rdb may be nil.
func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{
		subs: make(map[string]map[uint]map[uint64]func(Event)),
		rdb:  rdb,
	}
}

// Subscribe registers onChange for events on one collection scoped to one
// user. The returned handle is passed to Unsubscribe.
func (n *Notifier) Subscribe(collection string, userID uint, onChange func(Event)) *Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.nextID++
	byUser, ok := n.subs[collection]
	if !ok {
		byUser = make(map[uint]map[uint64]func(Event))
		n.subs[collection] = byUser
	}
	callbacks, ok := byUser[userID]
	if !ok {
		callbacks = make(map[uint64]func(Event))
		byUser[userID] = callbacks
	}
	callbacks[n.nextID] = onChange
	return &Subscription{id: n.nextID, collection: collection, userID: userID}
}

// Unsubscribe removes a subscription; unknown handles are ignored.
func (n *Notifier) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if byUser, ok := n.subs[sub.collection]; ok {
		if callbacks, ok := byUser[sub.userID]; ok {
			delete(callbacks, sub.id)
			if len(callbacks) == 0 {
				delete(byUser, sub.userID)
			}
		}
		if len(byUser) == 0 {
			delete(n.subs, sub.collection)
		}
	}
}

// Publish delivers an invalidation event to local subscribers and to the
// Redis channel for other instances. Instances subscribed to the pattern
// may see their own publish again; at-least-once delivery makes that
// harmless.
func (n *Notifier) Publish(ctx context.Context, collection string, userID uint) error {
	event := Event{Collection: collection, UserID: userID}
	n.dispatch(event)
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return n.rdb.Publish(ctx, channelFor(collection, userID), payload).Err()
}

// Start wires the cross-instance bridge: events published by other
// instances are dispatched into the local hub. No-op without Redis.
func (n *Notifier) Start(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	sub := n.rdb.PSubscribe(ctx, "relations:*:user:*")
	ch := sub.Channel()

	go func() {
		for msg := range ch {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				log.Printf("invalid relation event payload on %s: %v", msg.Channel, err)
				continue
			}
			n.dispatch(event)
		}
	}()

	return nil
}

// dispatch snapshots the matching callbacks under the read lock and
// invokes them outside it, so a callback may subscribe or unsubscribe
// without deadlocking.
func (n *Notifier) dispatch(event Event) {
	n.mu.RLock()
	var callbacks []func(Event)
	if byUser, ok := n.subs[event.Collection]; ok {
		for _, fn := range byUser[event.UserID] {
			callbacks = append(callbacks, fn)
		}
	}
	n.mu.RUnlock()

	for _, fn := range callbacks {
		fn(event)
	}
}

func channelFor(collection string, userID uint) string {
	return fmt.Sprintf("relations:%s:user:%d", collection, userID)
}

// ValidCollection reports whether name is a known relation collection.
func ValidCollection(name string) bool {
	for _, c := range Collections {
		if c == name {
			return true
		}
	}
	return false
}

// ParseCollections splits a comma-separated list into known collection
// names, defaulting to all of them when the list is empty.
func ParseCollections(list string) []string {
	if strings.TrimSpace(list) == "" {
		return Collections
	}
	var out []string
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if ValidCollection(name) {
			out = append(out, name)
		}
	}
	return out
}
