// Package realtime fans item table changes out to connected clients
// and to the notifier, over a Redis pub/sub channel. It plays the role
// the platform's postgres_changes channel played for the old client:
// subscribers get a change notification and refetch.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"

	"github.com/JimJos-Calderon/app-web-mylist/internal/logger"
	"github.com/JimJos-Calderon/app-web-mylist/internal/models"
)

const (
	EventInsert = "INSERT"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
)

// Event mirrors the shape the platform posted to the notify function:
// change type, table, and the affected row.
type Event struct {
	Type   string       `json:"type"`
	Table  string       `json:"table"`
	Record *models.Item `json:"record,omitempty"`
}

// Matches reports whether the event falls inside a subscriber's
// tipo/list filter; empty filter fields match everything.
func (e Event) Matches(tipo, listID string) bool {
	if e.Record == nil {
		return false
	}
	if tipo != "" && e.Record.Tipo != tipo {
		return false
	}
	if listID != "" && e.Record.ListID != listID {
		return false
	}
	return true
}

// Publisher is what mutation handlers need; tests substitute a recorder.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

type Bus struct {
	rdb     *redis.Client
	channel string
}

func NewClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return rdb, nil
}

func NewBus(rdb *redis.Client, channel string) *Bus {
	return &Bus{rdb: rdb, channel: channel}
}

func (b *Bus) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return b.rdb.Publish(ctx, b.channel, payload).Err()
}

// Subscribe returns a channel of decoded events. It closes when ctx is
// done; call the returned func to tear the subscription down early.
func (b *Bus) Subscribe(ctx context.Context) (<-chan Event, func()) {
	sub := b.rdb.Subscribe(ctx, b.channel)
	out := make(chan Event)
	go func() {
		defer close(out)
		for msg := range sub.Channel() {
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				logger.Get().WithError(err).Warn("realtime: dropping undecodable event")
				continue
			}
			select {
			case out <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, func() { _ = sub.Close() }
}
