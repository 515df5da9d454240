// Package events persists pending client requests while they wait for a
// human decision. Events live in a redis hash keyed by event id, so the
// approval process can list and resume them without sharing memory with
// the relay.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"avm_wallet/internal/model"
	"avm_wallet/internal/service/redis"
)

const pendingKey = "pending_events"

type (
	EventStore struct {
		redisService *redis.RedisService
	}
)

func NewEventStore(redisSvc *redis.RedisService) *EventStore {
	return &EventStore{
		redisService: redisSvc,
	}
}

func (s *EventStore) Put(ctx context.Context, event *model.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("events: encode event: %w", err)
	}
	return s.redisService.HSet(ctx, pendingKey, event.ID, data)
}

func (s *EventStore) Get(ctx context.Context, id string) (*model.Event, error) {
	v, err := s.redisService.HGet(ctx, pendingKey, id)
	if err == goredis.Nil {
		return nil, nil
	}

	if err != nil {
		return nil, err
	}

	var event model.Event
	if err := json.Unmarshal([]byte(v), &event); err != nil {
		return nil, fmt.Errorf("events: decode event: %w", err)
	}

	return &event, nil
}

func (s *EventStore) List(ctx context.Context) ([]*model.Event, error) {
	vals, err := s.redisService.HGetAll(ctx, pendingKey)
	if err != nil {
		return nil, err
	}

	var res []*model.Event
	for _, v := range vals {
		var event model.Event
		if err := json.Unmarshal([]byte(v), &event); err != nil {
			return nil, fmt.Errorf("events: decode event: %w", err)
		}
		res = append(res, &event)
	}

	return res, nil
}

func (s *EventStore) Remove(ctx context.Context, id string) error {
	return s.redisService.HDel(ctx, pendingKey, id)
}

// RemoveByTab drops every pending event that originated from the tab.
// Used when a tab disconnects; there is no one left to answer.
func (s *EventStore) RemoveByTab(ctx context.Context, tabID string) ([]string, error) {
	events, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, event := range events {
		if event.OriginTabID != tabID {
			continue
		}
		if err := s.Remove(ctx, event.ID); err != nil {
			return removed, err
		}
		removed = append(removed, event.ID)
	}

	return removed, nil
}
