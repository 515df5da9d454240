package background

import (
	"context"

	"avm_wallet/internal/model"
)

// The pipeline never reaches for process-wide stores; everything it
// consults is injected through these interfaces, so tests can run it
// against in-memory fakes.

type SessionStore interface {
	FindByHostAndNetwork(ctx context.Context, host, genesisHash string) (*model.Session, error)
	ListByHost(ctx context.Context, host string) ([]*model.Session, error)
	Upsert(ctx context.Context, session *model.Session) error
	Remove(ctx context.Context, id string) error
	RemoveByHostAndNetwork(ctx context.Context, host, genesisHash string) ([]string, error)
}

type AccountStore interface {
	GetByAddress(ctx context.Context, address string) (*model.Account, error)
	List(ctx context.Context) ([]*model.Account, error)
	Upsert(ctx context.Context, account *model.Account) error
}

type EventStore interface {
	Put(ctx context.Context, event *model.Event) error
	Get(ctx context.Context, id string) (*model.Event, error)
	List(ctx context.Context) ([]*model.Event, error)
	Remove(ctx context.Context, id string) error
	RemoveByTab(ctx context.Context, tabID string) ([]string, error)
}
