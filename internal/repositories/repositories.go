package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/sesh/internal/session"
	"github.com/desertthunder/sesh/internal/shared"
	"github.com/redis/go-redis/v9"
)

// Stores bundles the persistence behind one session.
type Stores struct {
	Expiry session.ExpiryStore
	// Events is nil with the memory driver.
	Events *EventRepository

	db    *sql.DB
	redis *redis.Client
}

// Open builds the stores named by conf.Store.Driver.
//
// The sqlite driver keeps everything in the database. The redis driver keeps expiry records in redis and the
// event log in the database. The memory driver persists nothing.
func Open(ctx context.Context, conf *shared.Config) (*Stores, error) {
	switch conf.Store.Driver {
	case shared.StoreMemory:
		return &Stores{Expiry: session.NewMemoryStore()}, nil
	case shared.StoreSQLite, "":
		db, err := shared.OpenMigrated(conf.Database)
		if err != nil {
			return nil, err
		}
		return &Stores{Expiry: NewExpiryRepository(db), Events: NewEventRepository(db), db: db}, nil
	case shared.StoreRedis:
		client, err := NewRedisClient(ctx, conf.Redis)
		if err != nil {
			return nil, err
		}
		db, err := shared.OpenMigrated(conf.Database)
		if err != nil {
			client.Close()
			return nil, err
		}
		return &Stores{
			Expiry: NewRedisExpiryStore(client, conf.Store.KeyPrefix),
			Events: NewEventRepository(db),
			db:     db,
			redis:  client,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", shared.ErrInvalidConfig, conf.Store.Driver)
	}
}

// Recorder returns the event log as a [session.EventRecorder], or nil when there is none.
func (s *Stores) Recorder() session.EventRecorder {
	if s.Events == nil {
		return nil
	}
	return s.Events
}

// Close releases the database and redis connections.
func (s *Stores) Close() error {
	var errs []error
	if s.db != nil {
		errs = append(errs, s.db.Close())
	}
	if s.redis != nil {
		errs = append(errs, s.redis.Close())
	}
	return errors.Join(errs...)
}
