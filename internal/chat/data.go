package chat

import (
	"context"

	"github.com/moviechat/server/internal/movies"
)

// DataAccess opens scoped units of work against the movie database. Each
// handler invocation gets its own Unit and must not share it or let it
// outlive the invocation.
type DataAccess interface {
	Open(ctx context.Context) (Unit, error)
}

// Unit is one unit of work: reads are immediate, mutations are buffered
// until Commit. Closing without Commit discards the buffered writes.
type Unit interface {
	FindMoviesByTitle(ctx context.Context, title string) ([]movies.Movie, error)
	LoadUser(ctx context.Context, id string) (*movies.User, error)
	StoreRating(r movies.Rating)
	SetUserWatched(userID string, watched []string)
	SetMovieTags(movieID string, tags []string)
	SetUserName(userID, name string)
	Commit(ctx context.Context) error
	Close()
}

type storeAccess struct {
	store *movies.Store
}

// NewStoreAccess adapts the mongo-backed store to the DataAccess contract.
func NewStoreAccess(store *movies.Store) DataAccess {
	return &storeAccess{store: store}
}

func (a *storeAccess) Open(ctx context.Context) (Unit, error) {
	unit, err := a.store.OpenSession(ctx)
	if err != nil {
		return nil, err
	}
	return unit, nil
}
