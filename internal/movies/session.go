package movies

import (
	"context"
	"net/http"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	errx "github.com/moviechat/server/internal/core/error"
)

// Session is one scoped unit of work: reads pass through to the store,
// mutations are buffered and applied together by Commit. A session that is
// closed without Commit discards its pending writes. Sessions are not safe
// for concurrent use and must not outlive the handler invocation that
// opened them.
type Session struct {
	store   *Store
	pending []writeOp
	closed  bool
}

type writeOp struct {
	collection string
	model      mongo.WriteModel
}

// OpenSession starts a unit of work against the store.
func (s *Store) OpenSession(ctx context.Context) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &Session{store: s}, nil
}

func (u *Session) FindMoviesByTitle(ctx context.Context, title string) ([]Movie, error) {
	return u.store.FindMoviesByTitle(ctx, title)
}

func (u *Session) LoadUser(ctx context.Context, id string) (*User, error) {
	return u.store.LoadUser(ctx, id)
}

// StoreRating queues a new rating event.
func (u *Session) StoreRating(r Rating) {
	u.pending = append(u.pending, writeOp{
		collection: ratingsCollection,
		model:      mongo.NewInsertOneModel().SetDocument(r),
	})
}

// SetUserWatched queues a replacement of the user's watched-movies list.
func (u *Session) SetUserWatched(userID string, watched []string) {
	u.pending = append(u.pending, writeOp{
		collection: usersCollection,
		model: mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": userID}).
			SetUpdate(bson.M{"$set": bson.M{"watched_movies": watched}}),
	})
}

// SetMovieTags queues a replacement of the movie's tag set.
func (u *Session) SetMovieTags(movieID string, tags []string) {
	u.pending = append(u.pending, writeOp{
		collection: moviesCollection,
		model: mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": movieID}).
			SetUpdate(bson.M{"$set": bson.M{"tags": tags}}),
	})
}

// SetUserName queues a rename of the user.
func (u *Session) SetUserName(userID, name string) {
	u.pending = append(u.pending, writeOp{
		collection: usersCollection,
		model: mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": userID}).
			SetUpdate(bson.M{"$set": bson.M{"name": name}}),
	})
}

// Commit applies all buffered writes inside one MongoDB transaction, so a
// handler invocation lands atomically or not at all.
func (u *Session) Commit(ctx context.Context) error {
	if u.closed {
		return errx.New(nil, http.StatusInternalServerError, "session already closed")
	}
	u.closed = true
	if len(u.pending) == 0 {
		return nil
	}

	grouped := make(map[string][]mongo.WriteModel)
	order := make([]string, 0, 3)
	for _, op := range u.pending {
		if _, ok := grouped[op.collection]; !ok {
			order = append(order, op.collection)
		}
		grouped[op.collection] = append(grouped[op.collection], op.model)
	}
	u.pending = nil

	sess, err := u.store.client.StartSession()
	if err != nil {
		return errx.WrapMongo(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		db := u.store.movies.Database()
		for _, name := range order {
			if _, err := db.Collection(name).BulkWrite(sc, grouped[name]); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	if err != nil {
		return errx.WrapMongo(err)
	}
	return nil
}

// Close discards any uncommitted writes.
func (u *Session) Close() {
	u.closed = true
	u.pending = nil
}
