package movies

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	errx "github.com/moviechat/server/internal/core/error"
)

const (
	moviesCollection  = "movies"
	usersCollection   = "users"
	ratingsCollection = "ratings"
)

// Store is the MongoDB-backed movie database. Reads go straight to the
// collections; mutations go through a scoped Session (see session.go).
type Store struct {
	client  *mongo.Client
	movies  *mongo.Collection
	users   *mongo.Collection
	ratings *mongo.Collection
}

func NewStore(client *mongo.Client, database string) (*Store, error) {
	if client == nil {
		return nil, errors.New("mongo client is required")
	}
	if database == "" {
		return nil, errors.New("database name is required")
	}
	db := client.Database(database)
	return &Store{
		client:  client,
		movies:  db.Collection(moviesCollection),
		users:   db.Collection(usersCollection),
		ratings: db.Collection(ratingsCollection),
	}, nil
}

// EnsureIndexes creates the indexes the query tools and the title lookup rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.movies.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "title_lc", Value: 1}},
			Options: options.Index().SetName("title_lc"),
		},
		{
			Keys:    bson.D{{Key: "genres", Value: 1}},
			Options: options.Index().SetName("genres"),
		},
	})
	if err != nil {
		return errx.WrapMongo(err)
	}
	_, err = s.ratings.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "timestamp", Value: -1}},
			Options: options.Index().SetName("user_timestamp"),
		},
		{
			Keys:    bson.D{{Key: "movie_id", Value: 1}},
			Options: options.Index().SetName("movie"),
		},
	})
	if err != nil {
		return errx.WrapMongo(err)
	}
	return nil
}

// MovieCount reports how many movies are stored. Zero means the database
// still needs seeding.
func (s *Store) MovieCount(ctx context.Context) (int64, error) {
	n, err := s.movies.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, errx.WrapMongo(err)
	}
	return n, nil
}

// FindMoviesByTitle returns every movie whose title equals the given one,
// compared case-insensitively. Duplicate titles are possible and all
// duplicates are returned.
func (s *Store) FindMoviesByTitle(ctx context.Context, title string) ([]Movie, error) {
	cursor, err := s.movies.Find(ctx, bson.M{"title_lc": strings.ToLower(strings.TrimSpace(title))})
	if err != nil {
		return nil, errx.WrapMongo(err)
	}
	defer cursor.Close(ctx)

	var found []Movie
	if err := cursor.All(ctx, &found); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return found, nil
}

// LoadMovie fetches one movie by id. A missing movie surfaces as a not-found Error.
func (s *Store) LoadMovie(ctx context.Context, id string) (*Movie, error) {
	var movie Movie
	if err := s.movies.FindOne(ctx, bson.M{"_id": id}).Decode(&movie); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return &movie, nil
}

func (s *Store) setMovieTags(ctx context.Context, id string, tags []string) error {
	_, err := s.movies.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"tags": tags}})
	if err != nil {
		return errx.WrapMongo(err)
	}
	return nil
}

// LoadUser fetches one user by id. A missing user surfaces as a not-found Error.
func (s *Store) LoadUser(ctx context.Context, id string) (*User, error) {
	var user User
	if err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return &user, nil
}

const closeTimeout = 5 * time.Second

// Close releases the underlying MongoDB client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}
