package movies

import (
	"context"
	"net/http"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	errx "github.com/moviechat/server/internal/core/error"
)

// Page bounds a query tool's result window.
type Page struct {
	Skip     int64
	PageSize int64
}

const (
	defaultPageSize = 10
	maxPageSize     = 50
)

// Clamped normalises a page requested by the agent into safe bounds.
func (p Page) Clamped() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// StatOrder picks the sort key for movie-stat queries.
type StatOrder struct {
	ByViews bool // false sorts by average rating
	Asc     bool
}

func (o StatOrder) sort() bson.D {
	field := "average_rating"
	if o.ByViews {
		field = "views"
	}
	dir := -1
	if o.Asc {
		dir = 1
	}
	// Views as tiebreaker keeps paging stable across equal ratings.
	if field == "average_rating" {
		return bson.D{{Key: field, Value: dir}, {Key: "views", Value: -1}}
	}
	return bson.D{{Key: field, Value: dir}}
}

// statsPipeline aggregates ratings per movie. movieFilter narrows the movie
// documents before the join, statFilter narrows the aggregated rows after it.
func statsPipeline(movieFilter, statFilter bson.M, order StatOrder, page Page) mongo.Pipeline {
	page = page.Clamped()
	pipeline := mongo.Pipeline{}
	if len(movieFilter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: movieFilter}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         ratingsCollection,
			"localField":   "_id",
			"foreignField": "movie_id",
			"as":           "movie_ratings",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"views":       bson.M{"$size": "$movie_ratings"},
			"ratings_sum": bson.M{"$sum": "$movie_ratings.value"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"average_rating": bson.M{"$cond": bson.A{
				bson.M{"$gt": bson.A{"$views", 0}},
				bson.M{"$divide": bson.A{"$ratings_sum", "$views"}},
				0,
			}},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"movie_ratings": 0, "title_lc": 0}}},
	)
	if len(statFilter) > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: statFilter}})
	}
	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: order.sort()}},
		bson.D{{Key: "$skip", Value: page.Skip}},
		bson.D{{Key: "$limit", Value: page.PageSize}},
	)
	return pipeline
}

func (s *Store) movieStats(ctx context.Context, pipeline mongo.Pipeline) ([]MovieStat, error) {
	cursor, err := s.movies.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errx.WrapMongo(err)
	}
	defer cursor.Close(ctx)

	var stats []MovieStat
	if err := cursor.All(ctx, &stats); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return stats, nil
}

// MovieStatsByIDs aggregates stats for the given movie ids.
func (s *Store) MovieStatsByIDs(ctx context.Context, ids []string, order StatOrder, page Page) ([]MovieStat, error) {
	return s.movieStats(ctx, statsPipeline(
		bson.M{"_id": bson.M{"$in": ids}}, nil, order, page))
}

// MovieStatsByGenres aggregates stats for movies in any of the given genres.
func (s *Store) MovieStatsByGenres(ctx context.Context, genres []string, order StatOrder, page Page) ([]MovieStat, error) {
	return s.movieStats(ctx, statsPipeline(
		bson.M{"genres": bson.M{"$in": genres}}, nil, order, page))
}

// SearchMovieStats matches the text as a case-insensitive substring against
// titles, tags, or both.
func (s *Store) SearchMovieStats(ctx context.Context, text string, inTitles, inTags bool, order StatOrder, page Page) ([]MovieStat, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(text), "$options": "i"}
	var clauses []bson.M
	if inTitles {
		clauses = append(clauses, bson.M{"title": pattern})
	}
	if inTags {
		clauses = append(clauses, bson.M{"tags": pattern})
	}
	if len(clauses) == 0 {
		return nil, errx.New(nil, http.StatusBadRequest, "text search needs at least one of titles or tags")
	}
	return s.movieStats(ctx, statsPipeline(bson.M{"$or": clauses}, nil, order, page))
}

// MovieStatsByThresholds returns movies meeting a minimum view count and a
// rating bound. With maxRating false the bound is a floor (top-rated style),
// with maxRating true it is a ceiling (popular-but-underrated style).
func (s *Store) MovieStatsByThresholds(ctx context.Context, minViews int64, rating float64, maxRating bool, order StatOrder, page Page) ([]MovieStat, error) {
	op := "$gte"
	if maxRating {
		op = "$lte"
	}
	statFilter := bson.M{
		"views":          bson.M{"$gte": minViews},
		"average_rating": bson.M{op: rating},
	}
	return s.movieStats(ctx, statsPipeline(nil, statFilter, order, page))
}

// UserLastRatings returns the user's most recent rating per watched movie,
// newest first. A non-empty movieIDs narrows the result to those movies.
func (s *Store) UserLastRatings(ctx context.Context, userID string, movieIDs []string) ([]LastRate, error) {
	match := bson.M{"user_id": userID}
	if len(movieIDs) > 0 {
		match["movie_id"] = bson.M{"$in": movieIDs}
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":       "$movie_id",
			"value":     bson.M{"$first": "$value"},
			"timestamp": bson.M{"$first": "$timestamp"},
		}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         moviesCollection,
			"localField":   "_id",
			"foreignField": "_id",
			"as":           "movie",
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"title": bson.M{"$first": "$movie.title"},
		}}},
		bson.D{{Key: "$project", Value: bson.M{"movie": 0}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "timestamp", Value: -1}}}},
	}

	cursor, err := s.ratings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errx.WrapMongo(err)
	}
	defer cursor.Close(ctx)

	var rates []LastRate
	if err := cursor.All(ctx, &rates); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return rates, nil
}

// UserAffinity scores the user's taste per tag or per genre: for every
// rating, each tag (or genre) of the rated movie contributes the rating
// value; Score is the average, best first.
func (s *Store) UserAffinity(ctx context.Context, userID string, byGenre bool, page Page) ([]Affinity, error) {
	page = page.Clamped()
	field := "$movie.tags"
	if byGenre {
		field = "$movie.genres"
	}
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"user_id": userID}}},
		bson.D{{Key: "$lookup", Value: bson.M{
			"from":         moviesCollection,
			"localField":   "movie_id",
			"foreignField": "_id",
			"as":           "movie",
		}}},
		bson.D{{Key: "$unwind", Value: "$movie"}},
		bson.D{{Key: "$unwind", Value: field}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":   field,
			"count": bson.M{"$sum": 1},
			"sum":   bson.M{"$sum": "$value"},
		}}},
		bson.D{{Key: "$addFields", Value: bson.M{
			"score": bson.M{"$divide": bson.A{"$sum", "$count"}},
		}}},
		bson.D{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "count", Value: -1}}}},
		bson.D{{Key: "$skip", Value: page.Skip}},
		bson.D{{Key: "$limit", Value: page.PageSize}},
	}

	cursor, err := s.ratings.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, errx.WrapMongo(err)
	}
	defer cursor.Close(ctx)

	var affinities []Affinity
	if err := cursor.All(ctx, &affinities); err != nil {
		return nil, errx.WrapMongo(err)
	}
	return affinities, nil
}
