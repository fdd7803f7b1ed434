package movies

import (
	"strings"
	"time"
)

// ValidGenres is the closed genre vocabulary of the dataset. The agent's
// system prompt names it so the model never invents genres.
var ValidGenres = []string{
	"Action", "Adventure", "Animation", "Children's", "Comedy", "Crime",
	"Documentary", "Drama", "Fantasy", "Film-Noir", "Horror", "Musical",
	"Mystery", "Romance", "Sci-Fi", "Thriller", "War", "Western",
}

type Movie struct {
	ID         string   `bson:"_id" json:"id"`
	Title      string   `bson:"title" json:"title"`
	TitleLower string   `bson:"title_lc" json:"-"`
	Year       int      `bson:"year" json:"year"`
	Genres     []string `bson:"genres" json:"genres"`
	Tags       []string `bson:"tags" json:"tags"`
}

type User struct {
	ID            string   `bson:"_id" json:"id"`
	Name          string   `bson:"name" json:"name"`
	WatchedMovies []string `bson:"watched_movies" json:"watched_movies"`
}

type Rating struct {
	ID        string    `bson:"_id" json:"id"`
	UserID    string    `bson:"user_id" json:"user_id"`
	MovieID   string    `bson:"movie_id" json:"movie_id"`
	Value     float64   `bson:"value" json:"value"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// MovieStat is the aggregated view of one movie's ratings.
type MovieStat struct {
	MovieID       string   `bson:"_id" json:"movie_id"`
	Title         string   `bson:"title" json:"title"`
	Views         int64    `bson:"views" json:"views"`
	RatingsSum    float64  `bson:"ratings_sum" json:"ratings_sum"`
	AverageRating float64  `bson:"average_rating" json:"average_rating"`
	Genres        []string `bson:"genres" json:"genres"`
	Tags          []string `bson:"tags" json:"tags"`
}

// LastRate is a user's most recent rating of one movie.
type LastRate struct {
	MovieID   string    `bson:"_id" json:"movie_id"`
	Title     string    `bson:"title" json:"title"`
	Value     float64   `bson:"value" json:"value"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Affinity scores one tag or genre for one user: Score is the user's
// average rating across watched movies carrying it.
type Affinity struct {
	Key   string  `bson:"_id" json:"key"`
	Count int64   `bson:"count" json:"count"`
	Sum   float64 `bson:"sum" json:"sum"`
	Score float64 `bson:"score" json:"score"`
}

// MergeTags unions added into existing with case-insensitive dedup,
// preserving the casing of whichever spelling was seen first. Re-adding an
// existing tag is a no-op.
func MergeTags(existing, added []string) []string {
	merged := make([]string, 0, len(existing)+len(added))
	seen := make(map[string]struct{}, len(existing)+len(added))
	for _, lists := range [2][]string{existing, added} {
		for _, tag := range lists {
			key := strings.ToLower(strings.TrimSpace(tag))
			if key == "" {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			merged = append(merged, strings.TrimSpace(tag))
		}
	}
	return merged
}

// EqualFoldNames reports whether two display names match ignoring case and
// surrounding whitespace.
func EqualFoldNames(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}
