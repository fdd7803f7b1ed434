package movies

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	errx "github.com/moviechat/server/internal/core/error"
	logx "github.com/moviechat/server/pkg/logger"
)

// Seeder loads a MovieLens-style CSV dataset (movies.csv, ratings*.csv,
// tags.csv) into the store and synthesizes a user document per rating
// author.
type Seeder struct {
	store     *Store
	names     NameGenerator
	batchSize int
	buffers   map[string]*seedBuffer
}

const seedBatchSize = 1000

func NewSeeder(store *Store, names NameGenerator) *Seeder {
	if names == nil {
		names = NewPoolNameGenerator(nil, time.Now().UnixNano())
	}
	return &Seeder{store: store, names: names, batchSize: seedBatchSize}
}

// Run ingests the dataset from dir. Order matters: movies first, then
// ratings (which also collect the users), then tags onto existing movies.
func (sd *Seeder) Run(ctx context.Context, dir string) error {
	logx.Info().Str("dir", dir).Msg("seeding movie database")

	if err := sd.seedMovies(ctx, filepath.Join(dir, "movies.csv")); err != nil {
		return err
	}
	watchedByUser, err := sd.seedRatings(ctx, dir)
	if err != nil {
		return err
	}
	if err := sd.seedUsers(ctx, watchedByUser); err != nil {
		return err
	}
	if err := sd.seedTags(ctx, filepath.Join(dir, "tags.csv")); err != nil {
		return err
	}
	if err := sd.store.EnsureIndexes(ctx); err != nil {
		return err
	}

	logx.Info().Msg("finished seeding movie database")
	return nil
}

var yearSuffix = regexp.MustCompile(`\s*\((\d{4})\)\s*$`)

// parseMovieRow converts one movies.csv record (movieId,title,genres) into a
// Movie. The release year is split off the title's trailing "(YYYY)".
func parseMovieRow(record []string) (*Movie, error) {
	if len(record) < 3 {
		return nil, fmt.Errorf("movie row has %d fields, want 3", len(record))
	}
	title := strings.TrimSpace(record[1])
	if title == "" {
		return nil, fmt.Errorf("movie %q has an empty title", record[0])
	}

	year := 0
	if m := yearSuffix.FindStringSubmatch(title); m != nil {
		year, _ = strconv.Atoi(m[1])
		title = strings.TrimSpace(yearSuffix.ReplaceAllString(title, ""))
	}

	var genres []string
	if g := strings.TrimSpace(record[2]); g != "" && g != "(no genres listed)" {
		genres = strings.Split(g, "|")
	}

	return &Movie{
		ID:         "Movies/" + strings.TrimSpace(record[0]),
		Title:      title,
		TitleLower: strings.ToLower(title),
		Year:       year,
		Genres:     genres,
		Tags:       []string{},
	}, nil
}

// parseRatingRow converts one ratings.csv record (userId,movieId,rating,timestamp).
func parseRatingRow(record []string) (*Rating, error) {
	if len(record) < 4 {
		return nil, fmt.Errorf("rating row has %d fields, want 4", len(record))
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
	if err != nil {
		return nil, fmt.Errorf("rating value %q: %w", record[2], err)
	}
	unix, err := strconv.ParseInt(strings.TrimSpace(record[3]), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("rating timestamp %q: %w", record[3], err)
	}
	return &Rating{
		ID:        primitive.NewObjectID().Hex(),
		UserID:    "Users/" + strings.TrimSpace(record[0]),
		MovieID:   "Movies/" + strings.TrimSpace(record[1]),
		Value:     value,
		Timestamp: time.Unix(unix, 0).UTC(),
	}, nil
}

func (sd *Seeder) seedMovies(ctx context.Context, path string) error {
	logx.Info().Msg("movies")
	count := 0
	err := forEachCSVRow(path, func(record []string) error {
		movie, err := parseMovieRow(record)
		if err != nil {
			logx.Warn().Err(err).Msg("skipping malformed movie row")
			return nil
		}
		count++
		return sd.insertBatched(ctx, moviesCollection, *movie, count)
	})
	if err != nil {
		return err
	}
	if err := sd.flush(ctx, moviesCollection); err != nil {
		return err
	}
	logx.Info().Int("count", count).Msg("movies saved")
	return nil
}

func (sd *Seeder) seedRatings(ctx context.Context, dir string) (map[string]map[string]struct{}, error) {
	logx.Info().Msg("ratings")
	files, err := filepath.Glob(filepath.Join(dir, "ratings*.csv"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)

	watchedByUser := make(map[string]map[string]struct{})
	count := 0
	for _, path := range files {
		err := forEachCSVRow(path, func(record []string) error {
			rating, err := parseRatingRow(record)
			if err != nil {
				logx.Warn().Err(err).Msg("skipping malformed rating row")
				return nil
			}
			if watchedByUser[rating.UserID] == nil {
				watchedByUser[rating.UserID] = make(map[string]struct{})
			}
			watchedByUser[rating.UserID][rating.MovieID] = struct{}{}

			count++
			if count%500000 == 0 {
				logx.Info().Int("count", count).Msg("ratings progress")
			}
			return sd.insertBatched(ctx, ratingsCollection, *rating, count)
		})
		if err != nil {
			return nil, err
		}
	}
	if err := sd.flush(ctx, ratingsCollection); err != nil {
		return nil, err
	}
	logx.Info().Int("count", count).Msg("ratings saved")
	return watchedByUser, nil
}

func (sd *Seeder) seedUsers(ctx context.Context, watchedByUser map[string]map[string]struct{}) error {
	logx.Info().Msg("users")
	count := 0
	for userID, watchedSet := range watchedByUser {
		watched := make([]string, 0, len(watchedSet))
		for movieID := range watchedSet {
			watched = append(watched, movieID)
		}
		sort.Strings(watched)

		count++
		err := sd.insertBatched(ctx, usersCollection, User{
			ID:            userID,
			Name:          sd.names(),
			WatchedMovies: watched,
		}, count)
		if err != nil {
			return err
		}
	}
	if err := sd.flush(ctx, usersCollection); err != nil {
		return err
	}
	logx.Info().Int("count", count).Msg("users saved")
	return nil
}

func (sd *Seeder) seedTags(ctx context.Context, path string) error {
	logx.Info().Msg("tags")

	// Collect per movie so each movie gets a single deduplicated update.
	tagsByMovie := make(map[string][]string)
	count := 0
	err := forEachCSVRow(path, func(record []string) error {
		if len(record) < 3 {
			return nil
		}
		movieID := "Movies/" + strings.TrimSpace(record[1])
		tag := strings.TrimSpace(record[2])
		if tag == "" {
			return nil
		}
		tagsByMovie[movieID] = MergeTags(tagsByMovie[movieID], []string{tag})
		count++
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			logx.Warn().Str("path", path).Msg("tags file missing, skipping")
			return nil
		}
		return err
	}

	applied := 0
	for movieID, tags := range tagsByMovie {
		movie, err := sd.store.LoadMovie(ctx, movieID)
		if err != nil {
			if errx.IsNotFound(err) {
				continue
			}
			return err
		}
		if err := sd.store.setMovieTags(ctx, movieID, MergeTags(movie.Tags, tags)); err != nil {
			return err
		}
		applied++
		if applied%100000 == 0 {
			logx.Info().Int("count", applied).Msg("tags progress")
		}
	}
	logx.Info().Int("rows", count).Int("movies", applied).Msg("tags saved")
	return nil
}

// insertBatched buffers docs per collection and flushes a full batch.
type seedBuffer struct {
	docs []interface{}
}

func (sd *Seeder) insertBatched(ctx context.Context, collection string, doc interface{}, count int) error {
	if sd.buffers == nil {
		sd.buffers = make(map[string]*seedBuffer)
	}
	buf := sd.buffers[collection]
	if buf == nil {
		buf = &seedBuffer{}
		sd.buffers[collection] = buf
	}
	buf.docs = append(buf.docs, doc)
	if len(buf.docs) >= sd.batchSize {
		return sd.flush(ctx, collection)
	}
	return nil
}

func (sd *Seeder) flush(ctx context.Context, collection string) error {
	if sd.buffers == nil {
		return nil
	}
	buf := sd.buffers[collection]
	if buf == nil || len(buf.docs) == 0 {
		return nil
	}
	_, err := sd.store.movies.Database().Collection(collection).InsertMany(ctx, buf.docs)
	buf.docs = buf.docs[:0]
	if err != nil {
		return errx.WrapMongo(err)
	}
	return nil
}

// forEachCSVRow streams path's records (skipping the header) into fn.
func forEachCSVRow(path string, fn func(record []string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	if _, err := reader.Read(); err != nil { // header
		if err == io.EOF {
			return nil
		}
		return err
	}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(record); err != nil {
			return err
		}
	}
}
