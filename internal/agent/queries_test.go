package agent

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/moviechat/server/internal/movies"
)

// recordingStore records the last query call and returns canned data.
type recordingStore struct {
	lastCall string
	userID   string
	ids      []string
	genres   []string
	text     string
	inTitles bool
	inTags   bool
	byGenre  bool
	minViews int64
	rating   float64
	maxSide  bool
	order    movies.StatOrder
	page     movies.Page

	stats []movies.MovieStat
	err   error
}

func (s *recordingStore) LoadUser(ctx context.Context, id string) (*movies.User, error) {
	s.lastCall, s.userID = "LoadUser", id
	if s.err != nil {
		return nil, s.err
	}
	return &movies.User{ID: id, Name: "James Parker", WatchedMovies: []string{"Movies/1"}}, nil
}

func (s *recordingStore) UserLastRatings(ctx context.Context, userID string, movieIDs []string) ([]movies.LastRate, error) {
	s.lastCall, s.userID, s.ids = "UserLastRatings", userID, movieIDs
	return nil, s.err
}

func (s *recordingStore) UserAffinity(ctx context.Context, userID string, byGenre bool, page movies.Page) ([]movies.Affinity, error) {
	s.lastCall, s.userID, s.byGenre, s.page = "UserAffinity", userID, byGenre, page
	return nil, s.err
}

func (s *recordingStore) MovieStatsByIDs(ctx context.Context, ids []string, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error) {
	s.lastCall, s.ids, s.order, s.page = "MovieStatsByIDs", ids, order, page
	return s.stats, s.err
}

func (s *recordingStore) MovieStatsByGenres(ctx context.Context, genres []string, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error) {
	s.lastCall, s.genres, s.order, s.page = "MovieStatsByGenres", genres, order, page
	return s.stats, s.err
}

func (s *recordingStore) SearchMovieStats(ctx context.Context, text string, inTitles, inTags bool, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error) {
	s.lastCall, s.text, s.inTitles, s.inTags, s.order, s.page = "SearchMovieStats", text, inTitles, inTags, order, page
	return s.stats, s.err
}

func (s *recordingStore) MovieStatsByThresholds(ctx context.Context, minViews int64, rating float64, maxRating bool, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error) {
	s.lastCall, s.minViews, s.rating, s.maxSide, s.order, s.page = "MovieStatsByThresholds", minViews, rating, maxRating, order, page
	return s.stats, s.err
}

func TestCatalogHas(t *testing.T) {
	catalog := NewCatalog(&recordingStore{})

	// The full read-only tool menu, both sort directions included.
	expected := []string{
		"GetUserProfile",
		"GetUserLastRatings",
		"GetUserLastRatingsByMovieIds",
		"GetUserAffinitiesByTags",
		"GetUserAffinitiesByGenres",
		"GetMovieStatsByAverageRatingDesc",
		"GetMovieStatsByAverageRatingAsc",
		"GetMovieStatsByViewsDesc",
		"GetMovieStatsByViewsAsc",
		"GetMovieStatsByGenreOrderByAverageRatingDesc",
		"GetMovieStatsByGenreOrderByAverageRatingAsc",
		"GetMovieStatsByGenreOrderByViewsDesc",
		"GetMovieStatsByGenreOrderByViewsAsc",
		"GetByGenresInListOrderByAverageRatingDesc",
		"GetByGenresInListOrderByAverageRatingAsc",
		"SearchMovieStatsByTitleOrderByAverageRatingDesc",
		"SearchMovieStatsByTitleOrderByAverageRatingAsc",
		"SearchMovieStatsByTitleOrderByViewsDesc",
		"SearchMovieStatsByTitleOrderByViewsAsc",
		"SearchMovieStatsByTagsOrderByAverageRatingDesc",
		"SearchMovieStatsByTagsOrderByAverageRatingAsc",
		"SearchMovieStatsByTagsOrderByViewsDesc",
		"SearchMovieStatsByTagsOrderByViewsAsc",
		"SearchMovieStatsByTitleOrTagsOrderByAverageRatingDesc",
		"SearchMovieStatsByTitleOrTagsOrderByAverageRatingAsc",
		"GetTopRatedWithQualityThreshold",
		"GetTopRatedWithQualityThresholdAsc",
		"PopularButUnderrated",
	}
	for _, name := range expected {
		if !catalog.Has(name) {
			t.Fatalf("catalog missing %s", name)
		}
	}
	if got := len(catalog.ToolInfos()); got != len(expected) {
		t.Fatalf("catalog has %d tools, want %d", got, len(expected))
	}
	for _, name := range []string{"RateMovie", "AddTags", "ChangeUserName", "DropTables"} {
		if catalog.Has(name) {
			t.Fatalf("action tool %s leaked into the query catalog", name)
		}
	}
}

func TestCatalogExecuteUserProfile(t *testing.T) {
	store := &recordingStore{}
	catalog := NewCatalog(store)

	out, err := catalog.Execute(context.Background(), "GetUserProfile", "{}", "Users/7")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if store.lastCall != "LoadUser" || store.userID != "Users/7" {
		t.Fatalf("store called with %s/%s, want LoadUser for Users/7", store.lastCall, store.userID)
	}

	var user movies.User
	if err := json.Unmarshal([]byte(out), &user); err != nil {
		t.Fatalf("result is not JSON: %v", err)
	}
	if user.Name != "James Parker" {
		t.Fatalf("user name = %q", user.Name)
	}
}

func TestCatalogExecuteRouting(t *testing.T) {
	tests := []struct {
		tool      string
		arguments string
		wantCall  string
		check     func(t *testing.T, s *recordingStore)
	}{
		{
			tool:      "GetMovieStatsByViewsDesc",
			arguments: `{"movieIds":["Movies/1","Movies/2"]}`,
			wantCall:  "MovieStatsByIDs",
			check: func(t *testing.T, s *recordingStore) {
				if !reflect.DeepEqual(s.ids, []string{"Movies/1", "Movies/2"}) {
					t.Fatalf("ids = %v", s.ids)
				}
				if !s.order.ByViews || s.order.Asc {
					t.Fatalf("order = %+v, want views descending", s.order)
				}
			},
		},
		{
			tool:      "GetMovieStatsByAverageRatingAsc",
			arguments: `{"movieIds":["Movies/1"]}`,
			wantCall:  "MovieStatsByIDs",
			check: func(t *testing.T, s *recordingStore) {
				if s.order.ByViews || !s.order.Asc {
					t.Fatalf("order = %+v, want rating ascending", s.order)
				}
			},
		},
		{
			tool:      "GetMovieStatsByGenreOrderByAverageRatingDesc",
			arguments: `{"genre":"Horror"}`,
			wantCall:  "MovieStatsByGenres",
			check: func(t *testing.T, s *recordingStore) {
				if !reflect.DeepEqual(s.genres, []string{"Horror"}) {
					t.Fatalf("genres = %v", s.genres)
				}
			},
		},
		{
			tool:      "GetByGenresInListOrderByAverageRatingDesc",
			arguments: `{"genres":["Action","Sci-Fi"]}`,
			wantCall:  "MovieStatsByGenres",
			check: func(t *testing.T, s *recordingStore) {
				if !reflect.DeepEqual(s.genres, []string{"Action", "Sci-Fi"}) {
					t.Fatalf("genres = %v", s.genres)
				}
			},
		},
		{
			tool:      "SearchMovieStatsByTagsOrderByAverageRatingDesc",
			arguments: `{"text":"space"}`,
			wantCall:  "SearchMovieStats",
			check: func(t *testing.T, s *recordingStore) {
				if s.text != "space" || s.inTitles || !s.inTags {
					t.Fatalf("search = %q titles=%v tags=%v", s.text, s.inTitles, s.inTags)
				}
			},
		},
		{
			tool:      "SearchMovieStatsByTitleOrTagsOrderByAverageRatingDesc",
			arguments: `{"text":"alien"}`,
			wantCall:  "SearchMovieStats",
			check: func(t *testing.T, s *recordingStore) {
				if !s.inTitles || !s.inTags {
					t.Fatalf("search should cover titles and tags, got titles=%v tags=%v", s.inTitles, s.inTags)
				}
			},
		},
		{
			tool:      "GetTopRatedWithQualityThreshold",
			arguments: `{"minViews":100,"minRating":3.8}`,
			wantCall:  "MovieStatsByThresholds",
			check: func(t *testing.T, s *recordingStore) {
				if s.minViews != 100 || s.rating != 3.8 || s.maxSide {
					t.Fatalf("thresholds = views>=%d rating=%v max=%v", s.minViews, s.rating, s.maxSide)
				}
			},
		},
		{
			tool:      "PopularButUnderrated",
			arguments: `{"minViews":500,"maxRating":3.9}`,
			wantCall:  "MovieStatsByThresholds",
			check: func(t *testing.T, s *recordingStore) {
				if s.minViews != 500 || s.rating != 3.9 || !s.maxSide {
					t.Fatalf("thresholds = views>=%d rating=%v max=%v", s.minViews, s.rating, s.maxSide)
				}
				if !s.order.ByViews || s.order.Asc {
					t.Fatalf("order = %+v, want views descending", s.order)
				}
			},
		},
		{
			tool:      "GetUserAffinitiesByGenres",
			arguments: `{}`,
			wantCall:  "UserAffinity",
			check: func(t *testing.T, s *recordingStore) {
				if !s.byGenre {
					t.Fatal("affinity should group by genre")
				}
			},
		},
		{
			tool:      "GetUserLastRatingsByMovieIds",
			arguments: `{"movieIds":["Movies/1","Movies/2"]}`,
			wantCall:  "UserLastRatings",
			check: func(t *testing.T, s *recordingStore) {
				if s.userID != "Users/1" {
					t.Fatalf("userID = %q", s.userID)
				}
				if !reflect.DeepEqual(s.ids, []string{"Movies/1", "Movies/2"}) {
					t.Fatalf("ids = %v", s.ids)
				}
			},
		},
		{
			tool:      "GetUserLastRatings",
			arguments: `{}`,
			wantCall:  "UserLastRatings",
			check: func(t *testing.T, s *recordingStore) {
				if len(s.ids) != 0 {
					t.Fatalf("unfiltered last ratings passed ids %v", s.ids)
				}
			},
		},
		{
			tool:      "GetMovieStatsByGenreOrderByViewsAsc",
			arguments: `{"genre":"Drama"}`,
			wantCall:  "MovieStatsByGenres",
			check: func(t *testing.T, s *recordingStore) {
				if !s.order.ByViews || !s.order.Asc {
					t.Fatalf("order = %+v, want views ascending", s.order)
				}
			},
		},
		{
			tool:      "GetByGenresInListOrderByAverageRatingAsc",
			arguments: `{"genres":["War","Western"]}`,
			wantCall:  "MovieStatsByGenres",
			check: func(t *testing.T, s *recordingStore) {
				if s.order.ByViews || !s.order.Asc {
					t.Fatalf("order = %+v, want rating ascending", s.order)
				}
			},
		},
		{
			tool:      "SearchMovieStatsByTagsOrderByViewsDesc",
			arguments: `{"text":"noir"}`,
			wantCall:  "SearchMovieStats",
			check: func(t *testing.T, s *recordingStore) {
				if s.inTitles || !s.inTags {
					t.Fatalf("search titles=%v tags=%v", s.inTitles, s.inTags)
				}
				if !s.order.ByViews || s.order.Asc {
					t.Fatalf("order = %+v, want views descending", s.order)
				}
			},
		},
		{
			tool:      "SearchMovieStatsByTitleOrTagsOrderByAverageRatingAsc",
			arguments: `{"text":"heist"}`,
			wantCall:  "SearchMovieStats",
			check: func(t *testing.T, s *recordingStore) {
				if !s.inTitles || !s.inTags {
					t.Fatalf("search titles=%v tags=%v", s.inTitles, s.inTags)
				}
				if s.order.ByViews || !s.order.Asc {
					t.Fatalf("order = %+v, want rating ascending", s.order)
				}
			},
		},
		{
			tool:      "GetTopRatedWithQualityThresholdAsc",
			arguments: `{"minViews":100,"minRating":3.8}`,
			wantCall:  "MovieStatsByThresholds",
			check: func(t *testing.T, s *recordingStore) {
				if s.minViews != 100 || s.rating != 3.8 || s.maxSide {
					t.Fatalf("thresholds = views>=%d rating=%v max=%v", s.minViews, s.rating, s.maxSide)
				}
				if s.order.ByViews || !s.order.Asc {
					t.Fatalf("order = %+v, want rating ascending", s.order)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			store := &recordingStore{}
			catalog := NewCatalog(store)

			if _, err := catalog.Execute(context.Background(), tt.tool, tt.arguments, "Users/1"); err != nil {
				t.Fatalf("execute: %v", err)
			}
			if store.lastCall != tt.wantCall {
				t.Fatalf("called %s, want %s", store.lastCall, tt.wantCall)
			}
			tt.check(t, store)
		})
	}
}

func TestCatalogExecutePagingClamped(t *testing.T) {
	store := &recordingStore{}
	catalog := NewCatalog(store)

	if _, err := catalog.Execute(context.Background(), "GetMovieStatsByViewsDesc",
		`{"movieIds":["Movies/1"],"skip":-5,"pageSize":9999}`, "Users/1"); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if store.page.Skip != 0 {
		t.Fatalf("negative skip not clamped: %d", store.page.Skip)
	}
	if store.page.PageSize != 50 {
		t.Fatalf("oversized page not clamped: %d", store.page.PageSize)
	}
}

func TestCatalogExecuteErrors(t *testing.T) {
	store := &recordingStore{err: errors.New("cursor timeout")}
	catalog := NewCatalog(store)

	if _, err := catalog.Execute(context.Background(), "GetUserProfile", "{}", "Users/1"); err == nil {
		t.Fatal("store error swallowed")
	}
	if _, err := catalog.Execute(context.Background(), "NotATool", "{}", "Users/1"); err == nil {
		t.Fatal("unknown tool accepted")
	}
	if _, err := catalog.Execute(context.Background(), "GetUserProfile", `{"skip":`, "Users/1"); err == nil {
		t.Fatal("malformed arguments accepted")
	}
}
