package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cloudwego/eino/schema"

	"github.com/moviechat/server/internal/movies"
)

// QueryStore is the read-only slice of the movie database the query tools
// run against. Query tools never flow through the action-dispatch loop; the
// engine executes them directly.
type QueryStore interface {
	LoadUser(ctx context.Context, id string) (*movies.User, error)
	UserLastRatings(ctx context.Context, userID string, movieIDs []string) ([]movies.LastRate, error)
	UserAffinity(ctx context.Context, userID string, byGenre bool, page movies.Page) ([]movies.Affinity, error)
	MovieStatsByIDs(ctx context.Context, ids []string, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error)
	MovieStatsByGenres(ctx context.Context, genres []string, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error)
	SearchMovieStats(ctx context.Context, text string, inTitles, inTags bool, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error)
	MovieStatsByThresholds(ctx context.Context, minViews int64, rating float64, maxRating bool, order movies.StatOrder, page movies.Page) ([]movies.MovieStat, error)
}

// queryParams is the lenient argument shape shared by all query tools; each
// tool reads only the fields its parameter sample advertises.
type queryParams struct {
	MovieIDs  []string `json:"movieIds"`
	Genres    []string `json:"genres"`
	Genre     string   `json:"genre"`
	Text      string   `json:"text"`
	MinViews  int64    `json:"minViews"`
	MinRating float64  `json:"minRating"`
	MaxRating float64  `json:"maxRating"`
	Skip      int64    `json:"skip"`
	PageSize  int64    `json:"pageSize"`
}

func (p queryParams) page() movies.Page {
	return movies.Page{Skip: p.Skip, PageSize: p.PageSize}.Clamped()
}

type queryTool struct {
	info *schema.ToolInfo
	run  func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error)
}

// Catalog is the fixed menu of read-only query tools offered to the agent.
// The agent selects and parameterizes them; it never writes raw queries.
type Catalog struct {
	store QueryStore
	tools map[string]queryTool
}

func NewCatalog(store QueryStore) *Catalog {
	c := &Catalog{store: store, tools: map[string]queryTool{}}
	c.register()
	return c
}

// Has reports whether name is a query tool. Tool calls outside the catalog
// are action requests and belong to the dispatch loop.
func (c *Catalog) Has(name string) bool {
	_, ok := c.tools[name]
	return ok
}

// ToolInfos returns the schema descriptions for binding to the chat model.
func (c *Catalog) ToolInfos() []*schema.ToolInfo {
	infos := make([]*schema.ToolInfo, 0, len(c.tools))
	for _, t := range c.tools {
		infos = append(infos, t.info)
	}
	return infos
}

// Execute runs one query tool and returns its JSON-encoded result.
func (c *Catalog) Execute(ctx context.Context, name, arguments, userID string) (string, error) {
	t, ok := c.tools[name]
	if !ok {
		return "", fmt.Errorf("query tool %q is not in the catalog", name)
	}
	var p queryParams
	if arguments != "" {
		if err := json.Unmarshal([]byte(arguments), &p); err != nil {
			return "", fmt.Errorf("query tool %q arguments: %w", name, err)
		}
	}
	out, err := t.run(ctx, c.store, userID, p)
	if err != nil {
		return "", err
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("query tool %q result: %w", name, err)
	}
	return string(b), nil
}

var pagingParams = map[string]*schema.ParameterInfo{
	"skip":     {Type: "number", Desc: "Number of results to skip for pagination"},
	"pageSize": {Type: "number", Desc: "Maximum number of results to return"},
}

func withPaging(params map[string]*schema.ParameterInfo) map[string]*schema.ParameterInfo {
	merged := make(map[string]*schema.ParameterInfo, len(params)+2)
	for k, v := range params {
		merged[k] = v
	}
	for k, v := range pagingParams {
		merged[k] = v
	}
	return merged
}

var movieIDsParam = map[string]*schema.ParameterInfo{
	"movieIds": {
		Type:     "array",
		ElemInfo: &schema.ParameterInfo{Type: "string"},
		Desc:     "Movie ids to aggregate, e.g. [\"Movies/1\", \"Movies/2\"]",
		Required: true,
	},
}

var textParam = map[string]*schema.ParameterInfo{
	"text": {Type: "string", Desc: "Text to search for, e.g. \"avengers\"", Required: true},
}

func (c *Catalog) add(name, desc string, params map[string]*schema.ParameterInfo,
	run func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error)) {
	c.tools[name] = queryTool{
		info: &schema.ToolInfo{
			Name:        name,
			Desc:        desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(params),
		},
		run: run,
	}
}

// statsRun adapts a stat query taking an order into a tool runner.
func statsRun(fetch func(ctx context.Context, store QueryStore, userID string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error), order movies.StatOrder) func(context.Context, QueryStore, string, queryParams) (any, error) {
	return func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error) {
		return fetch(ctx, store, userID, p, order)
	}
}

func (c *Catalog) register() {
	byRatingDesc := movies.StatOrder{}
	byRatingAsc := movies.StatOrder{Asc: true}
	byViewsDesc := movies.StatOrder{ByViews: true}
	byViewsAsc := movies.StatOrder{ByViews: true, Asc: true}

	c.add("GetUserProfile",
		"Get the profile of the current user, including name and the watched-movies list",
		map[string]*schema.ParameterInfo{},
		func(ctx context.Context, store QueryStore, userID string, _ queryParams) (any, error) {
			return store.LoadUser(ctx, userID)
		})

	c.add("GetUserLastRatings",
		"Get the latest rating the current user gave each movie in their watched list, newest first",
		map[string]*schema.ParameterInfo{},
		func(ctx context.Context, store QueryStore, userID string, _ queryParams) (any, error) {
			return store.UserLastRatings(ctx, userID, nil)
		})

	c.add("GetUserLastRatingsByMovieIds",
		"Get the current user's latest ratings (scores) for specific movies by movieIds list",
		movieIDsParam,
		func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error) {
			return store.UserLastRatings(ctx, userID, p.MovieIDs)
		})

	c.add("GetUserAffinitiesByTags",
		"Get the current user's tag affinities, ordered by average rating (score) descending",
		withPaging(nil),
		func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error) {
			return store.UserAffinity(ctx, userID, false, p.page())
		})

	c.add("GetUserAffinitiesByGenres",
		"Get the current user's genre affinities, ordered by average rating (score) descending",
		withPaging(nil),
		func(ctx context.Context, store QueryStore, userID string, p queryParams) (any, error) {
			return store.UserAffinity(ctx, userID, true, p.page())
		})

	byIDs := func(ctx context.Context, store QueryStore, _ string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error) {
		return store.MovieStatsByIDs(ctx, p.MovieIDs, order, p.page())
	}
	c.add("GetMovieStatsByAverageRatingDesc",
		"Retrieve aggregated statistics (views, average rating, tags, genres) for the specified movies, ordered by average rating descending",
		withPaging(movieIDsParam), statsRun(byIDs, byRatingDesc))
	c.add("GetMovieStatsByAverageRatingAsc",
		"Retrieve aggregated statistics for the specified movies, ordered by average rating ascending",
		withPaging(movieIDsParam), statsRun(byIDs, byRatingAsc))
	c.add("GetMovieStatsByViewsDesc",
		"Retrieve aggregated statistics for the specified movies, ordered by number of views descending",
		withPaging(movieIDsParam), statsRun(byIDs, byViewsDesc))
	c.add("GetMovieStatsByViewsAsc",
		"Retrieve aggregated statistics for the specified movies, ordered by number of views ascending",
		withPaging(movieIDsParam), statsRun(byIDs, byViewsAsc))

	byGenre := func(ctx context.Context, store QueryStore, _ string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error) {
		genres := p.Genres
		if p.Genre != "" {
			genres = append(genres, p.Genre)
		}
		return store.MovieStatsByGenres(ctx, genres, order, p.page())
	}
	genreParam := map[string]*schema.ParameterInfo{
		"genre": {Type: "string", Desc: "A single genre, e.g. \"Action\"", Required: true},
	}
	genresParam := map[string]*schema.ParameterInfo{
		"genres": {
			Type:     "array",
			ElemInfo: &schema.ParameterInfo{Type: "string"},
			Desc:     "List of genres, e.g. [\"Action\", \"Sci-Fi\", \"Thriller\"]",
			Required: true,
		},
	}
	c.add("GetMovieStatsByGenreOrderByAverageRatingDesc",
		"Retrieve aggregated statistics for movies within a specified genre, ordered by average rating descending",
		withPaging(genreParam), statsRun(byGenre, byRatingDesc))
	c.add("GetMovieStatsByGenreOrderByAverageRatingAsc",
		"Retrieve aggregated statistics for movies within a specified genre, ordered by average rating ascending",
		withPaging(genreParam), statsRun(byGenre, byRatingAsc))
	c.add("GetMovieStatsByGenreOrderByViewsDesc",
		"Retrieve aggregated statistics for movies within a specified genre, ordered by number of views descending",
		withPaging(genreParam), statsRun(byGenre, byViewsDesc))
	c.add("GetMovieStatsByGenreOrderByViewsAsc",
		"Retrieve aggregated statistics for movies within a specified genre, ordered by number of views ascending",
		withPaging(genreParam), statsRun(byGenre, byViewsAsc))
	c.add("GetByGenresInListOrderByAverageRatingDesc",
		"Retrieve movies from a list of genres, ordered by average rating descending",
		withPaging(genresParam), statsRun(byGenre, byRatingDesc))
	c.add("GetByGenresInListOrderByAverageRatingAsc",
		"Retrieve movies from a list of genres, ordered by average rating ascending",
		withPaging(genresParam), statsRun(byGenre, byRatingAsc))

	searchTitles := func(ctx context.Context, store QueryStore, _ string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error) {
		return store.SearchMovieStats(ctx, p.Text, true, false, order, p.page())
	}
	searchTags := func(ctx context.Context, store QueryStore, _ string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error) {
		return store.SearchMovieStats(ctx, p.Text, false, true, order, p.page())
	}
	searchBoth := func(ctx context.Context, store QueryStore, _ string, p queryParams, order movies.StatOrder) ([]movies.MovieStat, error) {
		return store.SearchMovieStats(ctx, p.Text, true, true, order, p.page())
	}
	c.add("SearchMovieStatsByTitleOrderByAverageRatingDesc",
		"Search for movies whose titles contain the specified text, returning aggregated stats ordered by average rating descending",
		withPaging(textParam), statsRun(searchTitles, byRatingDesc))
	c.add("SearchMovieStatsByTitleOrderByAverageRatingAsc",
		"Search for movies whose titles contain the specified text, returning aggregated stats ordered by average rating ascending",
		withPaging(textParam), statsRun(searchTitles, byRatingAsc))
	c.add("SearchMovieStatsByTitleOrderByViewsDesc",
		"Search for movies whose titles contain the specified text, returning aggregated stats ordered by number of views descending",
		withPaging(textParam), statsRun(searchTitles, byViewsDesc))
	c.add("SearchMovieStatsByTitleOrderByViewsAsc",
		"Search for movies whose titles contain the specified text, returning aggregated stats ordered by number of views ascending",
		withPaging(textParam), statsRun(searchTitles, byViewsAsc))
	c.add("SearchMovieStatsByTagsOrderByAverageRatingDesc",
		"Search for movies whose tags contain the specified text, returning aggregated stats ordered by average rating descending",
		withPaging(textParam), statsRun(searchTags, byRatingDesc))
	c.add("SearchMovieStatsByTagsOrderByAverageRatingAsc",
		"Search for movies whose tags contain the specified text, returning aggregated stats ordered by average rating ascending",
		withPaging(textParam), statsRun(searchTags, byRatingAsc))
	c.add("SearchMovieStatsByTagsOrderByViewsDesc",
		"Search for movies whose tags contain the specified text, returning aggregated stats ordered by number of views descending",
		withPaging(textParam), statsRun(searchTags, byViewsDesc))
	c.add("SearchMovieStatsByTagsOrderByViewsAsc",
		"Search for movies whose tags contain the specified text, returning aggregated stats ordered by number of views ascending",
		withPaging(textParam), statsRun(searchTags, byViewsAsc))
	c.add("SearchMovieStatsByTitleOrTagsOrderByAverageRatingDesc",
		"Search for movies where the title OR tags contain the given text, ordered by average rating descending",
		withPaging(textParam), statsRun(searchBoth, byRatingDesc))
	c.add("SearchMovieStatsByTitleOrTagsOrderByAverageRatingAsc",
		"Search for movies where the title OR tags contain the given text, ordered by average rating ascending",
		withPaging(textParam), statsRun(searchBoth, byRatingAsc))

	thresholdParams := map[string]*schema.ParameterInfo{
		"minViews":  {Type: "number", Desc: "Minimum number of views, e.g. 100", Required: true},
		"minRating": {Type: "number", Desc: "Minimum average rating, e.g. 3.8", Required: true},
	}
	c.add("GetTopRatedWithQualityThreshold",
		"Retrieve top-rated movies meeting minimum views and minimum rating thresholds, ordered by average rating descending",
		withPaging(thresholdParams),
		func(ctx context.Context, store QueryStore, _ string, p queryParams) (any, error) {
			return store.MovieStatsByThresholds(ctx, p.MinViews, p.MinRating, false, byRatingDesc, p.page())
		})
	c.add("GetTopRatedWithQualityThresholdAsc",
		"Retrieve movies meeting minimum views and minimum rating thresholds, ordered by average rating ascending",
		withPaging(thresholdParams),
		func(ctx context.Context, store QueryStore, _ string, p queryParams) (any, error) {
			return store.MovieStatsByThresholds(ctx, p.MinViews, p.MinRating, false, byRatingAsc, p.page())
		})

	c.add("PopularButUnderrated",
		"Find popular movies with high view counts but modest ratings, ordered by views descending",
		withPaging(map[string]*schema.ParameterInfo{
			"minViews":  {Type: "number", Desc: "Minimum number of views, e.g. 500", Required: true},
			"maxRating": {Type: "number", Desc: "Maximum average rating, e.g. 3.9", Required: true},
		}),
		func(ctx context.Context, store QueryStore, _ string, p queryParams) (any, error) {
			return store.MovieStatsByThresholds(ctx, p.MinViews, p.MaxRating, true, byViewsDesc, p.page())
		})
}
