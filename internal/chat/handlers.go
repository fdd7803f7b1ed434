package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/moviechat/server/internal/agent"
	errx "github.com/moviechat/server/internal/core/error"
	"github.com/moviechat/server/internal/movies"
)

// Action tool names as the agent sees them.
const (
	ToolRateMovie      = "RateMovie"
	ToolAddTags        = "AddTags"
	ToolChangeUserName = "ChangeUserName"
)

// RateMovieArgs is the argument shape of the RateMovie tool.
type RateMovieArgs struct {
	MovieName string  `json:"movieName"`
	RateValue float64 `json:"rateValue"`
}

// AddTagsArgs is the argument shape of the AddTags tool.
type AddTagsArgs struct {
	MovieName string   `json:"movieName"`
	Tags      []string `json:"tags"`
}

// ChangeUserNameArgs is the argument shape of the ChangeUserName tool.
type ChangeUserNameArgs struct {
	OldUserName string `json:"oldUserName"`
	NewUserName string `json:"newUserName"`
}

// Handlers implements the mutating tools for one calling user. Every
// invocation opens its own unit of work and commits or discards it before
// returning; handlers never keep database state across calls.
type Handlers struct {
	data   DataAccess
	userID string
	now    func() time.Time
}

func NewHandlers(data DataAccess, userID string, now func() time.Time) *Handlers {
	if now == nil {
		now = time.Now
	}
	return &Handlers{data: data, userID: userID, now: now}
}

// RegisterAll registers the three action tools on the registry.
func (h *Handlers) RegisterAll(registry *Registry) error {
	entries := []struct {
		info    *schema.ToolInfo
		handler Handler
	}{
		{
			info: &schema.ToolInfo{
				Name: ToolRateMovie,
				Desc: "Add a movie rating for the current user. Requires the movie name and a rate value between 0 and 5 (may be fractional, does not have to be an integer).",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"movieName": {Type: "string", Desc: "The name of the movie the user wants to rate", Required: true},
					"rateValue": {Type: "number", Desc: "Rate value between 0 and 5, e.g. 4.5", Required: true},
				}),
			},
			handler: decode(h.RateMovie),
		},
		{
			info: &schema.ToolInfo{
				Name: ToolAddTags,
				Desc: "Adds one or more user-provided tags to a specified movie. Tags should describe the movie's characteristics, such as themes, style, or content. Only perform this action if the tags are relevant to the movie; otherwise do not apply them and inform the user that the tags are not suitable.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"movieName": {Type: "string", Desc: "The name of the movie the user wants to tag", Required: true},
					"tags": {
						Type:     "array",
						ElemInfo: &schema.ParameterInfo{Type: "string"},
						Desc:     "Tags to add, e.g. [\"Scary\", \"Disgusting\"]",
						Required: true,
					},
				}),
			},
			handler: decode(h.AddTags),
		},
		{
			info: &schema.ToolInfo{
				Name: ToolChangeUserName,
				Desc: "Updates the name of the current user interacting with the agent. The old name must also be sent, for validation.",
				ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
					"oldUserName": {Type: "string", Desc: "The user's current name, e.g. \"James Parker\"", Required: true},
					"newUserName": {Type: "string", Desc: "The name to change to, e.g. \"James Smith\"", Required: true},
				}),
			},
			handler: decode(h.ChangeUserName),
		},
	}

	for _, e := range entries {
		if err := registry.Register(e.info, e.handler); err != nil {
			return err
		}
	}
	return nil
}

// decode adapts a typed handler to the registry's raw-argument contract.
// A deserialization failure surfaces as a handler error and is converted
// at the dispatch boundary like any other infrastructure failure.
func decode[T any](fn func(ctx context.Context, args T) (agent.ActionResult, error)) Handler {
	return func(ctx context.Context, arguments json.RawMessage) (agent.ActionResult, error) {
		var args T
		if err := json.Unmarshal(arguments, &args); err != nil {
			return agent.ActionResult{}, fmt.Errorf("decode arguments: %w", err)
		}
		return fn(ctx, args)
	}
}

func failure(format string, a ...any) agent.ActionResult {
	return agent.ActionResult{IsSuccessful: false, Message: fmt.Sprintf(format, a...)}
}

func success(format string, a ...any) agent.ActionResult {
	return agent.ActionResult{IsSuccessful: true, Message: fmt.Sprintf(format, a...)}
}

// RateMovie records a rating event for every movie matching the name and
// marks them watched. Duplicate titles are all rated identically in one
// invocation; that is the intended bulk behavior, not a disambiguation bug.
func (h *Handlers) RateMovie(ctx context.Context, args RateMovieArgs) (agent.ActionResult, error) {
	if args.RateValue < 0 || args.RateValue > 5 {
		return failure("Cant rate \"%s\" with the rate value %v - rate value has to be between 0 to 5",
			args.MovieName, args.RateValue), nil
	}

	unit, err := h.data.Open(ctx)
	if err != nil {
		return agent.ActionResult{}, err
	}
	defer unit.Close()

	found, err := unit.FindMoviesByTitle(ctx, args.MovieName)
	if err != nil {
		return agent.ActionResult{}, err
	}
	if len(found) == 0 {
		return failure("Movie with the name \"%s\" doesn't exist on the database", args.MovieName), nil
	}

	user, err := unit.LoadUser(ctx, h.userID)
	if err != nil {
		if errx.IsNotFound(err) {
			return failure("User \"%s\" doesn't exist on the database", h.userID), nil
		}
		return agent.ActionResult{}, err
	}

	watched := user.WatchedMovies
	for _, movie := range found {
		unit.StoreRating(movies.Rating{
			ID:        primitive.NewObjectID().Hex(),
			UserID:    h.userID,
			MovieID:   movie.ID,
			Value:     args.RateValue,
			Timestamp: h.now().UTC(),
		})
		watched = appendMissing(watched, movie.ID)
	}
	unit.SetUserWatched(h.userID, watched)

	if err := unit.Commit(ctx); err != nil {
		return agent.ActionResult{}, err
	}
	return success("Found %d movies with the name '%s' and rated them by score '%v'",
		len(found), args.MovieName, args.RateValue), nil
}

// AddTags unions the given tags into every movie matching the name.
// Re-adding an existing tag, in any casing, is a no-op.
func (h *Handlers) AddTags(ctx context.Context, args AddTagsArgs) (agent.ActionResult, error) {
	unit, err := h.data.Open(ctx)
	if err != nil {
		return agent.ActionResult{}, err
	}
	defer unit.Close()

	found, err := unit.FindMoviesByTitle(ctx, args.MovieName)
	if err != nil {
		return agent.ActionResult{}, err
	}
	if len(found) == 0 {
		return failure("Movie with the name \"%s\" doesn't exist on the database", args.MovieName), nil
	}

	for _, movie := range found {
		unit.SetMovieTags(movie.ID, movies.MergeTags(movie.Tags, args.Tags))
	}

	if err := unit.Commit(ctx); err != nil {
		return agent.ActionResult{}, err
	}
	return success("Found %d movies with the name '%s' and added them by tags [%s]",
		len(found), args.MovieName, strings.Join(args.Tags, ", ")), nil
}

// ChangeUserName renames the calling user after validating the supplied
// old name against the stored one, case-insensitively. A mismatch changes
// nothing.
func (h *Handlers) ChangeUserName(ctx context.Context, args ChangeUserNameArgs) (agent.ActionResult, error) {
	unit, err := h.data.Open(ctx)
	if err != nil {
		return agent.ActionResult{}, err
	}
	defer unit.Close()

	user, err := unit.LoadUser(ctx, h.userID)
	if err != nil {
		if errx.IsNotFound(err) {
			return failure("User \"%s\" doesn't exist on the database", h.userID), nil
		}
		return agent.ActionResult{}, err
	}

	if !movies.EqualFoldNames(user.Name, args.OldUserName) {
		return failure("Your old name isn't '%s'", args.OldUserName), nil
	}

	unit.SetUserName(h.userID, args.NewUserName)
	if err := unit.Commit(ctx); err != nil {
		return agent.ActionResult{}, err
	}
	return success("Name of user '%s' changed from '%s' to '%s'",
		h.userID, args.OldUserName, args.NewUserName), nil
}

func appendMissing(list []string, v string) []string {
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}
