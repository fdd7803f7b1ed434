package agent

import (
	"fmt"
	"strings"

	"github.com/moviechat/server/internal/movies"
)

// AnswerSample shows the model the shape of the final answer object.
var AnswerSample = Answer{
	Answer:     "Answer to the user question",
	MovieIDs:   []string{"The movie ids relevant to the query or response"},
	MovieNames: []string{"The movie names relevant to the query or response"},
}

// BuildSystemPrompt renders the agent's system prompt for one user.
func BuildSystemPrompt(userID string) string {
	var b strings.Builder
	b.WriteString("You are a movie recommender AI agent. You can query a movie database to learn a user's taste and recommend unwatched movies. ")
	b.WriteString("Use the provided tools only; never invent movie ids. When listing movies, include their movie id. ")
	b.WriteString("Each movie has genres, and can have user-provided tags and user ratings. ")
	b.WriteString("The only valid genres are: ")
	b.WriteString(strings.Join(movies.ValidGenres, ", "))
	b.WriteString(". Each user has a watched list and can rate movies or add tags. ")
	fmt.Fprintf(&b, "The id of the current user you are talking with is %q. ", userID)
	b.WriteString("When you are done, reply with a single JSON object of this exact shape and nothing else: ")
	fmt.Fprintf(&b, `{"answer": %q, "movie_ids": ["Movies/1"], "movie_names": ["Example"]}`, AnswerSample.Answer)
	return b.String()
}
