package agent

import (
	"reflect"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    *Answer
	}{
		{
			name:    "plain json",
			content: `{"answer":"Alien is great","movie_ids":["Movies/1"],"movie_names":["Alien"]}`,
			want:    &Answer{Answer: "Alien is great", MovieIDs: []string{"Movies/1"}, MovieNames: []string{"Alien"}},
		},
		{
			name:    "fenced json",
			content: "```json\n{\"answer\":\"done\"}\n```",
			want:    &Answer{Answer: "done"},
		},
		{
			name:    "fence without language tag",
			content: "```\n{\"answer\":\"done\"}\n```",
			want:    &Answer{Answer: "done"},
		},
		{
			name:    "json embedded in prose",
			content: `Here is my reply: {"answer":"sure"} hope it helps`,
			want:    &Answer{Answer: "sure"},
		},
		{
			name:    "plain text falls back to raw content",
			content: "  I could not find that movie.  ",
			want:    &Answer{Answer: "I could not find that movie."},
		},
		{
			name:    "json without answer field falls back",
			content: `{"movie_ids":["Movies/1"]}`,
			want:    &Answer{Answer: `{"movie_ids":["Movies/1"]}`},
		},
		{
			name:    "malformed json falls back",
			content: `{"answer": "oops`,
			want:    &Answer{Answer: `{"answer": "oops`},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseAnswer(tt.content)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseAnswer(%q) = %+v, want %+v", tt.content, got, tt.want)
			}
		})
	}
}
