package movies

import (
	"reflect"
	"testing"
	"time"
)

func TestParseMovieRow(t *testing.T) {
	tests := []struct {
		name   string
		record []string
		want   *Movie
		ok     bool
	}{
		{
			name:   "title with year and genres",
			record: []string{"1", "Toy Story (1995)", "Adventure|Animation|Children"},
			want: &Movie{
				ID: "Movies/1", Title: "Toy Story", TitleLower: "toy story", Year: 1995,
				Genres: []string{"Adventure", "Animation", "Children"}, Tags: []string{},
			},
			ok: true,
		},
		{
			name:   "no genres listed",
			record: []string{"42", "Some Film (2001)", "(no genres listed)"},
			want: &Movie{
				ID: "Movies/42", Title: "Some Film", TitleLower: "some film", Year: 2001, Tags: []string{},
			},
			ok: true,
		},
		{
			name:   "title without year",
			record: []string{"7", "Cosmos", "Documentary"},
			want: &Movie{
				ID: "Movies/7", Title: "Cosmos", TitleLower: "cosmos",
				Genres: []string{"Documentary"}, Tags: []string{},
			},
			ok: true,
		},
		{
			name:   "year in the middle stays in the title",
			record: []string{"8", "2001: A Space Odyssey (1968)", "Sci-Fi"},
			want: &Movie{
				ID: "Movies/8", Title: "2001: A Space Odyssey", TitleLower: "2001: a space odyssey",
				Year: 1968, Genres: []string{"Sci-Fi"}, Tags: []string{},
			},
			ok: true,
		},
		{
			name:   "too few fields",
			record: []string{"9", "Orphan"},
			ok:     false,
		},
		{
			name:   "empty title",
			record: []string{"10", "   ", "Drama"},
			ok:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseMovieRow(tt.record)
			if tt.ok != (err == nil) {
				t.Fatalf("err = %v, want ok=%v", err, tt.ok)
			}
			if tt.ok && !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("parseMovieRow(%v) = %+v, want %+v", tt.record, got, tt.want)
			}
		})
	}
}

func TestParseRatingRow(t *testing.T) {
	got, err := parseRatingRow([]string{"3", "50", "4.5", "964982224"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got.UserID != "Users/3" || got.MovieID != "Movies/50" || got.Value != 4.5 {
		t.Fatalf("rating = %+v", got)
	}
	if got.ID == "" {
		t.Fatal("rating parsed without an id")
	}
	if want := time.Unix(964982224, 0).UTC(); !got.Timestamp.Equal(want) {
		t.Fatalf("timestamp = %v, want %v", got.Timestamp, want)
	}

	for _, record := range [][]string{
		{"3", "50", "4.5"},
		{"3", "50", "high", "964982224"},
		{"3", "50", "4.5", "yesterday"},
	} {
		if _, err := parseRatingRow(record); err == nil {
			t.Fatalf("record %v accepted", record)
		}
	}
}

func TestPoolNameGeneratorIsDeterministic(t *testing.T) {
	a := NewPoolNameGenerator(nil, 1)
	b := NewPoolNameGenerator(nil, 1)
	for i := 0; i < 10; i++ {
		if na, nb := a(), b(); na != nb {
			t.Fatalf("same seed diverged at %d: %q vs %q", i, na, nb)
		}
	}

	custom := NewPoolNameGenerator([]string{"Only Name"}, 7)
	if got := custom(); got != "Only Name" {
		t.Fatalf("single-name pool returned %q", got)
	}
}
