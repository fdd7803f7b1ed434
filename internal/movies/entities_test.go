package movies

import (
	"reflect"
	"testing"
)

func TestMergeTags(t *testing.T) {
	tests := []struct {
		name     string
		existing []string
		added    []string
		want     []string
	}{
		{
			name:  "add to empty",
			added: []string{"Scary", "Space"},
			want:  []string{"Scary", "Space"},
		},
		{
			name:     "case-insensitive dedup keeps first casing",
			existing: []string{"Scary"},
			added:    []string{"scary", "SCARY", "Space"},
			want:     []string{"Scary", "Space"},
		},
		{
			name:     "idempotent re-add",
			existing: []string{"Scary", "Space"},
			added:    []string{"Scary", "Space"},
			want:     []string{"Scary", "Space"},
		},
		{
			name:     "blank tags dropped",
			existing: []string{"Scary"},
			added:    []string{"", "   ", "Gore"},
			want:     []string{"Scary", "Gore"},
		},
		{
			name:     "whitespace trimmed before compare",
			existing: []string{"Scary"},
			added:    []string{"  scary  ", " Gore "},
			want:     []string{"Scary", "Gore"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeTags(tt.existing, tt.added)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("MergeTags(%v, %v) = %v, want %v", tt.existing, tt.added, got, tt.want)
			}
		})
	}
}

func TestMergeTagsIsIdempotent(t *testing.T) {
	once := MergeTags([]string{"Scary"}, []string{"Space", "gore"})
	twice := MergeTags(once, []string{"Space", "gore"})
	if !reflect.DeepEqual(once, twice) {
		t.Fatalf("second merge changed the result: %v vs %v", once, twice)
	}
}

func TestEqualFoldNames(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"James Parker", "James Parker", true},
		{"James Parker", "james parker", true},
		{"  James Parker ", "james parker", true},
		{"James Parker", "John Parker", false},
		{"", "", true},
	}

	for _, tt := range tests {
		if got := EqualFoldNames(tt.a, tt.b); got != tt.want {
			t.Fatalf("EqualFoldNames(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestValidGenres(t *testing.T) {
	if len(ValidGenres) != 18 {
		t.Fatalf("genre list has %d entries, want 18", len(ValidGenres))
	}
	seen := map[string]bool{}
	for _, g := range ValidGenres {
		if seen[g] {
			t.Fatalf("duplicate genre %q", g)
		}
		seen[g] = true
	}
	for _, g := range []string{"Action", "Sci-Fi", "Film-Noir"} {
		if !seen[g] {
			t.Fatalf("genre %q missing", g)
		}
	}
}
