package eamatch

import "testing"

func TestResolvePositionCascade(t *testing.T) {
	tests := []struct {
		name string
		rec  Record
		want string
	}{
		{
			name: "posSorted beats conflicting numeric code",
			rec:  Record{"posSorted": "leftDefense", "position": "3"},
			want: PosLeftDefense,
		},
		{
			name: "posSorted goalie",
			rec:  Record{"posSorted": "goalie"},
			want: PosGoalie,
		},
		{
			name: "numeric code 0 is goalie",
			rec:  Record{"position": "0"},
			want: PosGoalie,
		},
		{
			name: "numeric code 1 is right defense",
			rec:  Record{"position": "1"},
			want: PosRightDefense,
		},
		{
			name: "numeric code 2 is left defense",
			rec:  Record{"position": "2"},
			want: PosLeftDefense,
		},
		{
			name: "numeric code as json number",
			rec:  Record{"position": float64(5)},
			want: PosCenter,
		},
		{
			name: "skposition text mapping",
			rec:  Record{"skposition": "rightWing"},
			want: PosRightWing,
		},
		{
			name: "position text mapping",
			rec:  Record{"position": "leftWing"},
			want: PosLeftWing,
		},
		{
			name: "unmapped position text falls through",
			rec:  Record{"position": "bench"},
			want: PosSkater,
		},
		{
			name: "goalie stats presence",
			rec:  Record{"saves": 10, "goalsAgainst": 2},
			want: PosGoalie,
		},
		{
			name: "goalie stats presence gl fields",
			rec:  Record{"glsaves": 21, "glga": 1},
			want: PosGoalie,
		},
		{
			name: "saves without goals against is not enough",
			rec:  Record{"saves": 10},
			want: PosSkater,
		},
		{
			name: "category defense fallback",
			rec:  Record{"category": "defense"},
			want: PosDefense,
		},
		{
			name: "category offense fallback",
			rec:  Record{"category": "offense"},
			want: PosCenter,
		},
		{
			name: "faceoff stats imply center",
			rec:  Record{"skfow": 7},
			want: PosCenter,
		},
		{
			name: "offensive stats imply forward",
			rec:  Record{"goals": 1},
			want: PosForward,
		},
		{
			name: "no signal degrades to skater",
			rec:  Record{},
			want: PosSkater,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolvePosition(tt.rec); got != tt.want {
				t.Fatalf("ResolvePosition() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		position string
		want     string
	}{
		{PosGoalie, CategoryGoalie},
		{PosLeftDefense, CategoryDefense},
		{PosRightDefense, CategoryDefense},
		{PosDefense, CategoryDefense},
		{PosCenter, CategoryOffense},
		{PosLeftWing, CategoryOffense},
		{PosRightWing, CategoryOffense},
		{PosForward, CategoryOffense},
		{PosSkater, CategoryOffense},
		{"", CategoryOffense},
	}

	for _, tt := range tests {
		if got := CategoryOf(tt.position); got != tt.want {
			t.Fatalf("CategoryOf(%q) = %q, want %q", tt.position, got, tt.want)
		}
	}
}

func TestMapPositionText(t *testing.T) {
	if got := MapPositionText("LeftDefense"); got != PosLeftDefense {
		t.Fatalf("MapPositionText(LeftDefense) = %q", got)
	}
	// Unknown text comes back unchanged so callers can detect a miss.
	if got := MapPositionText("zamboni"); got != "zamboni" {
		t.Fatalf("MapPositionText(zamboni) = %q", got)
	}
}
