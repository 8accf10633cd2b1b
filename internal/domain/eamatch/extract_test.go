package eamatch

import "testing"

func TestExtractPlayersShapes(t *testing.T) {
	tests := []struct {
		name    string
		payload any
		want    int
	}{
		{
			name: "playerStats array",
			payload: map[string]any{
				"playerStats": []any{
					map[string]any{"playername": "Alice", "skgoals": 2},
					map[string]any{"playername": "Bob", "skgoals": 1},
				},
			},
			want: 2,
		},
		{
			name: "players array",
			payload: map[string]any{
				"players": []any{
					map[string]any{"persona": "Carl", "skshots": 4},
				},
			},
			want: 1,
		},
		{
			name: "players keyed by club then player id",
			payload: map[string]any{
				"players": map[string]any{
					"101": map[string]any{
						"a1": map[string]any{"playername": "Dana", "skgoals": 1},
						"a2": map[string]any{"playername": "Erin", "skgoals": 0},
					},
				},
			},
			want: 2,
		},
		{
			name: "top level array",
			payload: []any{
				map[string]any{"playername": "Fred", "skassists": 3},
			},
			want: 1,
		},
		{
			name:    "unrecognized shape yields empty list",
			payload: map[string]any{"matchId": "m1"},
			want:    0,
		},
		{
			name: "multiple shapes all contribute",
			payload: map[string]any{
				"playerStats": []any{
					map[string]any{"playername": "Gil", "skgoals": 1},
				},
				"players": []any{
					map[string]any{"playername": "Gil", "skgoals": 1},
				},
			},
			want: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			players := ExtractPlayers(tt.payload)
			if len(players) != tt.want {
				t.Fatalf("got %d players, want %d", len(players), tt.want)
			}
		})
	}
}

func TestExtractPlayersTeamSides(t *testing.T) {
	payload := map[string]any{
		"homeTeam": map[string]any{
			"players": []any{
				map[string]any{"playername": "Home Guy", "skgoals": 1},
			},
		},
		"awayTeam": map[string]any{
			"players": map[string]any{
				"b1": map[string]any{"playername": "Away Guy", "skgoals": 2},
			},
		},
	}

	players := ExtractPlayers(payload)
	if len(players) != 2 {
		t.Fatalf("got %d players, want 2", len(players))
	}

	sides := make(map[string]string, 2)
	for _, p := range players {
		sides[p.Persona] = p.TeamSide
	}
	if sides["Home Guy"] != TeamSideHome {
		t.Fatalf("Home Guy side = %q", sides["Home Guy"])
	}
	if sides["Away Guy"] != TeamSideAway {
		t.Fatalf("Away Guy side = %q", sides["Away Guy"])
	}
}

func TestNormalizePlayerDefaults(t *testing.T) {
	player := NormalizePlayer(Record{})
	if player.Persona != "Unknown Player" {
		t.Fatalf("persona = %q", player.Persona)
	}
	if player.PlayerID == "" {
		t.Fatal("expected a generated player id")
	}
	if player.Position != PosCenter {
		t.Fatalf("position = %q, want C", player.Position)
	}
	if player.Category != CategoryOffense {
		t.Fatalf("category = %q", player.Category)
	}
	if player.Goals != 0 || player.ShotPct != 0 || player.SavePct != 0 {
		t.Fatalf("expected zeroed stats, got %+v", player)
	}
}

func TestNormalizePlayerFallbackChains(t *testing.T) {
	player := NormalizePlayer(Record{
		"playername": "Sniper",
		"goals":      5,
		"skassists":  3,
		"shots":      10,
		"position":   "rightWing",
		"timeOnIce":  1200,
	})

	if player.Persona != "Sniper" {
		t.Fatalf("persona = %q", player.Persona)
	}
	if player.Goals != 5 {
		t.Fatalf("goals = %d, want 5 via raw-name fallback", player.Goals)
	}
	if player.Assists != 3 {
		t.Fatalf("assists = %d", player.Assists)
	}
	if player.TOISeconds != 1200 {
		t.Fatalf("toi = %d", player.TOISeconds)
	}
	if player.Position != PosRightWing {
		t.Fatalf("position = %q", player.Position)
	}
	if player.ShotPct != 50 {
		t.Fatalf("shot pct = %v, want 50", player.ShotPct)
	}
}

func TestNormalizePlayerSkFieldsWinOverRawNames(t *testing.T) {
	player := NormalizePlayer(Record{
		"playername": "Both Names",
		"skgoals":    2,
		"goals":      9,
	})
	if player.Goals != 2 {
		t.Fatalf("goals = %d, want sk-prefixed value 2", player.Goals)
	}
}

func TestNormalizePlayerExplicitCategoryWins(t *testing.T) {
	player := NormalizePlayer(Record{
		"playername": "Stay At Home",
		"position":   "leftDefense",
		"category":   "goalie",
	})
	if player.Position != PosLeftDefense {
		t.Fatalf("position = %q", player.Position)
	}
	if player.Category != CategoryGoalie {
		t.Fatalf("category = %q, want explicit override", player.Category)
	}
}

func TestNormalizePlayerGoalieRates(t *testing.T) {
	player := NormalizePlayer(Record{
		"playername": "Wall",
		"position":   "goalie",
		"glsaves":    18,
		"glga":       2,
	})
	if player.Position != PosGoalie {
		t.Fatalf("position = %q", player.Position)
	}
	if player.Category != CategoryGoalie {
		t.Fatalf("category = %q", player.Category)
	}
	if player.SavePct != 90 {
		t.Fatalf("save pct = %v, want 90", player.SavePct)
	}
}

func TestResolvePlayerNumericPositionCodes(t *testing.T) {
	goalie := ResolvePlayer(Record{
		"playername": "Tendy",
		"position":   "0",
		"glsaves":    15,
		"glshots":    15,
		"glga":       0,
	})
	if goalie.Position != PosGoalie {
		t.Fatalf("position = %q, want G via numeric code", goalie.Position)
	}
	if goalie.Category != CategoryGoalie {
		t.Fatalf("category = %q", goalie.Category)
	}
	if goalie.Saves != 15 || goalie.SavePct != 100 {
		t.Fatalf("goalie stats = %d saves, %v pct", goalie.Saves, goalie.SavePct)
	}

	defender := ResolvePlayer(Record{
		"playername": "Shutdown",
		"position":   "2",
	})
	if defender.Position != PosLeftDefense {
		t.Fatalf("position = %q, want LD", defender.Position)
	}
	if defender.Category != CategoryDefense {
		t.Fatalf("category = %q", defender.Category)
	}
}

func TestResolvePlayerStatShapeSignal(t *testing.T) {
	player := ResolvePlayer(Record{
		"playername": "Quiet Tendy",
		"glsaves":    7,
		"glga":       1,
	})
	if player.Position != PosGoalie {
		t.Fatalf("position = %q, want G from save columns", player.Position)
	}
	if player.Category != CategoryGoalie {
		t.Fatalf("category = %q", player.Category)
	}
}
