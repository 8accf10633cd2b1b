package eamatch

import "testing"

func TestPlayersByClubMergesBothNestings(t *testing.T) {
	m := Match{
		"players": map[string]any{
			"club-1": map[string]any{
				"p-1": map[string]any{"playername": "Top Level", "skgoals": float64(2)},
			},
		},
		"clubs": map[string]any{
			"club-1": map[string]any{
				"players": map[string]any{
					"p-2": map[string]any{"playername": "Nested Only", "skgoals": float64(1)},
				},
			},
		},
	}

	roster := m.PlayersByClub("club-1")
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want both nestings merged", len(roster))
	}
	if roster["p-1"].Str("playername") != "Top Level" {
		t.Fatalf("p-1 = %v", roster["p-1"])
	}
	if roster["p-2"].Str("playername") != "Nested Only" {
		t.Fatalf("p-2 = %v", roster["p-2"])
	}
}

func TestPlayersByClubTopLevelEntryWins(t *testing.T) {
	m := Match{
		"players": map[string]any{
			"club-1": map[string]any{
				"p-1": map[string]any{"playername": "Top Level", "skgoals": float64(3)},
			},
		},
		"clubs": map[string]any{
			"club-1": map[string]any{
				"players": map[string]any{
					"p-1": map[string]any{"playername": "Nested Twin", "skgoals": float64(7)},
				},
			},
		},
	}

	roster := m.PlayersByClub("club-1")
	if len(roster) != 1 {
		t.Fatalf("roster size = %d, want duplicated id counted once", len(roster))
	}
	rec := roster["p-1"]
	if rec.Str("playername") != "Top Level" {
		t.Fatalf("playername = %q, want the top-level entry kept", rec.Str("playername"))
	}
	if rec.Num("skgoals") != 3 {
		t.Fatalf("skgoals = %v", rec.Num("skgoals"))
	}
}
