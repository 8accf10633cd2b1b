package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chelhq/chel-stats/internal/domain/clubstats"
	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/domain/playerstats"
	"github.com/chelhq/chel-stats/internal/domain/rawdata"
	"github.com/chelhq/chel-stats/internal/platform/cache"
	"github.com/chelhq/chel-stats/internal/platform/logging"
)

type stubMatchProvider struct {
	mu      sync.Mutex
	calls   int
	matches map[string][]eamatch.Match
	payload []rawdata.Payload
	err     error
}

func (p *stubMatchProvider) FetchClubMatches(_ context.Context, clubID, _ string) ([]eamatch.Match, []rawdata.Payload, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.err != nil {
		return nil, nil, p.err
	}
	return p.matches[clubID], p.payload, nil
}

func (p *stubMatchProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type stubRawDataRepository struct {
	mu       sync.Mutex
	upserted []rawdata.Payload
	err      error
}

func (r *stubRawDataRepository) UpsertMany(_ context.Context, items []rawdata.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.upserted = append(r.upserted, items...)
	return nil
}

func (r *stubRawDataRepository) ListByClub(_ context.Context, _ string, _ int) ([]rawdata.Payload, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]rawdata.Payload(nil), r.upserted...), nil
}

type stubClubStatsRepository struct {
	mu          sync.Mutex
	seasons     map[string]clubstats.SeasonStats
	lines       []clubstats.MatchLine
	accumulated []clubstats.MatchLine
}

func newStubClubStatsRepository() *stubClubStatsRepository {
	return &stubClubStatsRepository{seasons: make(map[string]clubstats.SeasonStats)}
}

func (r *stubClubStatsRepository) GetSeasonStats(_ context.Context, clubID string) (clubstats.SeasonStats, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats, ok := r.seasons[clubID]
	return stats, ok, nil
}

func (r *stubClubStatsRepository) AccumulateSeasonStats(_ context.Context, line clubstats.MatchLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := r.seasons[line.ClubID]
	stats.ClubID = line.ClubID
	stats.GamesPlayed++
	stats.Goals += line.Goals
	stats.GoalsAgainst += line.GoalsAgainst
	stats.Shots += line.Shots
	r.seasons[line.ClubID] = stats
	r.accumulated = append(r.accumulated, line)
	return nil
}

func (r *stubClubStatsRepository) ListMatchLines(_ context.Context, clubID string, _ int) ([]clubstats.MatchLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]clubstats.MatchLine, 0, len(r.lines))
	for _, line := range r.lines {
		if line.ClubID == clubID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *stubClubStatsRepository) UpsertMatchLine(_ context.Context, line clubstats.MatchLine) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, line)
	return nil
}

type stubPlayerStatsRepository struct {
	mu   sync.Mutex
	rows []playerstats.SeasonStats
}

func (r *stubPlayerStatsRepository) AccumulateSeasonStats(_ context.Context, stats []playerstats.SeasonStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, stats...)
	return nil
}

func (r *stubPlayerStatsRepository) ListByClub(_ context.Context, clubID string) ([]playerstats.SeasonStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]playerstats.SeasonStats, 0, len(r.rows))
	for _, row := range r.rows {
		if row.ClubID == clubID {
			out = append(out, row)
		}
	}
	return out, nil
}

func (r *stubPlayerStatsRepository) GetByClubAndPersona(_ context.Context, clubID, persona string) (playerstats.SeasonStats, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.ClubID == clubID && row.Persona == persona {
			return row, true, nil
		}
	}
	return playerstats.SeasonStats{}, false, nil
}

func snapshotMatch(matchID string, ts float64, clubID string, goals float64) eamatch.Match {
	return eamatch.Match{
		"matchId":   matchID,
		"timestamp": ts,
		"clubs": map[string]any{
			clubID: map[string]any{
				"goals":        goals,
				"goalsAgainst": float64(1),
				"shots":        float64(10),
				"details":      map[string]any{"name": "Club " + clubID},
			},
		},
		"players": map[string]any{
			clubID: map[string]any{
				"p-1": map[string]any{
					"playername": "azhockeynut",
					"position":   "center",
					"skgoals":    goals,
					"skassists":  float64(1),
					"skshots":    float64(4),
				},
			},
		},
	}
}

func TestMatchService_ListClubMatches_CachesFetch(t *testing.T) {
	t.Parallel()

	provider := &stubMatchProvider{
		matches: map[string][]eamatch.Match{
			"club-1": {snapshotMatch("m-1", 100, "club-1", 2)},
		},
		payload: []rawdata.Payload{{Source: "eaapi", ClubID: "club-1", MatchID: "m-1"}},
	}
	rawRepo := &stubRawDataRepository{}
	service := NewMatchService(provider, rawRepo, cache.NewStore(time.Minute), logging.NewNop())

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		matches, err := service.ListClubMatches(ctx, "club-1", "")
		if err != nil {
			t.Fatalf("list club matches: %v", err)
		}
		if len(matches) != 1 || matches[0].ID() != "m-1" {
			t.Fatalf("unexpected matches: %+v", matches)
		}
	}

	if got := provider.callCount(); got != 1 {
		t.Fatalf("provider called %d times, want 1", got)
	}
	if len(rawRepo.upserted) != 1 {
		t.Fatalf("expected one archived payload, got %d", len(rawRepo.upserted))
	}
}

func TestMatchService_ListClubMatches_RequiresClubID(t *testing.T) {
	t.Parallel()

	service := NewMatchService(&stubMatchProvider{}, nil, cache.NewStore(time.Minute), logging.NewNop())

	_, err := service.ListClubMatches(context.Background(), "  ", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestMatchService_CombineSession_FiltersByMatchID(t *testing.T) {
	t.Parallel()

	provider := &stubMatchProvider{
		matches: map[string][]eamatch.Match{
			"club-1": {
				snapshotMatch("m-1", 100, "club-1", 2),
				snapshotMatch("m-2", 200, "club-1", 3),
				snapshotMatch("m-3", 300, "club-1", 1),
			},
		},
	}
	service := NewMatchService(provider, nil, cache.NewStore(time.Minute), logging.NewNop())

	combined, err := service.CombineSession(context.Background(), "club-1", []string{"m-1", "m-2"})
	if err != nil {
		t.Fatalf("combine session: %v", err)
	}

	if combined.ID() != "combined-m-2-m-1" {
		t.Fatalf("unexpected combined id: %s", combined.ID())
	}
	club := combined.Clubs()["club-1"]
	if got := int(club.Num("goals")); got != 5 {
		t.Fatalf("combined goals = %d, want 5", got)
	}
}

func TestMatchService_CombineSession_NotFoundForUnknownIDs(t *testing.T) {
	t.Parallel()

	provider := &stubMatchProvider{
		matches: map[string][]eamatch.Match{
			"club-1": {snapshotMatch("m-1", 100, "club-1", 2)},
		},
	}
	service := NewMatchService(provider, nil, cache.NewStore(time.Minute), logging.NewNop())

	_, err := service.CombineSession(context.Background(), "club-1", []string{"m-404"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestMatchService_FetchClubsMatches_FansOut(t *testing.T) {
	t.Parallel()

	provider := &stubMatchProvider{
		matches: map[string][]eamatch.Match{
			"club-1": {snapshotMatch("m-1", 100, "club-1", 2)},
			"club-2": {snapshotMatch("m-2", 200, "club-2", 4)},
		},
	}
	service := NewMatchService(provider, nil, cache.NewStore(time.Minute), logging.NewNop())

	got, err := service.FetchClubsMatches(context.Background(), []string{"club-1", "club-2"}, "")
	if err != nil {
		t.Fatalf("fetch clubs matches: %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("expected two clubs, got %d", len(got))
	}
	if len(got["club-1"]) != 1 || got["club-1"][0].ID() != "m-1" {
		t.Fatalf("unexpected club-1 matches: %+v", got["club-1"])
	}
	if len(got["club-2"]) != 1 || got["club-2"][0].ID() != "m-2" {
		t.Fatalf("unexpected club-2 matches: %+v", got["club-2"])
	}
}

func TestMatchService_FetchClubsMatches_PropagatesFailure(t *testing.T) {
	t.Parallel()

	provider := &stubMatchProvider{err: errors.New("ea api down")}
	service := NewMatchService(provider, nil, cache.NewStore(time.Minute), logging.NewNop())

	_, err := service.FetchClubsMatches(context.Background(), []string{"club-1"}, "")
	if err == nil {
		t.Fatal("expected fan-out error")
	}
}

func TestMatchService_ListArchivedClubPlayers_ReplaysArchive(t *testing.T) {
	t.Parallel()

	rawRepo := &stubRawDataRepository{
		upserted: []rawdata.Payload{
			{
				Source:      "eaapi",
				ClubID:      "club-1",
				MatchID:     "m-1",
				PayloadJSON: `{"playerStats":[{"playername":"azhockeynut","position":"center","skgoals":2},{"playername":"Tendy","position":"0","glsaves":9,"glga":1}]}`,
			},
			{
				Source:      "eaapi",
				ClubID:      "club-1",
				MatchID:     "m-2",
				PayloadJSON: `{"homeTeam":{"players":[{"playername":"Home Guy","skshots":3}]}}`,
			},
			{
				Source:      "eaapi",
				ClubID:      "club-1",
				MatchID:     "m-corrupt",
				PayloadJSON: `{not json`,
			},
		},
	}
	service := NewMatchService(&stubMatchProvider{}, rawRepo, nil, logging.NewNop())

	players, err := service.ListArchivedClubPlayers(context.Background(), "club-1", 0)
	if err != nil {
		t.Fatalf("list archived players: %v", err)
	}
	if len(players) != 3 {
		t.Fatalf("expected three players, got %d: %+v", len(players), players)
	}

	byPersona := make(map[string]eamatch.NormalizedPlayer, len(players))
	for _, p := range players {
		byPersona[p.Persona] = p
	}
	if byPersona["azhockeynut"].Goals != 2 {
		t.Fatalf("azhockeynut = %+v", byPersona["azhockeynut"])
	}
	if byPersona["Tendy"].Saves != 9 {
		t.Fatalf("Tendy = %+v", byPersona["Tendy"])
	}
	if byPersona["Home Guy"].TeamSide != eamatch.TeamSideHome {
		t.Fatalf("Home Guy side = %q", byPersona["Home Guy"].TeamSide)
	}
}

func TestMatchService_ListArchivedClubPlayers_RequiresArchive(t *testing.T) {
	t.Parallel()

	service := NewMatchService(&stubMatchProvider{}, nil, nil, logging.NewNop())

	_, err := service.ListArchivedClubPlayers(context.Background(), "club-1", 0)
	if !errors.Is(err, ErrDependencyUnavailable) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}
