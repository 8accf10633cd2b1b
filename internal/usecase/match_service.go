package usecase

import (
	"context"
	"fmt"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/sourcegraph/conc/pool"

	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/domain/rawdata"
	"github.com/chelhq/chel-stats/internal/platform/cache"
	"github.com/chelhq/chel-stats/internal/platform/logging"
)

// DefaultMatchType is the EA proclubs match feed queried when the caller
// does not pick one.
const DefaultMatchType = "club_private"

// defaultArchiveReplayLimit caps how many archived payloads one replay reads
// when the caller does not ask for a specific window.
const defaultArchiveReplayLimit = 20

// MatchProvider fetches raw match snapshots for a club from the EA API.
type MatchProvider interface {
	FetchClubMatches(ctx context.Context, clubID, matchType string) ([]eamatch.Match, []rawdata.Payload, error)
}

type MatchService struct {
	provider MatchProvider
	rawRepo  rawdata.Repository
	cache    *cache.Store
	logger   *logging.Logger

	fanOutLimit int
}

func NewMatchService(provider MatchProvider, rawRepo rawdata.Repository, store *cache.Store, logger *logging.Logger) *MatchService {
	if logger == nil {
		logger = logging.Default()
	}

	return &MatchService{
		provider:    provider,
		rawRepo:     rawRepo,
		cache:       store,
		logger:      logger,
		fanOutLimit: 8,
	}
}

// ListClubMatches returns the club's recent match snapshots, newest first as
// the EA feed delivers them. Results are cached per (club, matchType) and
// concurrent cache misses collapse into one upstream fetch.
func (s *MatchService) ListClubMatches(ctx context.Context, clubID, matchType string) ([]eamatch.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListClubMatches")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if s.provider == nil {
		return nil, fmt.Errorf("%w: match provider is not configured", ErrDependencyUnavailable)
	}
	matchType = strings.TrimSpace(matchType)
	if matchType == "" {
		matchType = DefaultMatchType
	}

	key := "matches:" + clubID + ":" + matchType
	loaded, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		matches, payloads, fetchErr := s.provider.FetchClubMatches(ctx, clubID, matchType)
		if fetchErr != nil {
			return nil, fmt.Errorf("fetch club matches club=%s match_type=%s: %w", clubID, matchType, fetchErr)
		}
		s.archivePayloads(ctx, clubID, payloads)
		return matches, nil
	})
	if err != nil {
		return nil, err
	}

	matches, _ := loaded.([]eamatch.Match)
	return matches, nil
}

// CombineSession fetches the club's snapshots, keeps the requested match IDs
// (all snapshots when none are given) and folds them into one combined match.
func (s *MatchService) CombineSession(ctx context.Context, clubID string, matchIDs []string) (eamatch.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.CombineSession")
	defer span.End()

	matches, err := s.ListClubMatches(ctx, clubID, "")
	if err != nil {
		return nil, err
	}

	selected := filterByMatchID(matches, matchIDs)
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no matches for club=%s", ErrNotFound, strings.TrimSpace(clubID))
	}

	return eamatch.Combine(selected), nil
}

// FetchClubsMatches fans out over many clubs with a bounded goroutine pool.
// One failing club fails the whole call; partial results are not returned.
func (s *MatchService) FetchClubsMatches(ctx context.Context, clubIDs []string, matchType string) (map[string][]eamatch.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.FetchClubsMatches")
	defer span.End()

	if len(clubIDs) == 0 {
		return nil, fmt.Errorf("%w: at least one club id is required", ErrInvalidInput)
	}

	type clubMatches struct {
		clubID  string
		matches []eamatch.Match
	}

	p := pool.NewWithResults[clubMatches]().
		WithContext(ctx).
		WithMaxGoroutines(s.fanOutLimit).
		WithCancelOnError()

	for _, clubID := range clubIDs {
		clubID := clubID
		p.Go(func(ctx context.Context) (clubMatches, error) {
			matches, err := s.ListClubMatches(ctx, clubID, matchType)
			if err != nil {
				return clubMatches{}, err
			}
			return clubMatches{clubID: clubID, matches: matches}, nil
		})
	}

	results, err := p.Wait()
	if err != nil {
		return nil, err
	}

	out := make(map[string][]eamatch.Match, len(results))
	for _, r := range results {
		out[r.clubID] = r.matches
	}
	return out, nil
}

// InvalidateClub drops cached snapshots so the next read refetches, used
// after a backfill rewrites history.
func (s *MatchService) InvalidateClub(ctx context.Context, clubID string) {
	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return
	}
	s.cache.DeletePrefix(ctx, "matches:"+clubID+":")
}

// ListArchivedClubPlayers replays the club's archived raw payloads and
// returns every player record found in them, whatever shape the snapshot
// used. No identity merging happens across payloads; the same player shows
// up once per archived appearance.
func (s *MatchService) ListArchivedClubPlayers(ctx context.Context, clubID string, limit int) ([]eamatch.NormalizedPlayer, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchService.ListArchivedClubPlayers")
	defer span.End()

	clubID = strings.TrimSpace(clubID)
	if clubID == "" {
		return nil, fmt.Errorf("%w: club id is required", ErrInvalidInput)
	}
	if s.rawRepo == nil {
		return nil, fmt.Errorf("%w: raw payload archive is not configured", ErrDependencyUnavailable)
	}
	if limit <= 0 {
		limit = defaultArchiveReplayLimit
	}

	payloads, err := s.rawRepo.ListByClub(ctx, clubID, limit)
	if err != nil {
		return nil, fmt.Errorf("list archived payloads club=%s: %w", clubID, err)
	}

	players := make([]eamatch.NormalizedPlayer, 0, len(payloads))
	for _, item := range payloads {
		var decoded any
		if err := sonic.UnmarshalString(item.PayloadJSON, &decoded); err != nil {
			// A corrupt archive row should not sink the whole replay.
			s.logger.WarnContext(ctx, "decode archived payload failed", "club_id", clubID, "match_id", item.MatchID, "error", err)
			continue
		}
		players = append(players, eamatch.ExtractPlayers(decoded)...)
	}
	return players, nil
}

func (s *MatchService) archivePayloads(ctx context.Context, clubID string, payloads []rawdata.Payload) {
	if s.rawRepo == nil || len(payloads) == 0 {
		return
	}
	if err := s.rawRepo.UpsertMany(ctx, payloads); err != nil {
		// Archival is best effort; the fetched matches are still served.
		s.logger.WarnContext(ctx, "archive raw payloads failed", "club_id", clubID, "count", len(payloads), "error", err)
	}
}

func filterByMatchID(matches []eamatch.Match, matchIDs []string) []eamatch.Match {
	if len(matchIDs) == 0 {
		return matches
	}

	wanted := make(map[string]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		id = strings.TrimSpace(id)
		if id != "" {
			wanted[id] = struct{}{}
		}
	}
	if len(wanted) == 0 {
		return matches
	}

	selected := make([]eamatch.Match, 0, len(wanted))
	for _, m := range matches {
		if _, ok := wanted[m.ID()]; ok {
			selected = append(selected, m)
		}
	}
	return selected
}
