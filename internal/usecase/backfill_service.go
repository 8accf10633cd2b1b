package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/panjf2000/ants/v2"

	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/platform/logging"
)

const (
	backfillStatusSuccess = "success"
	backfillStatusSkipped = "skipped"
	backfillStatusFailed  = "failed"

	// Snapshots closer together than this belong to one extended game
	// session and get combined.
	defaultSessionGap = 6 * time.Hour
)

type BackfillInput struct {
	ClubIDs    []string
	MatchType  string
	MaxWorkers int

	// PublishRecaps sends a recap per combined session. Off by default so a
	// historical rebuild does not spam the channel.
	PublishRecaps bool
}

type BackfillClubResult struct {
	ClubID     string
	Status     string
	Sessions   int
	Message    string
	DurationMs int64
}

type BackfillResult struct {
	ClubCount    int
	WorkerCount  int
	SuccessCount int
	SkippedCount int
	FailedCount  int
	Clubs        []BackfillClubResult
}

// BackfillService rebuilds season stats for many clubs at once, bounded by a
// worker pool so the EA API is not hammered.
type BackfillService struct {
	matches        *MatchService
	stats          *StatsService
	recaps         *RecapService
	logger         *logging.Logger
	sessionGap     time.Duration
	defaultWorkers int
}

func NewBackfillService(matches *MatchService, stats *StatsService, recaps *RecapService, logger *logging.Logger) *BackfillService {
	if logger == nil {
		logger = logging.Default()
	}

	return &BackfillService{
		matches:    matches,
		stats:      stats,
		recaps:     recaps,
		logger:     logger,
		sessionGap: defaultSessionGap,
	}
}

// SetSessionGap overrides the snapshot gap used to split a club's history
// into sessions. Values <= 0 keep the default.
func (s *BackfillService) SetSessionGap(gap time.Duration) {
	if gap > 0 {
		s.sessionGap = gap
	}
}

// SetDefaultWorkers sets the pool size used when a run does not ask for a
// specific worker count. Values <= 0 keep the default.
func (s *BackfillService) SetDefaultWorkers(workers int) {
	if workers > 0 {
		s.defaultWorkers = workers
	}
}

func (s *BackfillService) Run(ctx context.Context, input BackfillInput) (BackfillResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.BackfillService.Run")
	defer span.End()

	if len(input.ClubIDs) == 0 {
		return BackfillResult{}, fmt.Errorf("%w: at least one club id is required", ErrInvalidInput)
	}
	if s.matches == nil || s.stats == nil {
		return BackfillResult{}, fmt.Errorf("%w: backfill dependencies are not configured", ErrDependencyUnavailable)
	}

	requestedWorkers := input.MaxWorkers
	if requestedWorkers <= 0 {
		requestedWorkers = s.defaultWorkers
	}
	workerCount := normalizeBackfillWorkerCount(requestedWorkers, len(input.ClubIDs))
	result := BackfillResult{
		ClubCount:   len(input.ClubIDs),
		WorkerCount: workerCount,
		Clubs:       make([]BackfillClubResult, 0, len(input.ClubIDs)),
	}

	results := make(chan BackfillClubResult, len(input.ClubIDs))

	var successCount atomic.Int32
	var skippedCount atomic.Int32
	var failedCount atomic.Int32

	pool, err := ants.NewPool(workerCount)
	if err != nil {
		return BackfillResult{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	var workers sync.WaitGroup
	for _, clubID := range input.ClubIDs {
		clubID := clubID
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			start := time.Now()
			row := BackfillClubResult{ClubID: clubID}

			sessions, status, message := s.backfillClub(ctx, clubID, input)
			row.Sessions = sessions
			row.Status = status
			row.Message = message
			row.DurationMs = time.Since(start).Milliseconds()

			switch status {
			case backfillStatusSuccess:
				successCount.Add(1)
			case backfillStatusSkipped:
				skippedCount.Add(1)
			default:
				failedCount.Add(1)
			}

			results <- row
		}); err != nil {
			workers.Done()
			return BackfillResult{}, fmt.Errorf("submit club to worker pool: %w", err)
		}
	}

	workers.Wait()
	close(results)

	for row := range results {
		result.Clubs = append(result.Clubs, row)
	}
	sort.SliceStable(result.Clubs, func(i, j int) bool {
		return result.Clubs[i].ClubID < result.Clubs[j].ClubID
	})

	result.SuccessCount = int(successCount.Load())
	result.SkippedCount = int(skippedCount.Load())
	result.FailedCount = int(failedCount.Load())
	return result, nil
}

func (s *BackfillService) backfillClub(ctx context.Context, clubID string, input BackfillInput) (int, string, string) {
	matches, err := s.matches.ListClubMatches(ctx, clubID, input.MatchType)
	if err != nil {
		return 0, backfillStatusFailed, err.Error()
	}
	if len(matches) == 0 {
		return 0, backfillStatusSkipped, "no matches in feed"
	}

	sessions := groupSessions(matches, s.sessionGap)
	applied := 0
	for _, session := range sessions {
		combined := eamatch.Combine(session)
		if combined == nil {
			continue
		}
		if err := s.stats.ApplyCombinedMatch(ctx, combined); err != nil {
			return applied, backfillStatusFailed, err.Error()
		}
		applied++

		if input.PublishRecaps && s.recaps != nil {
			if err := s.recaps.PublishRecap(ctx, combined); err != nil {
				// Stats already landed, a missed recap is not worth failing
				// the club for.
				s.logger.WarnContext(ctx, "publish backfill recap failed", "club_id", clubID, "match_id", combined.ID(), "error", err)
			}
		}
	}

	if applied == 0 {
		return 0, backfillStatusSkipped, "no combinable sessions"
	}
	return applied, backfillStatusSuccess, ""
}

// groupSessions splits a feed of snapshots into game sessions. Snapshots are
// ordered newest first; a gap larger than maxGap starts a new session.
func groupSessions(matches []eamatch.Match, maxGap time.Duration) [][]eamatch.Match {
	if len(matches) == 0 {
		return nil
	}

	sorted := append([]eamatch.Match(nil), matches...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp() > sorted[j].Timestamp()
	})

	gap := maxGap.Seconds()
	sessions := make([][]eamatch.Match, 0, len(sorted))
	current := []eamatch.Match{sorted[0]}
	for i := 1; i < len(sorted); i++ {
		prev := sorted[i-1].Timestamp()
		cur := sorted[i].Timestamp()
		if prev-cur > gap {
			sessions = append(sessions, current)
			current = []eamatch.Match{sorted[i]}
			continue
		}
		current = append(current, sorted[i])
	}
	sessions = append(sessions, current)
	return sessions
}

func normalizeBackfillWorkerCount(requested, taskCount int) int {
	if requested < 1 {
		requested = 4
	}
	if requested > taskCount {
		requested = taskCount
	}
	if requested < 1 {
		requested = 1
	}
	return requested
}
