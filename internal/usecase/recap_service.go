package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/platform/logging"
)

// Recap is the human-readable summary of one combined match session.
type Recap struct {
	MatchID       string
	CombinedCount int
	ScoreLine     string
	SkaterLines   []string
	GoalieLines   []string
}

func (r Recap) Text() string {
	var b strings.Builder
	b.WriteString(r.ScoreLine)
	if r.CombinedCount > 1 {
		fmt.Fprintf(&b, " (across %d games)", r.CombinedCount)
	}
	for _, line := range r.SkaterLines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	for _, line := range r.GoalieLines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

// RecapPublisher delivers a recap to wherever the league reads it.
type RecapPublisher interface {
	Publish(ctx context.Context, recap Recap) error
}

type RecapService struct {
	publisher RecapPublisher
	logger    *logging.Logger

	topSkaters int
}

func NewRecapService(publisher RecapPublisher, logger *logging.Logger) *RecapService {
	if logger == nil {
		logger = logging.Default()
	}

	return &RecapService{
		publisher:  publisher,
		logger:     logger,
		topSkaters: 3,
	}
}

// BuildRecap renders a combined match into a score line, the top skaters by
// points and a line per goalie.
func (s *RecapService) BuildRecap(combined eamatch.Match) (Recap, error) {
	if combined == nil {
		return Recap{}, fmt.Errorf("%w: combined match is required", ErrInvalidInput)
	}

	clubIDs := combined.ClubIDs()
	if len(clubIDs) == 0 {
		return Recap{}, fmt.Errorf("%w: combined match has no clubs", ErrInvalidInput)
	}

	recap := Recap{
		MatchID:       combined.ID(),
		CombinedCount: int(eamatch.Record(combined).Num("combinedCount")),
		ScoreLine:     scoreLine(combined, clubIDs),
	}
	if recap.CombinedCount == 0 {
		recap.CombinedCount = 1
	}

	skaters, goalies := rosterSplit(combined, clubIDs)

	sort.SliceStable(skaters, func(i, j int) bool {
		pi, pj := skaters[i].Goals+skaters[i].Assists, skaters[j].Goals+skaters[j].Assists
		if pi != pj {
			return pi > pj
		}
		return skaters[i].Goals > skaters[j].Goals
	})
	limit := s.topSkaters
	if limit > len(skaters) {
		limit = len(skaters)
	}
	for _, p := range skaters[:limit] {
		recap.SkaterLines = append(recap.SkaterLines,
			fmt.Sprintf("%s (%s): %dG %dA, %d shots", p.Persona, p.Position, p.Goals, p.Assists, p.Shots))
	}

	for _, g := range goalies {
		recap.GoalieLines = append(recap.GoalieLines,
			fmt.Sprintf("%s (G): %d/%d saves, %.1f%%", g.Persona, g.Saves, g.ShotsAgainst, g.SavePct))
	}

	return recap, nil
}

// PublishRecap builds and delivers the recap for a combined match.
func (s *RecapService) PublishRecap(ctx context.Context, combined eamatch.Match) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.RecapService.PublishRecap")
	defer span.End()

	if s.publisher == nil {
		return fmt.Errorf("%w: recap publisher is not configured", ErrDependencyUnavailable)
	}

	recap, err := s.BuildRecap(combined)
	if err != nil {
		return err
	}

	if err := s.publisher.Publish(ctx, recap); err != nil {
		return fmt.Errorf("publish recap match=%s: %w", recap.MatchID, err)
	}

	s.logger.InfoContext(ctx, "recap published", "match_id", recap.MatchID, "combined_count", recap.CombinedCount)
	return nil
}

func scoreLine(combined eamatch.Match, clubIDs []string) string {
	clubs := combined.Clubs()
	parts := make([]string, 0, len(clubIDs))
	for _, clubID := range clubIDs {
		club := clubs[clubID]
		name := club.Child("details").Str("name")
		if name == "" {
			name = club.Str("name")
		}
		if name == "" {
			name = clubID
		}
		goals := club.Num("goals")
		if !club.Has("goals") {
			goals = club.Child("details").Num("goals")
		}
		parts = append(parts, fmt.Sprintf("%s %d", name, int(goals)))
	}
	return strings.Join(parts, " - ")
}

func rosterSplit(combined eamatch.Match, clubIDs []string) (skaters, goalies []eamatch.NormalizedPlayer) {
	for _, clubID := range clubIDs {
		for _, rec := range combined.PlayersByClub(clubID) {
			np := eamatch.ResolvePlayer(rec)
			if np.Category == eamatch.CategoryGoalie {
				goalies = append(goalies, np)
				continue
			}
			skaters = append(skaters, np)
		}
	}
	return skaters, goalies
}
