package httpapi

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"

	"github.com/chelhq/chel-stats/internal/domain/clubstats"
	"github.com/chelhq/chel-stats/internal/domain/eamatch"
	"github.com/chelhq/chel-stats/internal/domain/playerstats"
	"github.com/chelhq/chel-stats/internal/usecase"
)

type Handler struct {
	matchService    *usecase.MatchService
	statsService    *usecase.StatsService
	recapService    *usecase.RecapService
	backfillService *usecase.BackfillService
	logger          *slog.Logger
	validator       *validator.Validate
}

func NewHandler(
	matchService *usecase.MatchService,
	statsService *usecase.StatsService,
	recapService *usecase.RecapService,
	backfillService *usecase.BackfillService,
	logger *slog.Logger,
) *Handler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		matchService:    matchService,
		statsService:    statsService,
		recapService:    recapService,
		backfillService: backfillService,
		logger:          logger,
		validator:       validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListClubMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubMatches")
	defer span.End()

	clubID := r.PathValue("clubID")
	matchType := r.URL.Query().Get("matchType")
	if r.URL.Query().Get("refresh") == "true" {
		h.matchService.InvalidateClub(ctx, clubID)
	}

	matches, err := h.matchService.ListClubMatches(ctx, clubID, matchType)
	if err != nil {
		h.logger.WarnContext(ctx, "list club matches failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]map[string]any, 0, len(matches))
	for _, m := range matches {
		items = append(items, map[string]any(m))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type combineRequestDTO struct {
	MatchIDs     []string `json:"matchIds" validate:"omitempty,dive,required"`
	Persist      bool     `json:"persist"`
	PublishRecap bool     `json:"publishRecap"`
}

// CombineClubMatches folds the requested snapshots (all of the club's feed
// when no IDs are given) into one combined match, optionally persisting season
// stats and publishing a recap.
func (h *Handler) CombineClubMatches(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CombineClubMatches")
	defer span.End()

	clubID := r.PathValue("clubID")

	var payload combineRequestDTO
	if r.Body != nil && r.ContentLength != 0 {
		decoder := sonic.ConfigDefault.NewDecoder(r.Body)
		if err := decoder.Decode(&payload); err != nil {
			writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
			return
		}
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	combined, err := h.matchService.CombineSession(ctx, clubID, payload.MatchIDs)
	if err != nil {
		h.logger.WarnContext(ctx, "combine session failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	if payload.Persist {
		if err := h.statsService.ApplyCombinedMatch(ctx, combined); err != nil {
			h.logger.ErrorContext(ctx, "persist combined match failed", "club_id", clubID, "match_id", combined.ID(), "error", err)
			writeError(ctx, w, err)
			return
		}
	}
	if payload.PublishRecap {
		if err := h.recapService.PublishRecap(ctx, combined); err != nil {
			h.logger.ErrorContext(ctx, "publish recap failed", "club_id", clubID, "match_id", combined.ID(), "error", err)
			writeError(ctx, w, err)
			return
		}
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]any(combined))
}

func (h *Handler) GetClubStats(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetClubStats")
	defer span.End()

	clubID := r.PathValue("clubID")
	stats, err := h.statsService.GetClubSeasonStats(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "get club stats failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, clubSeasonStatsToDTO(stats))
}

func (h *Handler) ListClubPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListClubPlayers")
	defer span.End()

	clubID := r.PathValue("clubID")
	players, err := h.statsService.ListClubPlayers(ctx, clubID)
	if err != nil {
		h.logger.WarnContext(ctx, "list club players failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]playerSeasonStatsDTO, 0, len(players))
	for _, p := range players {
		items = append(items, playerSeasonStatsToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

// ListArchivedClubPlayers serves the player records replayed out of the raw
// payload archive, uncombined and one entry per archived appearance.
func (h *Handler) ListArchivedClubPlayers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListArchivedClubPlayers")
	defer span.End()

	clubID := r.PathValue("clubID")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(ctx, w, fmt.Errorf("%w: limit must be a positive integer", usecase.ErrInvalidInput))
			return
		}
		limit = parsed
	}

	players, err := h.matchService.ListArchivedClubPlayers(ctx, clubID, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "list archived club players failed", "club_id", clubID, "error", err)
		writeError(ctx, w, err)
		return
	}

	items := make([]archivedPlayerDTO, 0, len(players))
	for _, p := range players {
		items = append(items, archivedPlayerToDTO(p))
	}

	writeSuccess(ctx, w, http.StatusOK, items)
}

type backfillRequestDTO struct {
	ClubIDs       []string `json:"clubIds" validate:"required,min=1,dive,required"`
	MatchType     string   `json:"matchType"`
	MaxWorkers    int      `json:"maxWorkers" validate:"omitempty,min=1,max=32"`
	PublishRecaps bool     `json:"publishRecaps"`
}

func (h *Handler) RunBackfillJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunBackfillJob")
	defer span.End()

	var payload backfillRequestDTO
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	if err := decoder.Decode(&payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: decode request body: %v", usecase.ErrInvalidInput, err))
		return
	}
	if err := h.validator.StructCtx(ctx, payload); err != nil {
		writeError(ctx, w, fmt.Errorf("%w: %v", usecase.ErrInvalidInput, err))
		return
	}

	result, err := h.backfillService.Run(ctx, usecase.BackfillInput{
		ClubIDs:       payload.ClubIDs,
		MatchType:     payload.MatchType,
		MaxWorkers:    payload.MaxWorkers,
		PublishRecaps: payload.PublishRecaps,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "backfill job failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, backfillResultToDTO(result))
}

type clubSeasonStatsDTO struct {
	ClubID                 string    `json:"clubId"`
	ClubName               string    `json:"clubName,omitempty"`
	GamesPlayed            int       `json:"gamesPlayed"`
	Goals                  int       `json:"goals"`
	GoalsAgainst           int       `json:"goalsAgainst"`
	Shots                  int       `json:"shots"`
	PowerPlayGoals         int       `json:"powerPlayGoals"`
	PowerPlayOpportunities int       `json:"powerPlayOpportunities"`
	PassAttempts           int       `json:"passAttempts"`
	PassCompletions        int       `json:"passCompletions"`
	TimeOfAttackSeconds    int       `json:"timeOfAttackSeconds"`
	UpdatedAt              time.Time `json:"updatedAt"`
}

func clubSeasonStatsToDTO(stats clubstats.SeasonStats) clubSeasonStatsDTO {
	return clubSeasonStatsDTO{
		ClubID:                 stats.ClubID,
		ClubName:               stats.ClubName,
		GamesPlayed:            stats.GamesPlayed,
		Goals:                  stats.Goals,
		GoalsAgainst:           stats.GoalsAgainst,
		Shots:                  stats.Shots,
		PowerPlayGoals:         stats.PowerPlayGoals,
		PowerPlayOpportunities: stats.PowerPlayOpportunities,
		PassAttempts:           stats.PassAttempts,
		PassCompletions:        stats.PassCompletions,
		TimeOfAttackSeconds:    stats.TimeOfAttackSeconds,
		UpdatedAt:              stats.UpdatedAt,
	}
}

type playerSeasonStatsDTO struct {
	ClubID      string  `json:"clubId"`
	PlayerID    string  `json:"playerId"`
	Persona     string  `json:"persona"`
	Position    string  `json:"position"`
	Category    string  `json:"category"`
	GamesPlayed int     `json:"gamesPlayed"`
	Goals       int     `json:"goals"`
	Assists     int     `json:"assists"`
	Points      int     `json:"points"`
	Shots       int     `json:"shots"`
	ShotPct     float64 `json:"shotPct"`
	Hits        int     `json:"hits"`
	PIM         int     `json:"pim"`
	PlusMinus   int     `json:"plusMinus"`
	Blocks      int     `json:"blocks"`
	Takeaways   int     `json:"takeaways"`
	Giveaways   int     `json:"giveaways"`
	TOISeconds  int     `json:"toiSeconds"`
	Saves       int     `json:"saves"`
	SavePct     float64 `json:"savePct"`
	Shutouts    int     `json:"shutouts"`
}

func playerSeasonStatsToDTO(stats playerstats.SeasonStats) playerSeasonStatsDTO {
	return playerSeasonStatsDTO{
		ClubID:      stats.ClubID,
		PlayerID:    stats.PlayerID,
		Persona:     stats.Persona,
		Position:    stats.Position,
		Category:    stats.Category,
		GamesPlayed: stats.GamesPlayed,
		Goals:       stats.Goals,
		Assists:     stats.Assists,
		Points:      stats.Points(),
		Shots:       stats.Shots,
		ShotPct:     stats.ShotPct(),
		Hits:        stats.Hits,
		PIM:         stats.PIM,
		PlusMinus:   stats.PlusMinus,
		Blocks:      stats.Blocks,
		Takeaways:   stats.Takeaways,
		Giveaways:   stats.Giveaways,
		TOISeconds:  stats.TOISeconds,
		Saves:       stats.Saves,
		SavePct:     stats.SavePct(),
		Shutouts:    stats.Shutouts,
	}
}

type archivedPlayerDTO struct {
	PlayerID     string `json:"playerId"`
	Persona      string `json:"persona"`
	Position     string `json:"position"`
	Category     string `json:"category"`
	TeamSide     string `json:"teamSide,omitempty"`
	Goals        int    `json:"goals"`
	Assists      int    `json:"assists"`
	Shots        int    `json:"shots"`
	Saves        int    `json:"saves"`
	ShotsAgainst int    `json:"shotsAgainst"`
	GoalsAgainst int    `json:"goalsAgainst"`
}

func archivedPlayerToDTO(player eamatch.NormalizedPlayer) archivedPlayerDTO {
	return archivedPlayerDTO{
		PlayerID:     player.PlayerID,
		Persona:      player.Persona,
		Position:     player.Position,
		Category:     player.Category,
		TeamSide:     player.TeamSide,
		Goals:        player.Goals,
		Assists:      player.Assists,
		Shots:        player.Shots,
		Saves:        player.Saves,
		ShotsAgainst: player.ShotsAgainst,
		GoalsAgainst: player.GoalsAgainst,
	}
}

type backfillClubResultDTO struct {
	ClubID     string `json:"clubId"`
	Status     string `json:"status"`
	Sessions   int    `json:"sessions"`
	Message    string `json:"message,omitempty"`
	DurationMs int64  `json:"durationMs"`
}

type backfillResultDTO struct {
	ClubCount    int                     `json:"clubCount"`
	WorkerCount  int                     `json:"workerCount"`
	SuccessCount int                     `json:"successCount"`
	SkippedCount int                     `json:"skippedCount"`
	FailedCount  int                     `json:"failedCount"`
	Clubs        []backfillClubResultDTO `json:"clubs"`
}

func backfillResultToDTO(result usecase.BackfillResult) backfillResultDTO {
	clubs := make([]backfillClubResultDTO, 0, len(result.Clubs))
	for _, row := range result.Clubs {
		clubs = append(clubs, backfillClubResultDTO{
			ClubID:     row.ClubID,
			Status:     row.Status,
			Sessions:   row.Sessions,
			Message:    row.Message,
			DurationMs: row.DurationMs,
		})
	}

	return backfillResultDTO{
		ClubCount:    result.ClubCount,
		WorkerCount:  result.WorkerCount,
		SuccessCount: result.SuccessCount,
		SkippedCount: result.SkippedCount,
		FailedCount:  result.FailedCount,
		Clubs:        clubs,
	}
}
