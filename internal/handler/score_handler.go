package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/drivescore/internal/model"
)

// ScoreServiceInterface はスコアハンドラーが必要とするサービスインターフェース。
type ScoreServiceInterface interface {
	ComputeScore(ctx context.Context, tripID string) (*model.DriverScore, error)
	LatestScore(ctx context.Context, tripID string) (*model.DriverScore, error)
}

// ScoreHandler はドライバースコアのHTTPハンドラー。
type ScoreHandler struct {
	service ScoreServiceInterface
}

// NewScoreHandler はScoreHandlerを生成する。
func NewScoreHandler(service ScoreServiceInterface) *ScoreHandler {
	return &ScoreHandler{service: service}
}

type scoreResponse struct {
	Score      int    `json:"score"`
	RiskLevel  string `json:"risk_level"`
	Suggestion string `json:"suggestion"`
}

type storedScoreResponse struct {
	TripID string `json:"trip_id"`
	scoreResponse
	UpdatedAt time.Time `json:"updated_at"`
}

// ComputeScore はトリップのスコアを再計算して返す。
// GET /driver/score/{tripID}
func (h *ScoreHandler) ComputeScore(w http.ResponseWriter, r *http.Request) {
	score, err := h.service.ComputeScore(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toScoreResponse(score))
}

// LatestScore は保存済みのスコアを再計算せずに返す。
// GET /driver/score/{tripID}/latest
func (h *ScoreHandler) LatestScore(w http.ResponseWriter, r *http.Request) {
	score, err := h.service.LatestScore(r.Context(), chi.URLParam(r, "tripID"))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, storedScoreResponse{
		TripID:        score.TripID,
		scoreResponse: toScoreResponse(score),
		UpdatedAt:     score.UpdatedAt,
	})
}

func toScoreResponse(s *model.DriverScore) scoreResponse {
	return scoreResponse{
		Score:      s.TotalScore,
		RiskLevel:  string(s.RiskLevel),
		Suggestion: s.Suggestion,
	}
}
