package controller

import (
	"errors"
	"net/http"
	"strconv"

	"ctchen222/DrawSync/internal/api/response"
	"ctchen222/DrawSync/internal/api/service"

	"github.com/gin-gonic/gin"
)

// StatsController serves player statistics and the leaderboard.
type StatsController struct {
	statsService service.StatsService
}

func NewStatsController(statsService service.StatsService) *StatsController {
	return &StatsController{statsService: statsService}
}

// GetStats handles GET /api/users/:id/stats.
func (sc *StatsController) GetStats(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.ErrorResponse(c, http.StatusBadRequest, "invalid user id")
		return
	}

	stats, err := sc.statsService.GetStats(c.Request.Context(), id)
	if errors.Is(err, service.ErrUserNotFound) {
		response.ErrorResponse(c, http.StatusNotFound, err.Error())
		return
	}
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load stats")
		return
	}
	response.SuccessResponse(c, stats)
}

// Leaderboard handles GET /api/leaderboard?limit=N.
func (sc *StatsController) Leaderboard(c *gin.Context) {
	limit := service.DefaultLeaderboardSize
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			response.ErrorResponse(c, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := sc.statsService.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		response.ErrorResponse(c, http.StatusInternalServerError, "failed to load leaderboard")
		return
	}
	response.SuccessResponse(c, gin.H{"list": entries})
}
