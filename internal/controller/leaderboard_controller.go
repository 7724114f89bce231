package controller

import (
	"strconv"
	"time"

	"weekly_trivia_backend/internal/service"
	"weekly_trivia_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type LeaderboardController struct {
	LeaderboardService *service.LeaderboardService
}

func NewLeaderboardController(leaderboardService *service.LeaderboardService) *LeaderboardController {
	return &LeaderboardController{LeaderboardService: leaderboardService}
}

func pageParams(ctx *gin.Context) (int, int) {
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(ctx.DefaultQuery("offset", "0"))
	return limit, offset
}

// callerID is zero for anonymous requests; authenticated callers get their
// own row alongside the page.
func callerID(ctx *gin.Context) uint {
	if claims := util.GetUserFromContext(ctx); claims != nil {
		return claims.UserID
	}
	return 0
}

func (c *LeaderboardController) GetQuizLeaderboard(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	limit, offset := pageParams(ctx)

	board, err := c.LeaderboardService.GetQuizLeaderboard(quizID, limit, offset, callerID(ctx))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, board)
}

// GetWeekLeaderboard accepts any date in the target week; it is normalized
// to that week's Monday.
func (c *LeaderboardController) GetWeekLeaderboard(ctx *gin.Context) {
	weekStart, err := time.Parse("2006-01-02", ctx.Query("week"))
	if err != nil {
		util.BadRequest(ctx, "week must be a YYYY-MM-DD date")
		return
	}
	limit, offset := pageParams(ctx)

	board, err := c.LeaderboardService.GetWeekLeaderboard(weekStart, limit, offset, callerID(ctx))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, board)
}

func (c *LeaderboardController) GetAllTimeLeaderboard(ctx *gin.Context) {
	limit, offset := pageParams(ctx)

	board, err := c.LeaderboardService.GetAllTimeLeaderboard(limit, offset, callerID(ctx))
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, board)
}

func (c *LeaderboardController) ListPastQuizzes(ctx *gin.Context) {
	limit, offset := pageParams(ctx)

	list, err := c.LeaderboardService.ListPastQuizzes(callerID(ctx), limit, offset)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, list)
}
