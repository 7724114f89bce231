package app

import (
	"weekly_trivia_backend/internal/config"
	"weekly_trivia_backend/internal/middleware"
	"weekly_trivia_backend/internal/model"
	"weekly_trivia_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers, cfg *config.Config) {
	router.GET("/metrics", monitoring.PrometheusHandler())

	api := router.Group("/api")

	// public
	api.GET("/health", c.health.HealthCheck)
	api.POST("/register", c.auth.Register)
	api.POST("/login", c.auth.Login)
	api.POST("/token/refresh", c.auth.Refresh)
	api.POST("/logout", c.auth.Logout)

	// leaderboards allow guests; a logged-in caller also gets their own row
	boards := api.Group("/leaderboard")
	boards.Use(middleware.TryAuthMiddleware(cfg))
	{
		boards.GET("/quiz/:quizId", c.leaderboard.GetQuizLeaderboard)
		boards.GET("/week", c.leaderboard.GetWeekLeaderboard)
		boards.GET("/all-time", c.leaderboard.GetAllTimeLeaderboard)
	}
	api.GET("/quizzes/past", middleware.TryAuthMiddleware(cfg), c.leaderboard.ListPastQuizzes)

	// player
	authed := api.Group("")
	authed.Use(middleware.AuthMiddleware(cfg))
	{
		authed.GET("/profile", c.auth.Profile)
		authed.POST("/password", c.auth.ChangePassword)

		authed.GET("/quiz/active", c.quiz.GetActiveQuiz)
		authed.GET("/quiz/:quizId", c.quiz.GetQuiz)
		authed.GET("/quiz/:quizId/questions/:order", c.quiz.GetQuestionByOrder)
		authed.POST("/quiz/:quizId/join", c.quiz.JoinQuiz)
		authed.POST("/quiz/:quizId/answers", c.quiz.SaveAnswer)
		authed.POST("/quiz/:quizId/submit", c.quiz.SubmitQuiz)
		authed.GET("/quiz/:quizId/my-answers", c.quiz.GetMyAnswers)
	}

	// admin
	admin := api.Group("/admin")
	admin.Use(middleware.AuthMiddleware(cfg), middleware.RoleMiddleware(model.RoleAdmin))
	{
		admin.POST("/quizzes", c.quiz.CreateQuiz)
		admin.GET("/quizzes/:quizId", c.quiz.GetQuizAdmin)
		admin.POST("/quizzes/:quizId/questions", c.quiz.AddQuestion)
		admin.PUT("/quizzes/:quizId/questions/:questionId", c.quiz.EditQuestion)
		admin.DELETE("/quizzes/:quizId/questions/:questionId", c.quiz.DeleteQuestion)
		admin.POST("/quizzes/:quizId/publish", c.quiz.PublishQuiz)
		admin.POST("/quizzes/:quizId/finish", c.quiz.FinishQuiz)
		admin.POST("/quizzes/:quizId/users/:userId/warn", c.quiz.WarnUser)
		admin.POST("/quizzes/:quizId/users/:userId/ban", c.quiz.BanUser)
	}
}
