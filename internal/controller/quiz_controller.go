package controller

import (
	"strconv"

	"weekly_trivia_backend/internal/service"
	"weekly_trivia_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService *service.QuizService
}

func NewQuizController(quizService *service.QuizService) *QuizController {
	return &QuizController{QuizService: quizService}
}

func uintParam(ctx *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(ctx.Param(name), 10, 32)
	if err != nil {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return uint(v), true
}

// CreateQuiz installs a quiz for a week, with its questions, and arms the
// close job. Admin only.
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	var req service.CreateQuizRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": quiz.ID, "weekStartDate": quiz.WeekStartDate})
}

func (c *QuizController) AddQuestion(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	var req service.QuestionInput
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(quizID, req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Created(ctx, gin.H{"id": question.ID, "order": question.OrderNo})
}

func (c *QuizController) EditQuestion(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	questionID, ok := uintParam(ctx, "questionId")
	if !ok {
		return
	}

	var req service.EditQuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.EditQuestion(quizID, questionID, req)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"id": question.ID})
}

func (c *QuizController) DeleteQuestion(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	questionID, ok := uintParam(ctx, "questionId")
	if !ok {
		return
	}

	if err := c.QuizService.DeleteQuestion(quizID, questionID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"deleted": true})
}

func (c *QuizController) PublishQuiz(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	if err := c.QuizService.PublishQuiz(quizID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"published": true})
}

// FinishQuiz closes a quiz ahead of schedule and resets join statuses
// immediately.
func (c *QuizController) FinishQuiz(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	if err := c.QuizService.FinishQuiz(quizID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"finished": true})
}

func (c *QuizController) GetQuizAdmin(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	paper, err := c.QuizService.GetQuizPaperAdmin(quizID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, paper)
}

func (c *QuizController) WarnUser(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	userID, ok := uintParam(ctx, "userId")
	if !ok {
		return
	}

	if err := c.QuizService.WarnUser(userID, quizID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"warned": true})
}

func (c *QuizController) BanUser(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	userID, ok := uintParam(ctx, "userId")
	if !ok {
		return
	}

	if err := c.QuizService.BanUser(userID, quizID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"banned": true})
}

// GetActiveQuiz reports the currently open quiz, if any, with its
// participant count.
func (c *QuizController) GetActiveQuiz(ctx *gin.Context) {
	view, err := c.QuizService.GetActiveQuiz()
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, view)
}

func (c *QuizController) GetQuiz(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	paper, err := c.QuizService.GetQuizPaperPublic(quizID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, paper)
}

func (c *QuizController) GetQuestionByOrder(ctx *gin.Context) {
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}
	orderNo, err := strconv.Atoi(ctx.Param("order"))
	if err != nil {
		util.BadRequest(ctx, "invalid order")
		return
	}

	view, err := c.QuizService.GetQuestionByOrder(quizID, orderNo)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, view)
}

func (c *QuizController) JoinQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	if err := c.QuizService.JoinQuiz(claims.UserID, quizID); err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, gin.H{"joined": true})
}

type SaveAnswerRequest struct {
	QuestionID uint `json:"questionId" binding:"required"`
	OptionID   uint `json:"optionId" binding:"required"`
}

func (c *QuizController) SaveAnswer(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	var req SaveAnswerRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.QuizService.SaveAnswer(claims.UserID, quizID, req.QuestionID, req.OptionID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, result)
}

func (c *QuizController) SubmitQuiz(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	result, err := c.QuizService.SubmitQuiz(claims.UserID, quizID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, result)
}

func (c *QuizController) GetMyAnswers(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}
	quizID, ok := uintParam(ctx, "quizId")
	if !ok {
		return
	}

	view, err := c.QuizService.GetMyAnswers(quizID, claims.UserID)
	if err != nil {
		util.Fail(ctx, err)
		return
	}

	util.Success(ctx, view)
}
