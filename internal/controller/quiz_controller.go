package controller

import (
	"edu_quiz_backend/internal/service"
	"edu_quiz_backend/internal/util"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type QuizController struct {
	Service *service.QuizService
}

func NewQuizController(svc *service.QuizService) *QuizController {
	return &QuizController{Service: svc}
}

// respondError 业务错误到 HTTP 状态码的映射
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrAttemptNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrAlreadySubmitted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrStartConflict):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidAnswer), errors.Is(err, util.ErrInvalidID):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrQuestionGenerationFailed):
		util.BadGateway(ctx, util.ErrQuestionGenerationFailed.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// pathID 路径参数必须是 UUID
func pathID(ctx *gin.Context, name string) (string, bool) {
	id := ctx.Param(name)
	if _, err := uuid.Parse(id); err != nil {
		util.BadRequest(ctx, util.ErrInvalidID.Error())
		return "", false
	}
	return id, true
}

// @Summary 开始或续答测验
// @Description 存在未提交的尝试时返回同一尝试，否则出题并创建新尝试
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.StartResp}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Failure 502 {object} util.Response
// @Router /quiz/{id}/start [get]
func (c *QuizController) Start(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	educationID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.Service.Start(ctx.Request.Context(), educationID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 临时保存作答
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "尝试ID"
// @Param body body service.SaveReq true "作答"
// @Success 200 {object} util.Response{data=service.SaveResp}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz/attempt/{attemptId}/save [post]
func (c *QuizController) Save(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "attemptId")
	if !ok {
		return
	}

	var req service.SaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.Service.SaveDraft(ctx.Request.Context(), attemptID, user.UserID, req.Answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 提交测验
// @Description 未出现在 answers 中的题目按未作答计分
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "尝试ID"
// @Param body body service.SubmitReq true "作答"
// @Success 200 {object} util.Response{data=service.SubmitResp}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz/attempt/{attemptId}/submit [post]
func (c *QuizController) Submit(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "attemptId")
	if !ok {
		return
	}

	var req service.SubmitReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	caller := service.Caller{UserID: user.UserID, Department: user.Department}
	resp, err := c.Service.Submit(ctx.Request.Context(), attemptID, caller, req.Answers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 获取测验结果
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "尝试ID"
// @Success 200 {object} util.Response{data=service.ResultResp}
// @Failure 404 {object} util.Response
// @Router /quiz/attempt/{attemptId}/result [get]
func (c *QuizController) Result(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "attemptId")
	if !ok {
		return
	}

	resp, err := c.Service.Result(ctx.Request.Context(), attemptID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 错题本
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "尝试ID"
// @Success 200 {object} util.Response{data=[]service.WrongNote}
// @Failure 404 {object} util.Response
// @Router /quiz/{id}/wrongs [get]
func (c *QuizController) Wrongs(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	notes, err := c.Service.Wrongs(ctx.Request.Context(), attemptID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, notes)
}

// @Summary 记录离开
// @Tags 测验
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "尝试ID"
// @Param body body service.LeaveReq true "离开事件"
// @Success 200 {object} util.Response{data=service.LeaveResp}
// @Failure 400 {object} util.Response
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz/attempt/{attemptId}/leave [post]
func (c *QuizController) Leave(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "attemptId")
	if !ok {
		return
	}

	var req service.LeaveReq
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	resp, err := c.Service.Leave(ctx.Request.Context(), attemptID, user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 剩余时间
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param attemptId path string true "尝试ID"
// @Success 200 {object} util.Response{data=service.TimerResp}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz/attempt/{attemptId}/timer [get]
func (c *QuizController) Timer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	attemptID, ok := pathID(ctx, "attemptId")
	if !ok {
		return
	}

	resp, err := c.Service.Timer(ctx.Request.Context(), attemptID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// @Summary 我的测验记录
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=[]service.MyAttemptItem}
// @Router /quiz/my-attempts [get]
func (c *QuizController) MyAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	items, err := c.Service.MyAttempts(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, items)
}

// @Summary 重考信息
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path string true "课程ID"
// @Success 200 {object} util.Response{data=service.RetryInfoResp}
// @Failure 400 {object} util.Response
// @Router /quiz/{id}/retry-info [get]
func (c *QuizController) RetryInfo(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	educationID, ok := pathID(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.Service.RetryInfo(ctx.Request.Context(), educationID, user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, resp)
}

// DepartmentStats 部门成绩统计，仅供服务间调用（GET /internal/quiz/department-stats），
// 不出现在 /api 文档中。educationId 为空时统计全部课程
func (c *QuizController) DepartmentStats(ctx *gin.Context) {
	educationID := strings.TrimSpace(ctx.Query("educationId"))
	if educationID != "" {
		if _, err := uuid.Parse(educationID); err != nil {
			util.BadRequest(ctx, util.ErrInvalidID.Error())
			return
		}
	}

	stats, err := c.Service.DepartmentStats(ctx.Request.Context(), educationID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
