package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/chwoo19999-a11y/my-first-project/models"
	"github.com/chwoo19999-a11y/my-first-project/utils"
)

// respondError maps service errors onto the response envelope.
func respondError(ctx *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		utils.Logger.Error("unexpected error", zap.String("path", ctx.FullPath()), zap.Error(err))
		utils.Error(ctx, http.StatusInternalServerError, 50001, "internal server error")
		return
	}

	switch appErr.Code {
	case models.CodeDuplicateField:
		utils.Error(ctx, http.StatusConflict, 40900, appErr.Message)
	case models.CodeNotFound:
		utils.Error(ctx, http.StatusNotFound, 40400, appErr.Message)
	case models.CodeUnauthorized:
		utils.Error(ctx, http.StatusForbidden, 40300, appErr.Message)
	case models.CodeValidation:
		utils.Error(ctx, http.StatusBadRequest, 40000, appErr.Message)
	case models.CodeStorage:
		utils.Logger.Error("storage failure", zap.String("path", ctx.FullPath()), zap.Error(appErr))
		utils.Error(ctx, http.StatusInternalServerError, 50000, appErr.Message)
	default:
		utils.Error(ctx, http.StatusInternalServerError, 50001, appErr.Message)
	}
}

// intParam parses a positive integer path parameter, writing a 400 on failure.
func intParam(ctx *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(strings.TrimSpace(ctx.Param(name)))
	if err != nil || id <= 0 {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid "+name)
		return 0, false
	}
	return id, true
}
