package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/yeremiapane/food-store/middlewares"
	"github.com/yeremiapane/food-store/services"
	"github.com/yeremiapane/food-store/utils"
)

// respondServiceError maps service errors onto HTTP statuses.
func respondServiceError(c *gin.Context, err error) {
	var ve *services.ValidationError
	switch {
	case errors.As(err, &ve):
		utils.RespondErrorData(c, http.StatusBadRequest, err, ve.Fields)
	case errors.Is(err, services.ErrNotFound):
		utils.RespondError(c, http.StatusNotFound, err)
	case errors.Is(err, services.ErrForbidden):
		utils.RespondError(c, http.StatusForbidden, err)
	case errors.Is(err, services.ErrConflict):
		utils.RespondError(c, http.StatusConflict, err)
	case errors.Is(err, services.ErrAuthenticationRequired):
		utils.RespondError(c, http.StatusUnauthorized, err)
	default:
		utils.ErrorLogger.WithField("path", c.FullPath()).Errorf("Unhandled error: %v", err)
		_ = c.Error(err)
		utils.RespondError(c, http.StatusInternalServerError, errors.New("internal server error"))
	}
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(middlewares.ContextUserID)
	if !exists {
		utils.RespondError(c, http.StatusUnauthorized, services.ErrAuthenticationRequired)
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	if !ok || id == uuid.Nil {
		utils.RespondError(c, http.StatusUnauthorized, services.ErrAuthenticationRequired)
		return uuid.Nil, false
	}
	return id, true
}

// uuidParam parses a path parameter, answering 400 itself when it is malformed.
func uuidParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.RespondErrorData(c, http.StatusBadRequest, fmt.Errorf("invalid %s", name), gin.H{name: "must be a UUID"})
		return uuid.Nil, false
	}
	return id, true
}

func bindError(c *gin.Context, err error) {
	utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
}
