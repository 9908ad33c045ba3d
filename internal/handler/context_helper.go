package handler

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/worklane/timesheet-api/internal/dto"
	"github.com/worklane/timesheet-api/internal/middleware"
	"github.com/worklane/timesheet-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryDate(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	parsed, err := time.Parse(dto.DateLayout, raw)
	if err != nil {
		return nil
	}
	return &parsed
}
