package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var serviceStartedAt = time.Now()

// HealthCheck обработчик для проверки работоспособности сервиса
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "OK",
		"service": "billing-backend",
		"uptime":  time.Since(serviceStartedAt).Round(time.Second).String(),
		"time":    time.Now().Format(time.RFC3339),
	})
}
