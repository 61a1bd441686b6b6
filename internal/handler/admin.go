package handler

import (
	"net/http"
	"strconv"

	"cashrecon/internal/apierror"
	"cashrecon/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// DeadLetters godoc
// @Summary Newest dead-lettered jobs of one queue
// @Tags admin
// @Produce json
// @Param queue query string false "jobs:reconcile | jobs:alert" default(jobs:reconcile)
// @Param limit query int false "max entries" default(20)
// @Success 200 {array} worker.DLQEntry
// @Security BearerAuth
// @Router /v1/admin/dlq [get]
func DeadLetters(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		queue := c.DefaultQuery("queue", worker.QueueReconcile)
		if queue != worker.QueueReconcile && queue != worker.QueueAlert {
			c.JSON(http.StatusBadRequest, apierror.New("Unknown queue"))
			return
		}
		limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

		entries, err := worker.PeekDLQ(c.Request.Context(), rdb, queue, limit)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, entries)
	}
}
