package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"gossipgraph/backend/internal/config"
	"gossipgraph/backend/internal/feed"
	"gossipgraph/backend/internal/metrics"

	"github.com/gin-gonic/gin"
)

// GetGraphFeed godoc
// @Summary      Poll the social graph feed
// @Description  Returns the graph state relevant to the caller. With a cursor (query param or If-None-Match) and no change, responds 304. With wait=true the request blocks, rechecking on a short cadence, until something changes or the timeout elapses. With since, only rows written after that time are returned and tombstoned edges carry deleted=true.
// @Tags         feed
// @Produce      json
// @Security     BearerAuth
// @Param        cursor  query  string  false  "Last known cursor token (opaque, equality-only)"
// @Param        since   query  int     false  "Unix milliseconds; request a delta instead of a snapshot"
// @Param        wait    query  bool    false  "Long-poll until the cursor changes"
// @Param        timeout query  int     false  "Max seconds to wait (capped at 60)"
// @Success      200  {object}  feed.Update
// @Success      304  {string}  string "Nothing changed"
// @Failure      401  {object}  ErrorResponse
// @Router       /graph/feed [get]
func GetGraphFeed(c *gin.Context) {
	viewerID, _ := c.Get("userID")
	userID := viewerID.(uint)

	known := c.Query("cursor")
	if known == "" {
		known = strings.Trim(c.GetHeader("If-None-Match"), `"`)
	}

	cursor, err := feed.Default.ComputeCursor(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute cursor"})
		return
	}

	if known != "" && cursor == known {
		wait, _ := strconv.ParseBool(c.DefaultQuery("wait", "false"))
		if !wait {
			metrics.FeedRequests.WithLabelValues("not_modified").Inc()
			c.Status(http.StatusNotModified)
			return
		}

		maxWait := time.Duration(config.AppConfig.FeedMaxWaitSeconds) * time.Second
		if t, err := strconv.Atoi(c.Query("timeout")); err == nil && t > 0 {
			maxWait = time.Duration(t) * time.Second
		}
		if maxWait > time.Minute {
			maxWait = time.Minute
		}

		var changed bool
		cursor, changed, err = feed.Default.AwaitChange(c.Request.Context(), userID, known, maxWait)
		if err != nil {
			// Client went away mid-wait; nothing left to answer.
			metrics.FeedRequests.WithLabelValues("cancelled").Inc()
			c.Abort()
			return
		}
		if !changed {
			metrics.FeedRequests.WithLabelValues("timeout").Inc()
			c.Status(http.StatusNotModified)
			return
		}
	}

	var update *feed.Update
	outcome := "snapshot"
	if sinceStr := c.Query("since"); sinceStr != "" {
		ms, err := strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid since parameter"})
			return
		}
		update, err = feed.Default.Delta(userID, time.UnixMilli(ms))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch delta"})
			return
		}
		outcome = "delta"
	} else {
		update, err = feed.Default.Snapshot(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch snapshot"})
			return
		}
	}

	metrics.FeedRequests.WithLabelValues(outcome).Inc()
	c.Header("ETag", `"`+update.Cursor+`"`)
	c.Header("Cache-Control", "no-cache, must-revalidate")
	c.JSON(http.StatusOK, update)
}
