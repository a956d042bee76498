package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yanqian/dupcheck/internal/domain/dedup"
)

// Handler wires the HTTP transport to the dedup service.
type Handler struct {
	svc    dedup.Service
	logger *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(svc dedup.Service, logger *slog.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger.With("component", "http.handler"),
	}
}

// Predict scores one question pair. It accepts JSON bodies and HTML form posts.
func (h *Handler) Predict(c *gin.Context) {
	var req dedup.Request
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	resp, err := h.svc.Predict(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "prediction_failed"))
		return
	}
	h.logger.Debug("prediction served", "client", requestClient(c), "source", resp.Source, "probability", resp.Probability)
	c.JSON(http.StatusOK, resp)
}

// PredictBatch scores several pairs in one call, preserving order.
func (h *Handler) PredictBatch(c *gin.Context) {
	var req dedup.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	results, err := h.svc.PredictBatch(c.Request.Context(), req.Pairs)
	if err != nil {
		abortWithError(c, fromDomainError(err, "prediction_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Features returns the normalized pair and its feature vector.
func (h *Handler) Features(c *gin.Context) {
	var req dedup.Request
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	resp, err := h.svc.Analyze(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, fromDomainError(err, "analysis_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

type normalizeRequest struct {
	Text string `json:"text" form:"text"`
}

// Normalize shows every normalization step for one text.
func (h *Handler) Normalize(c *gin.Context) {
	var req normalizeRequest
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}

	resp, err := h.svc.Normalize(c.Request.Context(), req.Text)
	if err != nil {
		abortWithError(c, fromDomainError(err, "normalize_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// History lists the most recent predictions.
func (h *Handler) History(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	records, err := h.svc.History(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "history_failed"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"predictions": records})
}

// Similar finds past predictions whose features resemble the posted pair.
func (h *Handler) Similar(c *gin.Context) {
	limit, ok := parseLimit(c)
	if !ok {
		return
	}
	var req dedup.Request
	if err := c.ShouldBind(&req); err != nil {
		abortWithError(c, badRequest(err))
		return
	}
	resp, err := h.svc.Similar(c.Request.Context(), req, limit)
	if err != nil {
		abortWithError(c, fromDomainError(err, "history_failed"))
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Health reports liveness and whether a model is loaded.
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "ok",
		"modelLoaded": h.svc.Ready(),
	})
}

func parseLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer", err))
		return 0, false
	}
	return limit, true
}
