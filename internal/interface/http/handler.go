package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/openrx/admatch/internal/domain/ads"
	"github.com/openrx/admatch/internal/domain/auth"
	"github.com/openrx/admatch/internal/domain/catalog"
	"github.com/openrx/admatch/internal/domain/chat"
	"github.com/openrx/admatch/internal/domain/stats"
	apperrors "github.com/openrx/admatch/pkg/errors"
)

// Handler wires the HTTP transport to domain services.
type Handler struct {
	adsSvc     ads.Service
	chatSvc    chat.Service
	catalogSvc catalog.Service
	statsSvc   stats.Service
	authSvc    auth.Service
	logger     *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(adsSvc ads.Service, chatSvc chat.Service, catalogSvc catalog.Service, statsSvc stats.Service, authSvc auth.Service, logger *slog.Logger) *Handler {
	return &Handler{
		adsSvc:     adsSvc,
		chatSvc:    chatSvc,
		catalogSvc: catalogSvc,
		statsSvc:   statsSvc,
		authSvc:    authSvc,
		logger:     logger.With("component", "http.handler"),
	}
}

// MatchAd runs the ad pipeline for one physician question.
func (h *Handler) MatchAd(c *gin.Context) {
	var req ads.MatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	resp, err := h.adsSvc.Match(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "match_failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// RecordImpression accepts the billable event fired when an ad is rendered.
func (h *Handler) RecordImpression(c *gin.Context) {
	var req ads.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.adsSvc.RecordImpression(c.Request.Context(), req); err != nil {
		abortWithDomainError(c, "impression_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// RecordClick accepts the billable event fired on click-through.
func (h *Handler) RecordClick(c *gin.Context) {
	var req ads.EventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	if err := h.adsSvc.RecordClick(c.Request.Context(), req); err != nil {
		abortWithDomainError(c, "click_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "recorded"})
}

// Chat answers a physician question synchronously.
func (h *Handler) Chat(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.chatSvc.Answer(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "chat_failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ChatStream streams the answer using Server-Sent Events.
func (h *Handler) ChatStream(c *gin.Context) {
	var req chat.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	stream, err := h.chatSvc.StreamAnswer(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "chat_failed", err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusInternalServerError, "stream_unsupported", "streaming not supported", nil))
		return
	}

	for chunk := range stream {
		payload, err := json.Marshal(chunk)
		if err != nil {
			h.logger.Error("marshal chunk failed", "error", err)
			continue
		}
		c.Writer.Write([]byte("data: "))
		c.Writer.Write(payload)
		c.Writer.Write([]byte("\n\n"))
		flusher.Flush()
	}
}

// Register creates an advertiser account.
func (h *Handler) Register(c *gin.Context) {
	var req auth.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	view, err := h.authSvc.Register(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "register_failed", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// Login issues access and refresh tokens.
func (h *Handler) Login(c *gin.Context) {
	var req auth.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Login(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "login_failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Refresh exchanges a refresh token for fresh tokens.
func (h *Handler) Refresh(c *gin.Context) {
	var req auth.RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.authSvc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		abortWithDomainError(c, "refresh_failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListCategories returns every category with its rollups.
func (h *Handler) ListCategories(c *gin.Context) {
	rng, err := parseDateRange(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	overview, err := h.statsSvc.CategoryOverview(c.Request.Context(), rng)
	if err != nil {
		abortWithDomainError(c, "stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// CreateBid associates a campaign with a category, creating the category on
// first use.
func (h *Handler) CreateBid(c *gin.Context) {
	var req catalog.CreateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.catalogSvc.CreateBid(c.Request.Context(), req)
	if err != nil {
		abortWithDomainError(c, "create_bid_failed", err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// UpdateBid adjusts an existing (campaign, category) association.
func (h *Handler) UpdateBid(c *gin.Context) {
	categoryID, err := pathID(c, "categoryId")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	campaignID, err := pathID(c, "campaignId")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	var req catalog.UpdateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}
	resp, err := h.catalogSvc.UpdateBid(c.Request.Context(), campaignID, categoryID, req)
	if err != nil {
		abortWithDomainError(c, "update_bid_failed", err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListCampaigns lists the authenticated advertiser's campaigns.
func (h *Handler) ListCampaigns(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	campaigns, err := h.catalogSvc.ListCampaigns(c.Request.Context(), claims.CompanyID)
	if err != nil {
		abortWithDomainError(c, "list_campaigns_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"campaigns": campaigns})
}

// CampaignStats returns the dashboard payload for one campaign.
func (h *Handler) CampaignStats(c *gin.Context) {
	campaignID, err := pathID(c, "id")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	report, err := h.statsSvc.CampaignReport(c.Request.Context(), campaignID, rng)
	if err != nil {
		abortWithDomainError(c, "stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// CompanyStats returns the dashboard payload for the authenticated advertiser.
func (h *Handler) CompanyStats(c *gin.Context) {
	claims, ok := claimsFromContext(c)
	if !ok {
		abortWithError(c, NewHTTPError(http.StatusUnauthorized, "unauthorized", "missing claims", nil))
		return
	}
	rng, err := parseDateRange(c)
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", err.Error(), err))
		return
	}
	report, err := h.statsSvc.CompanyReport(c.Request.Context(), claims.CompanyID, rng)
	if err != nil {
		abortWithDomainError(c, "stats_failed", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func abortWithDomainError(c *gin.Context, fallbackCode string, err error) {
	status, code := http.StatusInternalServerError, fallbackCode
	switch {
	case apperrors.IsCode(err, "invalid_input"):
		status, code = http.StatusBadRequest, "invalid_request"
	case apperrors.IsCode(err, "bid_exists"):
		status, code = http.StatusConflict, "bid_exists"
	case apperrors.IsCode(err, "email_exists"):
		status, code = http.StatusConflict, "email_exists"
	case apperrors.IsCode(err, "bid_not_found"):
		status, code = http.StatusNotFound, "bid_not_found"
	case apperrors.IsCode(err, "campaign_not_found"):
		status, code = http.StatusNotFound, "campaign_not_found"
	case apperrors.IsCode(err, "user_not_found"):
		status, code = http.StatusNotFound, "user_not_found"
	case apperrors.IsCode(err, "invalid_credentials"), apperrors.IsCode(err, "invalid_token"):
		status, code = http.StatusUnauthorized, "unauthorized"
	case apperrors.IsCode(err, "llm_error"):
		status, code = http.StatusBadGateway, "llm_error"
	}
	// Upstream failure detail stays in server-side logs; clients get a
	// generic message.
	message := errMessage(err)
	if status >= http.StatusInternalServerError {
		message = "internal server error"
	}
	abortWithError(c, NewHTTPError(status, code, message, err))
}

func pathID(c *gin.Context, name string) (int64, error) {
	return strconv.ParseInt(c.Param(name), 10, 64)
}

// parseDateRange reads optional startDate/endDate ISO dates. Absence of both
// means all time; endDate is inclusive through the end of that day.
func parseDateRange(c *gin.Context) (stats.DateRange, error) {
	var rng stats.DateRange
	if raw := c.Query("startDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return stats.DateRange{}, err
		}
		rng.From = &t
	}
	if raw := c.Query("endDate"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return stats.DateRange{}, err
		}
		end := t.Add(24*time.Hour - time.Nanosecond)
		rng.To = &end
	}
	return rng, nil
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
