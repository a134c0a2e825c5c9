package api

import (
	"errors"
	"net/http"
	"strconv"

	"fieldcrm-backend/internal/automation/usecase"
	leaddomain "fieldcrm-backend/internal/lead/domain"
	leadrepo "fieldcrm-backend/internal/lead/repository"
	messagerepo "fieldcrm-backend/internal/message/repository"
	quoterepo "fieldcrm-backend/internal/quote/repository"
	settingsdomain "fieldcrm-backend/internal/settings/domain"
	settingsrepo "fieldcrm-backend/internal/settings/repository"
	tenantrepo "fieldcrm-backend/internal/tenant/repository"

	"github.com/gin-gonic/gin"
)

// Handler serves the back-office API: leads, the approval queue,
// quotes, settings, and usage. All routes are tenant-scoped by the auth
// middleware.
type Handler struct {
	engine   *usecase.AutomationUsecase
	tenants  tenantrepo.TenantRepository
	leads    leadrepo.LeadRepository
	messages messagerepo.MessageRepository
	quotes   quoterepo.QuoteRepository
	settings settingsrepo.SettingsRepository
}

func NewHandler(
	engine *usecase.AutomationUsecase,
	tenants tenantrepo.TenantRepository,
	leads leadrepo.LeadRepository,
	messages messagerepo.MessageRepository,
	quotes quoterepo.QuoteRepository,
	settings settingsrepo.SettingsRepository,
) *Handler {
	return &Handler{
		engine:   engine,
		tenants:  tenants,
		leads:    leads,
		messages: messages,
		quotes:   quotes,
		settings: settings,
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString("tenantID")
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// GET /api/leads
func (h *Handler) ListLeads(c *gin.Context) {
	limit, offset := pagination(c)
	leads, total, err := h.leads.List(tenantID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list leads"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"leads": leads, "total": total})
}

// GET /api/leads/:id
func (h *Handler) GetLead(c *gin.Context) {
	lead, err := h.leads.FindByID(tenantID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lead"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

type updateLeadRequest struct {
	Stage    string `json:"stage"`
	Priority string `json:"priority"`
	Tags     string `json:"tags"`
}

// PATCH /api/leads/:id
// Manual edits are the one path allowed to move a lead backward; the
// forward-only rule binds automation only.
func (h *Handler) UpdateLead(c *gin.Context) {
	var req updateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	lead, err := h.leads.FindByID(tenantID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lead"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}

	if req.Stage != "" {
		stage := leaddomain.Stage(req.Stage)
		if !stage.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stage"})
			return
		}
		lead.Stage = stage
	}
	if req.Priority != "" {
		p := leaddomain.Priority(req.Priority)
		if p != leaddomain.PriorityLow && p != leaddomain.PriorityMedium && p != leaddomain.PriorityHigh {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid priority"})
			return
		}
		lead.Priority = p
	}
	if req.Tags != "" {
		lead.Tags = req.Tags
	}

	if err := h.leads.Update(lead); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update lead"})
		return
	}
	c.JSON(http.StatusOK, lead)
}

// GET /api/leads/:id/messages
func (h *Handler) LeadMessages(c *gin.Context) {
	lead, err := h.leads.FindByID(tenantID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load lead"})
		return
	}
	if lead == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	limit, _ := pagination(c)
	msgs, err := h.messages.History(lead.ID, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// GET /api/messages/pending
func (h *Handler) PendingMessages(c *gin.Context) {
	msgs, err := h.engine.PendingDrafts(tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending drafts"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// POST /api/messages/:id/approve
func (h *Handler) ApproveMessage(c *gin.Context) {
	msg, err := h.engine.ApproveDraft(c.Request.Context(), tenantID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, usecase.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to send message"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// POST /api/messages/:id/reject
func (h *Handler) RejectMessage(c *gin.Context) {
	if err := h.engine.RejectDraft(tenantID(c), c.Param("id")); err != nil {
		if errors.Is(err, usecase.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to reject draft"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "draft rejected"})
}

type editMessageRequest struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// PATCH /api/messages/:id
func (h *Handler) EditMessage(c *gin.Context) {
	var req editMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	msg, err := h.engine.EditDraft(tenantID(c), c.Param("id"), req.Subject, req.Content)
	if err != nil {
		if errors.Is(err, usecase.ErrDraftNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to edit draft"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

// GET /api/quotes
func (h *Handler) ListQuotes(c *gin.Context) {
	limit, offset := pagination(c)
	quotes, total, err := h.quotes.ListByTenant(tenantID(c), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list quotes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"quotes": quotes, "total": total})
}

// GET /api/quotes/:id
func (h *Handler) GetQuote(c *gin.Context) {
	quote, err := h.quotes.FindByID(tenantID(c), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load quote"})
		return
	}
	if quote == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "quote not found"})
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GET /api/settings
func (h *Handler) GetSettings(c *gin.Context) {
	set, err := h.settings.GetByTenant(tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, set)
}

// PUT /api/settings
func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsdomain.AutomationSettings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	current, err := h.settings.GetByTenant(tenantID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}

	// Identity comes from the stored row, never the request.
	req.ID = current.ID
	req.TenantID = current.TenantID
	req.CreatedAt = current.CreatedAt
	req.Normalize()

	if err := h.settings.Save(&req); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save settings"})
		return
	}
	c.JSON(http.StatusOK, &req)
}

// GET /api/usage
func (h *Handler) GetUsage(c *gin.Context) {
	t, err := h.tenants.FindByID(tenantID(c))
	if err != nil || t == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tenant"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ai_usage_count":    t.AIUsageCount,
		"ai_usage_limit":    t.AIUsageLimit,
		"ai_usage_reset_at": t.AIUsageResetAt,
	})
}
