package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	billingapp "github.com/nexora/backend/internal/application/billing"
	"github.com/nexora/backend/internal/domain/billing"
)

// CatalogHandler serves the purchasable module catalog: public listing
// plus the admin mutations that feed the billing catalog sync.
type CatalogHandler struct {
	BaseHandler
	catalog *billingapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalog *billingapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ModuleResponse is the API view of a purchasable module
type ModuleResponse struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Slug              string    `json:"slug"`
	Description       string    `json:"description"`
	MonthlyPriceCents int64     `json:"monthly_price_cents"`
	AnnualPriceCents  int64     `json:"annual_price_cents"`
	Active            bool      `json:"active"`
	SortOrder         int       `json:"sort_order"`
}

func toModuleResponse(m *billing.Module) ModuleResponse {
	return ModuleResponse{
		ID:                m.ID,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		MonthlyPriceCents: m.MonthlyPriceCents,
		AnnualPriceCents:  m.AnnualPriceCents,
		Active:            m.Active,
		SortOrder:         m.SortOrder,
	}
}

// ListModules returns the active module catalog
func (h *CatalogHandler) ListModules(c *gin.Context) {
	modules, err := h.catalog.ListActiveModules(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]ModuleResponse, 0, len(modules))
	for _, m := range modules {
		responses = append(responses, toModuleResponse(m))
	}
	h.Success(c, responses)
}

// ModuleRequest is the payload for creating or updating a module
type ModuleRequest struct {
	Name              string `json:"name" binding:"required"`
	Slug              string `json:"slug"`
	Description       string `json:"description"`
	MonthlyPriceCents int64  `json:"monthly_price_cents" binding:"min=0"`
	AnnualPriceCents  int64  `json:"annual_price_cents" binding:"min=0"`
	SortOrder         int    `json:"sort_order"`
}

func (r ModuleRequest) toInput() billingapp.ModuleInput {
	return billingapp.ModuleInput{
		Name:              r.Name,
		Slug:              r.Slug,
		Description:       r.Description,
		MonthlyPriceCents: r.MonthlyPriceCents,
		AnnualPriceCents:  r.AnnualPriceCents,
		SortOrder:         r.SortOrder,
	}
}

// CreateModule creates a module and syncs its billing catalog entry
func (h *CatalogHandler) CreateModule(c *gin.Context) {
	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	module, err := h.catalog.CreateModule(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toModuleResponse(module))
}

// UpdateModule updates a module, re-syncing billing only when billable
// fields changed
func (h *CatalogHandler) UpdateModule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID")
		return
	}

	var req ModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	module, err := h.catalog.UpdateModule(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toModuleResponse(module))
}

// SetModuleActive toggles whether a module can be purchased
func (h *CatalogHandler) SetModuleActive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid module ID")
		return
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.catalog.SetModuleActive(c.Request.Context(), id, req.Active); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
