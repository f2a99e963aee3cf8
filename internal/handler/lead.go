package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/msomdec/estate-listings/internal/domain"
	"github.com/msomdec/estate-listings/internal/service"
)

// LeadHandler serves inquiry endpoints.
type LeadHandler struct {
	leads *service.LeadService
}

// NewLeadHandler creates a new LeadHandler.
func NewLeadHandler(leads *service.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// leadRequest accepts agentId for older clients; the agent is always taken
// from the property.
type leadRequest struct {
	PropertyID string `json:"propertyId" validate:"required"`
	AgentID    string `json:"agentId"`
	Message    string `json:"message" validate:"required,max=5000"`
}

// HandleCreate records an inquiry from the calling buyer.
// POST /api/leads
func (h *LeadHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	var req leadRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode lead request", err)
		return
	}

	lead, err := h.leads.Create(r.Context(), who, req.PropertyID, req.Message)
	if err != nil {
		writeServiceError(w, "create lead", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeadDTO(lead))
}

// HandleListAll returns every lead. Admin only.
// GET /api/leads
func (h *LeadHandler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	leads, err := h.leads.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, "list leads", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadDTOs(leads))
}

// HandleListForAgent returns leads about the caller's properties.
// GET /api/leads/agent
func (h *LeadHandler) HandleListForAgent(w http.ResponseWriter, r *http.Request) {
	h.listScoped(w, r, "list agent leads", h.leads.ListForAgent)
}

// HandleListForBuyer returns the caller's own inquiries.
// GET /api/leads/buyer
func (h *LeadHandler) HandleListForBuyer(w http.ResponseWriter, r *http.Request) {
	h.listScoped(w, r, "list buyer leads", h.leads.ListForBuyer)
}

func (h *LeadHandler) listScoped(w http.ResponseWriter, r *http.Request, action string,
	list func(context.Context, domain.Identity) ([]domain.Lead, error)) {
	who, ok := IdentityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authorized")
		return
	}
	leads, err := list(r.Context(), who)
	if err != nil {
		writeServiceError(w, action, err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadDTOs(leads))
}

// HandleGet returns one lead to its buyer, its agent or an admin. The route
// loads and checks the lead before this runs.
// GET /api/leads/{id}
func (h *LeadHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	lead, ok := loadedResource[*domain.Lead](w, r, "get lead")
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toLeadDTO(lead))
}

type leadUpdateRequest struct {
	Message string `json:"message" validate:"required,max=5000"`
}

// HandleUpdate replaces a lead's message. Buyer-author or admin only.
// PUT /api/leads/{id}
func (h *LeadHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	current, ok := loadedResource[*domain.Lead](w, r, "update lead")
	if !ok {
		return
	}
	var req leadUpdateRequest
	if err := readJSON(w, r, &req); err != nil {
		writeServiceError(w, "decode lead update", err)
		return
	}

	lead, err := h.leads.Edit(r.Context(), current, req.Message)
	if err != nil {
		writeServiceError(w, "update lead", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeadDTO(lead))
}

// HandleDelete removes a lead. Admin only.
// DELETE /api/leads/{id}
func (h *LeadHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.leads.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeServiceError(w, "delete lead", err)
		return
	}
	writeMessage(w, "Deleted")
}
