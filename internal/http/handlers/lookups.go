package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/recruit-portal/internal/http/respond"
	"github.com/hongminglow/recruit-portal/internal/models"
	"github.com/hongminglow/recruit-portal/internal/models/dto"
	"github.com/hongminglow/recruit-portal/internal/nationalid"
)

// LookupHandler serves the static pick lists the forms need.
type LookupHandler struct{}

func NewLookupHandler() *LookupHandler {
	return &LookupHandler{}
}

func (h *LookupHandler) Routes(r chi.Router) {
	r.Get("/governorates", h.governorates)
	r.Get("/request-types", h.requestTypes)
}

func (h *LookupHandler) governorates(w http.ResponseWriter, r *http.Request) {
	govs := nationalid.Governorates()
	out := make([]dto.Option, 0, len(govs))
	for _, g := range govs {
		out = append(out, dto.Option{Value: g.Code(), Label: g.Name()})
	}
	respond.JSON(w, http.StatusOK, "ok", out)
}

func (h *LookupHandler) requestTypes(w http.ResponseWriter, r *http.Request) {
	types := models.RequestTypes()
	out := make([]dto.Option, 0, len(types))
	for _, t := range types {
		out = append(out, dto.Option{Value: string(t), Label: t.Label()})
	}
	respond.JSON(w, http.StatusOK, "ok", out)
}
