package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hongminglow/recruit-portal/internal/http/respond"
	"github.com/hongminglow/recruit-portal/internal/middleware"
	"github.com/hongminglow/recruit-portal/internal/models/dto"
	"github.com/hongminglow/recruit-portal/internal/requests"
)

// RequestHandler serves the signed-in applicant's recruitment requests.
type RequestHandler struct {
	requests  *requests.Service
	maxUpload int64
	log       *slog.Logger
}

func NewRequestHandler(svc *requests.Service, maxUpload int64, logger *slog.Logger) *RequestHandler {
	return &RequestHandler{requests: svc, maxUpload: maxUpload, log: logger}
}

// Routes attaches the request routes. Listing without a session yields an
// empty list; submitting and withdrawing need one.
func (h *RequestHandler) Routes(r chi.Router) {
	r.Route("/requests", func(r chi.Router) {
		r.Get("/", h.handleList)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireSession)
			r.Post("/", h.handleSubmit)
			r.Delete("/{id}", h.handleDelete)
		})
	})
}

// handleSubmit accepts a multipart form. Only the attachment's name is kept.
func (h *RequestHandler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respond.Error(w, http.StatusRequestEntityTooLarge, "attachment is too large")
			return
		}
		respond.Error(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	var fileName string
	file, header, err := r.FormFile("file")
	switch {
	case err == nil:
		fileName = header.Filename
		file.Close()
	case errors.Is(err, http.ErrMissingFile):
	default:
		respond.Error(w, http.StatusBadRequest, "invalid attachment")
		return
	}

	req, err := h.requests.Submit(r.Context(), middleware.SessionFrom(r.Context()), requests.SubmitInput{
		Type:                 r.FormValue("type"),
		Message:              r.FormValue("message"),
		RequestedGovernorate: r.FormValue("requestedGovernorate"),
		FileName:             fileName,
	})
	if err != nil {
		respondError(w, r, h.log, err, "failed to submit request")
		return
	}
	respond.JSON(w, http.StatusCreated, "Request submitted successfully", dto.NewRequestResponse(req))
}

func (h *RequestHandler) handleList(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.ListMine(r.Context(), middleware.SessionFrom(r.Context()))
	if err != nil {
		respondError(w, r, h.log, err, "failed to list requests")
		return
	}
	out := make([]dto.RequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, dto.NewRequestResponse(req))
	}
	respond.JSON(w, http.StatusOK, "ok", out)
}

func (h *RequestHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.requests.Delete(r.Context(), middleware.SessionFrom(r.Context()), id); err != nil {
		respondError(w, r, h.log, err, "failed to delete request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
