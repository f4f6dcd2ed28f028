package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/modelshop-admin/internal/core/admin"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

// POST /v1/forms/category JSON {draft, category}  (200 OK, 400)
// POST /v1/forms/submit JSON                      (200 OK, 201 Created, 400, 409, 422, 500, 502)

type FormsHandler struct {
	uploader port.ImageUploader
	saver    port.ProductsSaver
}

func RegisterForms(
	mux *http.ServeMux, uploader port.ImageUploader, saver port.ProductsSaver,
) {
	h := FormsHandler{uploader, saver}
	mux.HandleFunc("POST /v1/forms/category", h.SelectCategory)
	mux.HandleFunc("POST /v1/forms/submit", h.Submit)
}

func (h FormsHandler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	const op = "FormsHandler.SelectCategory"
	log := slog.With("op", op)

	var req CategoryRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	draft, err := req.Draft.toDomain()
	if err != nil {
		respondError(w, log, err, http.StatusBadRequest)
		return
	}

	form := admin.NewForm(h.uploader, h.saver)
	form.OpenEdit(draft)
	form.SelectCategory(req.Category)

	state := form.State()
	respondJSON(w, http.StatusOK, FormResponse{
		Product: productFromDomain(state.Draft),
		Editing: state.Editing,
	})
}

// Submit runs one form session: fills the draft, stages images and saves.
func (h FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	const op = "FormsHandler.Submit"
	log := slog.With("op", op)

	var req SubmitRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	form := admin.NewForm(h.uploader, h.saver)
	if req.ID == "" {
		form.OpenNew()
	} else {
		form.OpenEdit(domain.Product{ID: req.ID})
	}

	form.SetName(req.Name)
	form.SetDescription(req.Description)
	form.SetPrice(req.Price)
	form.SetPaymentLink(req.PaymentLink)
	form.SetCategory(req.Category)

	if err := form.SetImages(req.Images...); err != nil {
		respondError(w, log, err, http.StatusBadRequest)
		return
	}
	if err := form.StageImages(stagedFromStrings(req.StagedImages)...); err != nil {
		respondError(w, log, err, http.StatusBadRequest)
		return
	}

	saved, err := form.Submit(r.Context())
	if err != nil {
		respondFormError(w, log, form.State(), err)
		return
	}

	status := http.StatusOK
	if req.ID == "" {
		status = http.StatusCreated
	}
	respondJSON(w, status, FormResponse{Product: productFromDomain(saved), Editing: false})
}

func respondFormError(
	w http.ResponseWriter, log *slog.Logger, state admin.FormState, err error,
) {
	status, resp := errorResponse(log, err, http.StatusBadGateway)
	resp.Message = state.Error
	respondJSON(w, status, resp)
}
