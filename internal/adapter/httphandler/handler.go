package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/modelshop-admin/internal/core/admin"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

// GET    /health
// GET    /v1/categories
// GET    /v1/products            (200 OK)
// GET    /v1/products/{id}       (200 OK, 404 Not found)
// POST   /v1/products JSON       (201 Created, 400, 422)
// PUT    /v1/products/{id} JSON  (200 OK, 400, 404, 422)
// DELETE /v1/products/{id}       (204 No content, 404)

func RegisterHealth(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func RegisterCategories(mux *http.ServeMux) {
	mux.HandleFunc("GET /v1/categories", func(w http.ResponseWriter, _ *http.Request) {
		tpls := domain.Categories()
		out := make([]CategoryTemplate, len(tpls))
		for i, t := range tpls {
			out[i] = CategoryTemplate(t)
		}
		respondJSON(w, http.StatusOK, out)
	})
}

type ProductsHandler struct {
	products port.ProductsManager
}

func RegisterProducts(mux *http.ServeMux, products port.ProductsManager) {
	h := ProductsHandler{products}
	mux.HandleFunc("GET /v1/products", h.ListProducts)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("POST /v1/products", h.CreateProduct)
	mux.HandleFunc("PUT /v1/products/{id}", h.UpdateProduct)
	mux.HandleFunc("DELETE /v1/products/{id}", h.DeleteProduct)
}

func (h ProductsHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.ListProducts"
	log := slog.With("op", op)

	listing := admin.NewListing(h.products)
	if err := listing.Refresh(r.Context()); err != nil {
		status, resp := errorResponse(log, err, http.StatusInternalServerError)
		resp.Message = listing.Error()
		respondJSON(w, status, resp)
		return
	}

	ps := listing.Products()
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = productFromDomain(p)
	}
	respondJSON(w, http.StatusOK, out)
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	p, err := h.products.GetProduct(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, log, err, http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, productFromDomain(p))
}

func (h ProductsHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.CreateProduct"
	log := slog.With("op", op)

	var req Product
	if !decodeJSON(w, r, log, &req) {
		return
	}

	p, err := req.toDomain()
	if err != nil {
		respondError(w, log, err, http.StatusBadRequest)
		return
	}

	created, err := h.products.CreateProduct(r.Context(), p)
	if err != nil {
		respondError(w, log, err, http.StatusInternalServerError)
		return
	}

	log.Info("product created", "productID", created.ID)
	respondJSON(w, http.StatusCreated, productFromDomain(created))
}

func (h ProductsHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.UpdateProduct"
	log := slog.With("op", op)

	var req Product
	if !decodeJSON(w, r, log, &req) {
		return
	}
	req.ID = r.PathValue("id")

	p, err := req.toDomain()
	if err != nil {
		respondError(w, log, err, http.StatusBadRequest)
		return
	}

	updated, err := h.products.UpdateProduct(r.Context(), p)
	if err != nil {
		respondError(w, log, err, http.StatusInternalServerError)
		return
	}

	log.Info("product updated", "productID", updated.ID)
	respondJSON(w, http.StatusOK, productFromDomain(updated))
}

func (h ProductsHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.DeleteProduct"
	log := slog.With("op", op)

	id := r.PathValue("id")
	if err := h.products.DeleteProduct(r.Context(), id); err != nil {
		respondError(w, log, err, http.StatusInternalServerError)
		return
	}

	log.Info("product deleted", "productID", id)
	w.WriteHeader(http.StatusNoContent)
}
