package httphandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
	"github.com/niksmo/modelshop-admin/internal/imageprep"
)

const (
	maxUploadBody   = 64 << 20
	maxMultipartMem = 32 << 20
)

type imagePreparer interface {
	Prepare(
		ctx context.Context, current int, sources []imageprep.Source,
	) (imageprep.Results, error)
}

// POST /v1/uploads JSON {images: [dataURL]}          (200 OK, 400, 422, 500, 502)
// POST /v1/staged-images multipart files[], current  (200 OK, 400)

type UploadsHandler struct {
	uploader port.ImageUploader
	preparer imagePreparer
}

func RegisterUploads(
	mux *http.ServeMux, uploader port.ImageUploader, preparer imagePreparer,
) {
	h := UploadsHandler{uploader, preparer}
	mux.HandleFunc("POST /v1/uploads", h.Upload)
	mux.HandleFunc("POST /v1/staged-images", h.StageImages)
}

func (h UploadsHandler) Upload(w http.ResponseWriter, r *http.Request) {
	const op = "UploadsHandler.Upload"
	log := slog.With("op", op)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	var req UploadRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	if len(req.Images) > domain.MaxImages {
		respondError(w, log, fmt.Errorf(
			"%w: %d exceeds %d", domain.ErrTooManyImages, len(req.Images), domain.MaxImages,
		), http.StatusBadRequest)
		return
	}

	res, err := h.uploader.Upload(r.Context(), stagedFromStrings(req.Images))
	if err != nil {
		if errors.Is(err, domain.ErrNoImagesUploaded) {
			log.Warn("nothing uploaded", "nSubmitted", len(req.Images))
			respondJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
				Error:   domain.ErrNoImagesUploaded.Error(),
				Details: skippedFromDomain(res.Failed()),
			})
			return
		}
		respondError(w, log, err, http.StatusBadGateway)
		return
	}

	respondJSON(w, http.StatusOK, UploadResponse{
		URLs:    res.URLs(),
		Skipped: skippedFromDomain(res.Failed()),
	})
}

func (h UploadsHandler) StageImages(w http.ResponseWriter, r *http.Request) {
	const op = "UploadsHandler.StageImages"
	log := slog.With("op", op)

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	if err := r.ParseMultipartForm(maxMultipartMem); err != nil {
		log.Warn("failed to parse multipart form", "err", err)
		respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid multipart form"})
		return
	}

	current := 0
	if v := r.FormValue("current"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondJSON(w, http.StatusBadRequest, ErrorResponse{Error: "invalid current count"})
			return
		}
		current = n
	}

	files := r.MultipartForm.File["files"]
	sources := make([]imageprep.Source, 0, len(files))
	for _, fh := range files {
		src, err := readSource(fh)
		if err != nil {
			log.Warn("failed to read file", "name", fh.Filename, "err", err)
			respondJSON(w, http.StatusBadRequest, ErrorResponse{
				Error: "failed to read file", Details: fh.Filename,
			})
			return
		}
		sources = append(sources, src)
	}

	results, err := h.preparer.Prepare(r.Context(), current, sources)
	if err != nil {
		respondError(w, log, err, http.StatusInternalServerError)
		return
	}

	out := StagedImagesResponse{Images: make([]StagedImage, len(results))}
	for i, res := range results {
		out.Images[i] = StagedImage{
			Name:   res.Name,
			Image:  string(res.Image),
			Width:  res.Width,
			Height: res.Height,
		}
		if res.Err != nil {
			out.Images[i].Error = res.Err.Error()
		}
	}
	respondJSON(w, http.StatusOK, out)
}

func readSource(fh *multipart.FileHeader) (imageprep.Source, error) {
	f, err := fh.Open()
	if err != nil {
		return imageprep.Source{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return imageprep.Source{}, err
	}
	return imageprep.Source{Name: fh.Filename, Data: data}, nil
}
