// Package admin holds the state of the product management views: the
// add/edit form and the product listing.
//
// The types are owned by a single caller and are not safe for concurrent use.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

const discardTimeout = 30 * time.Second

const (
	msgUploadFailed  = "Failed to upload images. Please try again."
	msgSaveFailed    = "Failed to save product. Please try again."
	msgFixFields     = "Please fix the highlighted fields."
	msgTooManyImages = "You can upload at most 5 images per product."
)

// A FormState is a snapshot of the form for rendering.
type FormState struct {
	Editing    bool
	Visible    bool
	Submitting bool
	Draft      domain.Product
	Staged     []domain.StagedImage
	Error      string
	Fields     map[string]string
}

type Form struct {
	uploader port.ImageUploader
	saver    port.ProductsSaver

	draft      domain.Product
	staged     []domain.StagedImage
	visible    bool
	submitting bool
	errMsg     string
	fieldErrs  map[string]string
}

func NewForm(uploader port.ImageUploader, saver port.ProductsSaver) *Form {
	return &Form{uploader: uploader, saver: saver}
}

// OpenNew shows an empty form for a new product.
func (f *Form) OpenNew() {
	f.reset()
	f.visible = true
}

// OpenEdit shows the form pre-filled with p.
func (f *Form) OpenEdit(p domain.Product) {
	f.reset()
	f.draft = p
	f.visible = true
}

// Cancel hides the form and drops staged images.
func (f *Form) Cancel() {
	f.reset()
}

func (f *Form) reset() {
	f.draft = domain.Product{}
	f.staged = nil
	f.visible = false
	f.submitting = false
	f.errMsg = ""
	f.fieldErrs = nil
}

func (f *Form) Editing() bool {
	return !f.draft.IsNew()
}

func (f *Form) State() FormState {
	staged := make([]domain.StagedImage, len(f.staged))
	copy(staged, f.staged)

	fields := make(map[string]string, len(f.fieldErrs))
	for k, v := range f.fieldErrs {
		fields[k] = v
	}

	return FormState{
		Editing:    f.Editing(),
		Visible:    f.visible,
		Submitting: f.submitting,
		Draft:      f.draft,
		Staged:     staged,
		Error:      f.errMsg,
		Fields:     fields,
	}
}

func (f *Form) SetName(v string)        { f.draft.Name = v }
func (f *Form) SetDescription(v string) { f.draft.Description = v }
func (f *Form) SetPrice(v string)       { f.draft.Price = v }
func (f *Form) SetPaymentLink(v string) { f.draft.PaymentLink = v }

// SetCategory changes the category only.
func (f *Form) SetCategory(v string) { f.draft.Category = v }

// SelectCategory changes the category and fills price and description
// from its preset, if there is one.
func (f *Form) SelectCategory(category string) {
	f.draft.ApplyTemplate(category)
}

// SetImages replaces the already uploaded images.
func (f *Form) SetImages(urls ...string) error {
	images, err := domain.NewImageList(urls...)
	if err != nil {
		return err
	}
	f.draft.Images = images
	return nil
}

func (f *Form) ImageCount() int {
	return f.draft.Images.Len() + len(f.staged)
}

// StageImages adds prepared images. The whole selection is rejected when
// the total would exceed [domain.MaxImages].
func (f *Form) StageImages(images ...domain.StagedImage) error {
	if total := f.ImageCount() + len(images); total > domain.MaxImages {
		f.errMsg = msgTooManyImages
		return fmt.Errorf("%w: %d exceeds %d", domain.ErrTooManyImages, total, domain.MaxImages)
	}
	f.staged = append(f.staged, images...)
	f.errMsg = ""
	return nil
}

func (f *Form) RemoveExisting(i int) error {
	_, err := f.draft.Images.RemoveAt(i)
	return err
}

func (f *Form) MoveExisting(from, to int) error {
	return f.draft.Images.Move(from, to)
}

func (f *Form) RemoveStaged(i int) error {
	if i < 0 || i >= len(f.staged) {
		return fmt.Errorf("staged image index %d out of range [0,%d)", i, len(f.staged))
	}
	staged := make([]domain.StagedImage, 0, len(f.staged)-1)
	staged = append(staged, f.staged[:i]...)
	staged = append(staged, f.staged[i+1:]...)
	f.staged = staged
	return nil
}

// Validate checks every field and records field messages.
func (f *Form) Validate() error {
	err := domain.ValidateDraft(f.draft, f.ImageCount())
	f.fieldErrs = nil

	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		f.fieldErrs = make(map[string]string, len(verr.Fields))
		for _, fe := range verr.Fields {
			f.fieldErrs[fe.Field] = fe.Message
		}
	}
	return err
}

// Submit validates the draft, uploads staged images, appends their URLs
// after the existing ones and saves the product.
//
// On failure the staged images are kept so the user can retry.
func (f *Form) Submit(ctx context.Context) (domain.Product, error) {
	const op = "Form.Submit"
	log := slog.With("op", op)

	if f.submitting {
		return domain.Product{}, fmt.Errorf("%s: %w", op, domain.ErrSubmitInProgress)
	}

	if err := f.Validate(); err != nil {
		f.errMsg = msgFixFields
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	f.submitting = true
	f.errMsg = ""
	defer func() { f.submitting = false }()

	product := f.draft
	product.Images = domain.ImageList{}
	if err := product.Images.Append(f.draft.Images.URLs()...); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	var batch domain.UploadResult
	if len(f.staged) != 0 {
		res, err := f.upload(ctx)
		if err != nil {
			f.errMsg = msgUploadFailed
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
		batch = res

		if err := product.Images.Append(res.URLs()...); err != nil {
			f.discard(ctx, batch)
			f.errMsg = msgTooManyImages
			return domain.Product{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	saved, err := f.save(ctx, product)
	if err != nil {
		f.discard(ctx, batch)
		f.errMsg = msgSaveFailed
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			f.errMsg = msgFixFields
		}
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	log.Info(
		"product saved",
		"productID", saved.ID,
		"nImages", saved.Images.Len(),
		"nUploaded", len(batch.Uploaded()),
	)

	f.reset()
	return saved, nil
}

// upload skips malformed images and aborts on any other failure.
func (f *Form) upload(ctx context.Context) (domain.UploadResult, error) {
	const op = "Form.upload"
	log := slog.With("op", op)

	res, err := f.uploader.Upload(ctx, f.staged)
	if err != nil {
		return domain.UploadResult{}, err
	}

	var errs []error
	for _, item := range res.Failed() {
		if errors.Is(item.Err, domain.ErrInvalidImage) {
			log.Warn("staged image skipped", "index", item.Index, "err", item.Err)
			continue
		}
		errs = append(errs, fmt.Errorf("image %d: %w", item.Index, item.Err))
	}

	if err := errors.Join(errs...); err != nil {
		f.discard(ctx, res)
		return domain.UploadResult{}, err
	}
	return res, nil
}

func (f *Form) save(ctx context.Context, p domain.Product) (domain.Product, error) {
	if p.IsNew() {
		return f.saver.CreateProduct(ctx, p)
	}
	return f.saver.UpdateProduct(ctx, p)
}

func (f *Form) discard(ctx context.Context, batch domain.UploadResult) {
	const op = "Form.discard"

	if len(batch.Uploaded()) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), discardTimeout)
	defer cancel()

	if err := f.uploader.Discard(ctx, batch); err != nil {
		slog.Error("failed to discard uploaded images", "op", op, "err", err)
	}
}
