package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/modelshop-admin/internal/core/domain"
	"github.com/niksmo/modelshop-admin/internal/core/port"
)

var (
	_ port.ImageUploader = (*UploadGateway)(nil)
	_ port.ImageRemover  = (*UploadGateway)(nil)
)

const compensateTimeout = 30 * time.Second

type UploadOpt func(*UploadGateway)

// KeyPrefixOpt puts every object key under prefix, e.g. "products".
func KeyPrefixOpt(prefix string) UploadOpt {
	return func(g *UploadGateway) {
		g.keyPrefix = prefix
	}
}

func clockOpt(now func() time.Time) UploadOpt {
	return func(g *UploadGateway) {
		g.now = now
	}
}

// An UploadGateway persists staged images to the blob store.
//
// Images are uploaded one after another, never concurrently.
type UploadGateway struct {
	store     port.BlobStore
	keyPrefix string
	now       func() time.Time
}

func NewUploadGateway(store port.BlobStore, opts ...UploadOpt) UploadGateway {
	g := UploadGateway{store: store, now: time.Now}
	for _, opt := range opts {
		opt(&g)
	}
	return g
}

// Upload returns one item per image in input order. Malformed entries and
// failed writes are reported per item; the call fails only when nothing
// was uploaded or the store is not usable at all. In the latter case the
// objects already written by this call are removed.
func (g UploadGateway) Upload(
	ctx context.Context, images []domain.StagedImage,
) (domain.UploadResult, error) {
	const op = "UploadGateway.Upload"
	log := slog.With("op", op)

	if g.store == nil {
		return domain.UploadResult{}, fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	result := domain.UploadResult{
		Items: make([]domain.UploadItem, 0, len(images)),
	}

	for i, img := range images {
		if err := ctx.Err(); err != nil {
			g.compensate(ctx, result)
			return domain.UploadResult{}, fmt.Errorf("%s: %w", op, err)
		}

		item, err := g.uploadOne(ctx, i, img)
		if err != nil {
			log.Error("storage unusable, aborting batch", "index", i, "err", err)
			g.compensate(ctx, result)
			return domain.UploadResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if !item.OK() {
			log.Warn("image skipped", "index", i, "err", item.Err)
		}
		result.Items = append(result.Items, item)
	}

	if len(images) != 0 && len(result.Uploaded()) == 0 {
		return result, fmt.Errorf("%s: %w", op, domain.ErrNoImagesUploaded)
	}

	log.Info(
		"images uploaded",
		"nSubmitted", len(images),
		"nUploaded", len(result.Uploaded()),
	)
	return result, nil
}

// uploadOne returns an error only for fatal storage conditions.
func (g UploadGateway) uploadOne(
	ctx context.Context, idx int, img domain.StagedImage,
) (domain.UploadItem, error) {
	item := domain.UploadItem{Index: idx}

	mediaType, data, err := img.Decode()
	if err != nil {
		item.Err = err
		return item, nil
	}

	key := g.objectKey(mediaType)
	url, err := g.store.Put(ctx, key, data, mediaType)
	if err != nil {
		if errors.Is(err, domain.ErrConfiguration) {
			return item, err
		}
		item.Err = err
		return item, nil
	}

	item.Key = key
	item.URL = url
	return item, nil
}

func (g UploadGateway) objectKey(mediaType string) string {
	name := fmt.Sprintf(
		"%d-%s.%s",
		g.now().UnixMilli(),
		uuid.NewString(),
		domain.ExtensionFor(mediaType),
	)
	return path.Join(g.keyPrefix, name)
}

// Discard removes every object uploaded within result.
func (g UploadGateway) Discard(
	ctx context.Context, result domain.UploadResult,
) error {
	const op = "UploadGateway.Discard"

	if g.store == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	var errs []error
	for _, item := range result.Uploaded() {
		if err := g.store.Remove(ctx, item.Key); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", item.Key, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// RemoveImages removes objects by their public URLs. URLs that do not
// belong to the store are ignored.
func (g UploadGateway) RemoveImages(ctx context.Context, urls []string) error {
	const op = "UploadGateway.RemoveImages"
	log := slog.With("op", op)

	if g.store == nil {
		return fmt.Errorf("%s: %w", op, domain.ErrMissingCredential)
	}

	var errs []error
	for _, url := range urls {
		key, ok := g.store.KeyForURL(url)
		if !ok {
			log.Debug("foreign image url, skipping", "url", url)
			continue
		}
		if err := g.store.Remove(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("remove %q: %w", key, err))
			continue
		}
		log.Info("orphaned image removed", "key", key)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (g UploadGateway) compensate(ctx context.Context, result domain.UploadResult) {
	const op = "UploadGateway.compensate"

	if len(result.Uploaded()) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	if err := g.Discard(ctx, result); err != nil {
		slog.Error("orphaned objects left in storage", "op", op, "err", err)
	}
}
