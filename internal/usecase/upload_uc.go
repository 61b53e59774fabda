package usecase

import (
	"bytes"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/phenrril/storefront/internal/domain"
)

// MaxUploadBytes es el tamaño máximo aceptado por archivo.
const MaxUploadBytes = 10 << 20

const uploadPrefix = "products/"

type UploadUC struct {
	Storage   domain.ObjectStorage
	Processor domain.ImageProcessor
}

type UploadResult struct {
	URL       string `json:"url"`
	StorageID string `json:"storageId"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Format    string `json:"format"`
	Bytes     int    `json:"bytes"`
}

func (uc *UploadUC) Upload(ctx context.Context, data []byte) (*UploadResult, error) {
	if len(data) == 0 {
		return nil, domain.Invalid("archivo vacío")
	}
	if len(data) > MaxUploadBytes {
		return nil, domain.Invalid("el archivo supera los 10 MB")
	}
	img, err := uc.Processor.Process(data)
	if err != nil {
		return nil, err
	}
	key := uploadPrefix + uuid.NewString() + "." + img.Format
	if err := uc.Storage.Put(ctx, key, img.ContentType, bytes.NewReader(img.Data)); err != nil {
		return nil, err
	}
	log.Info().Str("key", key).Int("bytes", len(img.Data)).Str("format", img.Format).Msg("imagen subida")
	return &UploadResult{
		URL:       uc.Storage.PublicURL(key),
		StorageID: key,
		Width:     img.Width,
		Height:    img.Height,
		Format:    img.Format,
		Bytes:     len(img.Data),
	}, nil
}

// Delete sólo borra objetos creados por Upload.
func (uc *UploadUC) Delete(ctx context.Context, storageID string) error {
	id := strings.TrimSpace(storageID)
	if !strings.HasPrefix(id, uploadPrefix) || strings.Contains(id, "..") || len(id) == len(uploadPrefix) {
		return domain.Invalid("storageId inválido")
	}
	if err := uc.Storage.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("key", id).Msg("imagen eliminada")
	return nil
}
