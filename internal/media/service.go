package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/hopefultail/hopeful-tail-backend/pkg/db/models"
	pkgerrors "github.com/hopefultail/hopeful-tail-backend/pkg/errors"
	"github.com/hopefultail/hopeful-tail-backend/pkg/logger"
	"github.com/hopefultail/hopeful-tail-backend/pkg/storage/gcs"
)

const objectPrefix = "media/"

// ObjectStore is the blob storage behind uploaded media.
type ObjectStore interface {
	Upload(ctx context.Context, object, contentType string, r io.Reader) (gcs.ObjectInfo, error)
	Delete(ctx context.Context, object string) error
}

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// UploadInput is one multipart file.
type UploadInput struct {
	UserID   uuid.UUID
	FileName string
	Body     io.Reader
}

// UploadOutput is returned to the client after a successful upload.
type UploadOutput struct {
	ID  uuid.UUID `json:"id"`
	URL string    `json:"url"`
}

// Service handles image uploads.
type Service interface {
	Upload(ctx context.Context, input UploadInput) (*UploadOutput, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo     mediaRepository
	store    ObjectStore
	maxBytes int64
	logg     *logger.Logger
}

// NewService constructs a media service backed by the repository and bucket.
func NewService(repo mediaRepository, store ObjectStore, maxBytes int64, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if store == nil {
		return nil, fmt.Errorf("object store required")
	}
	if maxBytes <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{repo: repo, store: store, maxBytes: maxBytes, logg: logg}, nil
}

func (s *service) Upload(ctx context.Context, input UploadInput) (*UploadOutput, error) {
	if input.Body == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is required")
	}
	data, err := io.ReadAll(io.LimitReader(input.Body, s.maxBytes+1))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "read upload")
	}
	if len(data) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file is empty")
	}
	if int64(len(data)) > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file too large").
			WithDetails(map[string]any{"max_bytes": s.maxBytes})
	}

	contentType, ext, ok := detect(data)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported file type").
			WithDetails(map[string]any{"content_type": contentType, "allowed": allowedTypes()})
	}

	object := objectPrefix + strings.ToLower(ulid.Make().String()) + ext
	info, err := s.store.Upload(ctx, object, contentType, bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store upload")
	}

	record := &models.Media{
		ObjectKey:   info.Name,
		Name:        displayName(input.FileName, object),
		URL:         info.URL,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}
	if input.UserID != uuid.Nil {
		uploader := input.UserID
		record.UploadedBy = &uploader
	}
	created, err := s.repo.Create(ctx, record)
	if err != nil {
		if delErr := s.store.Delete(ctx, object); delErr != nil {
			s.logg.Error(s.logg.WithField(ctx, "object", object), "media.orphan_cleanup_failed", delErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "persist media")
	}
	return &UploadOutput{ID: created.ID, URL: created.URL}, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load media")
	}
	if err := s.store.Delete(ctx, record.ObjectKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete object")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete media")
	}
	return nil
}

func displayName(fileName, object string) string {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	if name == "" || name == "." || name == "/" {
		return path.Base(object)
	}
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}
