package service

import (
	"context"
	"errors"
	"io"
	"mime"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"account-service/internal/domain"
	"account-service/internal/repository"
	"account-service/internal/storage"
	"account-service/internal/telemetry"
)

// compensationTimeout acota el borrado best-effort de un objeto huerfano.
const compensationTimeout = 5 * time.Second

// ProfileImageService mantiene consistentes el objeto en el bucket y la fila de metadata.
// Cada usuario tiene como maximo una foto; el indice unique sobre images.user_id es la
// garantia definitiva frente a subidas concurrentes.
type ProfileImageService struct {
	logger  *zap.Logger
	images  repository.ImageRepository
	objects storage.ObjectStore
	metrics *telemetry.Metrics
	tracer  trace.Tracer
	now     func() time.Time
}

func NewProfileImageService(logger *zap.Logger, images repository.ImageRepository, objects storage.ObjectStore, metrics *telemetry.Metrics) *ProfileImageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileImageService{
		logger:  logger,
		images:  images,
		objects: objects,
		metrics: metrics,
		tracer:  otel.Tracer("account-service/service"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ObjectPrefix es el espacio de claves del usuario en el bucket.
func ObjectPrefix(ownerID string) string {
	return ownerID + "/"
}

// ObjectKey es la clave determinista de la foto del usuario.
func ObjectKey(ownerID string) string {
	return ObjectPrefix(ownerID) + "profile-pic-" + ownerID
}

// IsImageMediaType acepta cualquier tipo image/*, con o sin parametros.
func IsImageMediaType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mediaType, "image/") && len(mediaType) > len("image/")
}

// Attach sube la foto y crea su fila. El objeto se escribe antes que la fila; si la
// insercion falla se intenta borrar el objeto recien escrito.
func (s *ProfileImageService) Attach(ctx context.Context, ownerID string, upload domain.ImageUpload) (img domain.ProfileImage, err error) {
	ctx, span := s.tracer.Start(ctx, "ProfileImageService.Attach", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer func() { endSpan(span, err) }()

	if ownerID == "" {
		return domain.ProfileImage{}, ErrInvalidInput
	}
	if len(upload.Data) == 0 {
		return domain.ProfileImage{}, ErrEmptyFile
	}
	if !IsImageMediaType(upload.ContentType) {
		return domain.ProfileImage{}, ErrUnsupportedMedia
	}

	start := time.Now()
	_, err = s.images.GetByUserID(ctx, ownerID)
	s.metrics.Store(ctx, "images.find", time.Since(start))
	switch {
	case err == nil:
		return domain.ProfileImage{}, ErrImageExists
	case !errors.Is(err, repository.ErrNotFound):
		return domain.ProfileImage{}, internal("find profile image", err)
	}

	key := ObjectKey(ownerID)
	start = time.Now()
	put, err := s.objects.Put(ctx, key, upload.ContentType, upload.Data)
	s.metrics.Store(ctx, "objects.put", time.Since(start))
	if err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			// Otra subida concurrente ya ocupo la clave; su objeto queda intacto.
			return domain.ProfileImage{}, ErrImageExists
		}
		return domain.ProfileImage{}, internal("put profile image object", err)
	}

	img = domain.ProfileImage{
		ID:         put.ID,
		FileName:   upload.FileName,
		URL:        put.URL,
		UploadDate: s.now(),
		UserID:     ownerID,
	}
	start = time.Now()
	err = s.images.Create(ctx, img)
	s.metrics.Store(ctx, "images.insert", time.Since(start))
	if err != nil {
		s.compensatePut(ctx, ownerID, key)
		if errors.Is(err, repository.ErrDuplicate) {
			// Hay una fila sin objeto (por ejemplo un Detach en curso): el objeto recien escrito es nuestro.
			return domain.ProfileImage{}, ErrImageExists
		}
		return domain.ProfileImage{}, internal("insert profile image", err)
	}

	s.logger.Info("profile picture uploaded", zap.String("user_id", ownerID), zap.String("key", key))
	return img, nil
}

func (s *ProfileImageService) compensatePut(ctx context.Context, ownerID, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()
	if err := s.objects.DeleteMany(ctx, []string{key}); err != nil {
		s.logger.Error("orphaned profile picture object",
			zap.Error(err),
			zap.String("user_id", ownerID),
			zap.String("key", key),
			zap.Bool("reconcile", true),
		)
		return
	}
	s.logger.Warn("rolled back profile picture object", zap.String("user_id", ownerID), zap.String("key", key))
}

// Detach borra todos los objetos bajo el prefijo del usuario y luego la fila.
func (s *ProfileImageService) Detach(ctx context.Context, ownerID string) (err error) {
	ctx, span := s.tracer.Start(ctx, "ProfileImageService.Detach", trace.WithAttributes(attribute.String("user.id", ownerID)))
	defer func() { endSpan(span, err) }()

	if ownerID == "" {
		return ErrInvalidInput
	}

	start := time.Now()
	img, err := s.images.GetByUserID(ctx, ownerID)
	s.metrics.Store(ctx, "images.find", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrImageNotFound
		}
		return internal("find profile image", err)
	}

	prefix := ObjectPrefix(ownerID)
	start = time.Now()
	keys, err := s.objects.List(ctx, prefix)
	if err != nil {
		return internal("list profile image objects", err)
	}
	if len(keys) > 0 {
		if err := s.objects.DeleteMany(ctx, keys); err != nil {
			return internal("delete profile image objects", err)
		}
	}
	s.metrics.Store(ctx, "objects.delete", time.Since(start))

	start = time.Now()
	err = s.images.DeleteByUserID(ctx, ownerID)
	s.metrics.Store(ctx, "images.delete", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Un Detach concurrente ya borro la fila.
			return ErrImageNotFound
		}
		s.logger.Error("profile picture row left without object",
			zap.Error(err),
			zap.String("user_id", ownerID),
			zap.String("image_id", img.ID),
			zap.Bool("reconcile", true),
		)
		return internal("delete profile image", err)
	}

	s.logger.Info("profile picture deleted", zap.String("user_id", ownerID), zap.Int("objects", len(keys)))
	return nil
}

// Retrieve devuelve la metadata de la foto sin leer el binario.
func (s *ProfileImageService) Retrieve(ctx context.Context, ownerID string) (domain.ProfileImage, error) {
	if ownerID == "" {
		return domain.ProfileImage{}, ErrInvalidInput
	}
	start := time.Now()
	img, err := s.images.GetByUserID(ctx, ownerID)
	s.metrics.Store(ctx, "images.find", time.Since(start))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ProfileImage{}, ErrImageNotFound
		}
		return domain.ProfileImage{}, internal("find profile image", err)
	}
	return img, nil
}

// Download abre el binario de la foto. El llamador debe cerrar el reader.
func (s *ProfileImageService) Download(ctx context.Context, ownerID string) (io.ReadCloser, domain.ProfileImage, error) {
	img, err := s.Retrieve(ctx, ownerID)
	if err != nil {
		return nil, domain.ProfileImage{}, err
	}
	body, err := s.objects.Get(ctx, ObjectKey(ownerID))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.Error("profile picture row without object",
				zap.String("user_id", ownerID),
				zap.Bool("reconcile", true),
			)
			return nil, domain.ProfileImage{}, ErrImageNotFound
		}
		return nil, domain.ProfileImage{}, internal("get profile image object", err)
	}
	return body, img, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil && KindOf(err) == KindInternal {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
