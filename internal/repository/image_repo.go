package repository

import (
	"context"

	"account-service/internal/domain"
)

// ImageRepository persiste la metadata de la foto de perfil.
// La tabla tiene un indice unique sobre user_id: Create devuelve ErrDuplicate
// si el usuario ya tiene una foto.
type ImageRepository interface {
	Create(ctx context.Context, image domain.ProfileImage) error
	GetByUserID(ctx context.Context, userID string) (domain.ProfileImage, error)
	DeleteByUserID(ctx context.Context, userID string) error
}

type PgImageRepository struct {
	db DBTX
}

func NewPgImageRepository(db DBTX) *PgImageRepository {
	return &PgImageRepository{db: db}
}

func (r *PgImageRepository) Create(ctx context.Context, image domain.ProfileImage) error {
	const query = `
		INSERT INTO images (id, file_name, url, upload_date, user_id)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		image.ID,
		image.FileName,
		image.URL,
		image.UploadDate,
		image.UserID,
	)
	return translateError(err)
}

func (r *PgImageRepository) GetByUserID(ctx context.Context, userID string) (domain.ProfileImage, error) {
	const query = `
		SELECT id, file_name, url, upload_date, user_id
		FROM images
		WHERE user_id = $1
	`
	var img domain.ProfileImage
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&img.ID,
		&img.FileName,
		&img.URL,
		&img.UploadDate,
		&img.UserID,
	)
	if err != nil {
		return domain.ProfileImage{}, translateError(err)
	}
	return img, nil
}

func (r *PgImageRepository) DeleteByUserID(ctx context.Context, userID string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM images WHERE user_id = $1`, userID)
	if err != nil {
		return translateError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
