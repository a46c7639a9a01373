package domain

import "time"

// ProfileImage es la metadata de la unica foto de perfil de un usuario.
// ID es el identificador de contenido devuelto por el object store.
type ProfileImage struct {
	ID         string    `json:"id"`
	FileName   string    `json:"file_name"`
	URL        string    `json:"url"`
	UploadDate time.Time `json:"upload_date"`
	UserID     string    `json:"user_id"`
}

// ImageUpload describe el archivo recibido en una subida.
type ImageUpload struct {
	FileName    string
	ContentType string
	Data        []byte
}
