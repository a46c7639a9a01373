// Package storage guarda los binarios de las fotos de perfil en un object store compatible con S3.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrObjectNotFound se devuelve cuando la clave no existe en el bucket.
	ErrObjectNotFound = errors.New("object not found")
	// ErrObjectExists se devuelve cuando Put encuentra la clave ya ocupada.
	ErrObjectExists = errors.New("object already exists")
)

// PutResult identifica el objeto escrito.
type PutResult struct {
	Key string
	ID  string
	URL string
}

// ObjectStore es el contrato minimo que consume el coordinador de fotos.
type ObjectStore interface {
	// Put solo escribe si la clave no existe; si existe devuelve ErrObjectExists.
	Put(ctx context.Context, key, contentType string, data []byte) (PutResult, error)
	List(ctx context.Context, prefix string) ([]string, error)
	DeleteMany(ctx context.Context, keys []string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
}
