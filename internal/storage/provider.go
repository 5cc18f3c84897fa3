// Package storage defines the artifact blob store contract. Implementations
// hold the finished dataset files and the challenge-page snapshots kept for
// postmortems.
package storage

import "context"

// Provider writes an artifact and returns the URI it landed at.
type Provider interface {
	PutObject(ctx context.Context, path string, contentType string, data []byte) (string, error)
}

// NoOp discards every artifact. Used when uploads are disabled.
type NoOp struct{}

// PutObject drops the data and returns an empty URI.
func (NoOp) PutObject(context.Context, string, string, []byte) (string, error) {
	return "", nil
}
