// Package integrity renders documents to canonical PDF bytes, anchors them
// with a content hash, and can later prove a stored copy was not swapped or
// corrupted.
package integrity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"procurement-backoffice/internal/domain/document"
)

// Renderer produces the canonical byte stream for a document's current state.
type Renderer interface {
	Render(ctx context.Context, d *document.Document) ([]byte, error)
}

// BlobStore persists rendered bytes. Put returns the retrieval URL for a
// deterministic key; Fetch resolves such a URL back to the exact bytes.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Fetch(ctx context.Context, url string) ([]byte, error)
}

type Service struct {
	renderer Renderer
	blobs    BlobStore
}

func NewService(r Renderer, b BlobStore) *Service {
	return &Service{renderer: r, blobs: b}
}

// ObjectKey is the deterministic blob key for a document; re-renders
// overwrite the same object.
func ObjectKey(d *document.Document) string {
	return string(d.Kind) + "/" + d.DocumentID + ".pdf"
}

// Render produces the PDF, hashes the exact bytes and uploads them.
// Returns the retrieval URL and the lower-case hex SHA-256 of the content.
func (s *Service) Render(ctx context.Context, d *document.Document) (string, string, error) {
	data, err := s.renderer.Render(ctx, d)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", document.ErrRenderFailure, err)
	}
	hash := HashBytes(data)
	url, err := s.blobs.Put(ctx, ObjectKey(d), data, "application/pdf")
	if err != nil {
		return "", "", fmt.Errorf("%w: upload: %v", document.ErrRenderFailure, err)
	}
	return url, hash, nil
}

// VerifyResult is the outcome of a read-only integrity audit.
type VerifyResult struct {
	Valid       bool   `json:"valid"`
	StoredHash  string `json:"stored_hash"`
	CurrentHash string `json:"current_hash"`
	Reason      string `json:"reason,omitempty"`
}

// Verify downloads the bytes at url, re-hashes them and compares against
// storedHashHex. It never mutates anything and may be called at any time,
// including long after approval.
func (s *Service) Verify(ctx context.Context, url, storedHashHex string) (VerifyResult, error) {
	data, err := s.blobs.Fetch(ctx, url)
	if err != nil {
		return VerifyResult{}, fmt.Errorf("fetch %s: %w", url, err)
	}
	current := HashBytes(data)
	res := VerifyResult{
		Valid:       current == storedHashHex,
		StoredHash:  storedHashHex,
		CurrentHash: current,
	}
	if !res.Valid {
		res.Reason = "stored content does not match the recorded hash; the document was modified after it was hashed"
	}
	return res, nil
}

// HashBytes is the content digest used everywhere a document is anchored.
func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
