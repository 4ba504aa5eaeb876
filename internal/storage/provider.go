// Package storage defines the vault file-system abstraction.
package storage

import "github.com/starford/reboard/internal/models"

// Provider is the interface for vault file operations. All paths are
// slash-delimited and relative to the vault root.
type Provider interface {
	// List returns metadata for every .md file under dir. Dot-directories
	// (including the trash) are skipped.
	List(dir string) ([]models.NoteMetadata, error)
	// Stat returns metadata for a single .md file.
	Stat(path string) (models.NoteMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Create writes a new file; it fails with apperr.ErrAlreadyExists if
	// the path is taken.
	Create(path string, content []byte) error
	// Rename moves oldPath to newPath. The target must not exist.
	Rename(oldPath, newPath string) error
	// Trash soft-deletes the file by moving it into the trash directory.
	Trash(path string) error
}
