// Package storage defines the protocol directory abstraction.
package storage

import "github.com/starford/linkograph/internal/models"

// Ext is the file extension of protocol files.
const Ext = ".md"

// Provider is the interface for protocol file operations.
type Provider interface {
	// List returns metadata for every protocol file under dir (relative to root).
	List(dir string) ([]models.ProtocolFile, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
