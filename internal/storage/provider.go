// Package storage is the file-system boundary of the engine: the Markdown
// inbox is read through it and export bundles are written through it.
package storage

import "time"

// FileInfo describes one Markdown file under the root.
type FileInfo struct {
	Path      string // relative to the root, slash separated
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for Markdown file operations.
type Provider interface {
	// Root returns the absolute directory the provider is confined to.
	Root() string
	// List returns every .md file under dir (relative to root). Hidden
	// files and directories are skipped.
	List(dir string) ([]FileInfo, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root).
	Write(path string, content []byte) error
	// WriteIfChanged is Write that skips files whose bytes already match.
	WriteIfChanged(path string, content []byte) (bool, error)
}
