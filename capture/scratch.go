package capture

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const (
	// UploadsDirName holds file parts extracted from multipart requests
	UploadsDirName = "mataki_uploads"

	// ImagesDirName holds image bodies extracted from responses
	ImagesDirName = "mataki_images"
)

// Scratch persists extracted payloads under two sibling directories of a root,
// the platform temp directory unless configured otherwise.
type Scratch struct {
	Root string
}

// NewScratch creates scratch storage rooted at root, os.TempDir() when root is empty
func NewScratch(root string) *Scratch {
	if root == "" {
		root = os.TempDir()
	}
	return &Scratch{Root: root}
}

// UploadsDir returns the directory used for multipart file parts
func (s *Scratch) UploadsDir() string {
	return filepath.Join(s.root(), UploadsDirName)
}

// ImagesDir returns the directory used for image bodies
func (s *Scratch) ImagesDir() string {
	return filepath.Join(s.root(), ImagesDirName)
}

// SaveUpload writes a multipart file part as <uuid>_<original name> and returns its path
func (s *Scratch) SaveUpload(fileName string, data []byte) (string, error) {
	// only the base name of a client-supplied file name is trusted
	name := filepath.Base(filepath.Clean("/" + fileName))
	if name == "/" || name == "." {
		name = "upload"
	}
	return s.save(s.UploadsDir(), uuid.NewString()+"_"+name, data)
}

// SaveImage writes an image body as <uuid><ext> and returns its path
func (s *Scratch) SaveImage(ext string, data []byte) (string, error) {
	return s.save(s.ImagesDir(), uuid.NewString()+ext, data)
}

func (s *Scratch) save(dir, name string, data []byte) (string, error) {
	// MkdirAll succeeds when the directory already exists
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create scratch directory: %w", err)
	}

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write scratch file: %w", err)
	}
	return path, nil
}

func (s *Scratch) root() string {
	if s == nil || s.Root == "" {
		return os.TempDir()
	}
	return s.Root
}
