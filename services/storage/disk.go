package storage

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// DiskStore keeps picture blobs under a local uploads directory and serves
// them as /uploads/<filename>.
type DiskStore struct {
	dir string
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating uploads directory: %v", err)
	}
	return &DiskStore{dir: dir}, nil
}

func (d *DiskStore) Save(_ context.Context, r io.Reader, filename string) (string, error) {
	path := filepath.Join(d.dir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %v", path, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, r); err != nil {
		return "", fmt.Errorf("failed to write %s: %v", path, err)
	}

	return "/uploads/" + filename, nil
}

func (d *DiskStore) Delete(_ context.Context, filename string) bool {
	if err := os.Remove(filepath.Join(d.dir, filename)); err != nil {
		log.Printf("error deleting file %s: %v", filename, err)
		return false
	}
	return true
}
