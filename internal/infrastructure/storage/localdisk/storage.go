package localdisk

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Storage keeps primary copies under <uploadDir>/<batch-timestamp>/ and a
// flat backup copy of every blob under <backupDir>/.
type Storage struct {
	uploadDir string
	backupDir string
}

func New(uploadDir, backupDir string) (*Storage, error) {
	if uploadDir == "" {
		uploadDir = "./uploads"
	}
	if backupDir == "" {
		backupDir = "./backup"
	}
	if err := os.MkdirAll(uploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}
	return &Storage{uploadDir: uploadDir, backupDir: backupDir}, nil
}

// Save writes the primary blob and its backup copy. Both writes must succeed;
// a failed backup removes the primary so no half-received file survives.
func (s *Storage) Save(_ context.Context, batchID, storageName string, data io.Reader) (string, error) {
	batchDir := filepath.Join(s.uploadDir, batchID)
	if err := os.MkdirAll(batchDir, 0o755); err != nil {
		return "", fmt.Errorf("create batch dir: %w", err)
	}

	primary := filepath.Join(batchDir, storageName)
	if err := writeFile(primary, data); err != nil {
		removeIfPresent(primary)
		return "", fmt.Errorf("write primary copy: %w", err)
	}

	backup := filepath.Join(s.backupDir, storageName)
	if err := copyFile(primary, backup); err != nil {
		removeIfPresent(primary)
		removeIfPresent(backup)
		return "", fmt.Errorf("write backup copy: %w", err)
	}

	return primary, nil
}

func (s *Storage) Open(_ context.Context, path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open stored file: %w", err)
	}
	return f, nil
}

// Remove deletes the primary blob and its backup. Missing files are fine;
// delete is best-effort by contract.
func (s *Storage) Remove(_ context.Context, path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove primary copy: %w", err)
	}
	backup := filepath.Join(s.backupDir, filepath.Base(path))
	if err := os.Remove(backup); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove backup copy: %w", err)
	}
	return nil
}

func (s *Storage) Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func writeFile(path string, data io.Reader) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, data); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	return f.Sync()
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer in.Close()
	return writeFile(dst, in)
}

func removeIfPresent(path string) {
	_ = os.Remove(path)
}
