package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrFileNotFound    = errors.New("không tìm thấy file")
	ErrInvalidFileName = errors.New("tên file không hợp lệ")
)

// FileStore lưu file tải lên theo tên phẳng, không có thư mục con.
type FileStore interface {
	Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error)
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// StoredName sinh tên lưu trữ "<uuid>_<tên gốc>".
func StoredName(original string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(original, "\\", "/"))
	if err := ValidateFileName(base); err != nil {
		return "", err
	}
	return uuid.NewString() + "_" + base, nil
}

// ValidateFileName chặn path traversal: chỉ nhận tên file đơn.
func ValidateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidFileName
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return ErrInvalidFileName
	}
	return nil
}

// DownloadURL là đường dẫn API trả về file đã lưu.
func DownloadURL(name string) string {
	return "/api/files/download/" + name
}

type LocalStore struct {
	dir string
}

func NewLocalStore(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("tạo thư mục files: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	stored, err := StoredName(name)
	if err != nil {
		return "", err
	}
	f, err := os.OpenFile(filepath.Join(s.dir, stored), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return stored, nil
}

func (s *LocalStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateFileName(name); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrFileNotFound
	}
	return f, err
}

func (s *LocalStore) Delete(ctx context.Context, name string) error {
	if err := ValidateFileName(name); err != nil {
		return err
	}
	err := os.Remove(filepath.Join(s.dir, name))
	if errors.Is(err, os.ErrNotExist) {
		return ErrFileNotFound
	}
	return err
}
