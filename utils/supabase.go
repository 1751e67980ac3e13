package utils

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseStore lưu file vào một bucket Supabase Storage, dưới prefix "files/".
type SupabaseStore struct {
	client *storage.Client
	bucket string
}

func NewSupabaseStore(supabaseURL, key, bucket string) (*SupabaseStore, error) {
	if supabaseURL == "" || key == "" {
		return nil, errors.New("SUPABASE_URL hoặc SUPABASE_KEY chưa cấu hình")
	}
	if bucket == "" {
		bucket = "uploads"
	}
	client := storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", key, nil)
	return &SupabaseStore{client: client, bucket: bucket}, nil
}

func objectPath(name string) string {
	return "files/" + name
}

func (s *SupabaseStore) Save(ctx context.Context, name string, r io.Reader, contentType string) (string, error) {
	stored, err := StoredName(name)
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = ContentTypeFor(stored)
	}
	options := storage.FileOptions{ContentType: &contentType}
	if _, err := s.client.UploadFile(s.bucket, objectPath(stored), &buf, options); err != nil {
		return "", err
	}
	return stored, nil
}

func (s *SupabaseStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateFileName(name); err != nil {
		return nil, err
	}
	data, err := s.client.DownloadFile(s.bucket, objectPath(name))
	if err != nil {
		return nil, mapStorageError(err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *SupabaseStore) Delete(ctx context.Context, name string) error {
	if err := ValidateFileName(name); err != nil {
		return err
	}
	_, err := s.client.RemoveFile(s.bucket, []string{objectPath(name)})
	return mapStorageError(err)
}

func mapStorageError(err error) error {
	if err == nil {
		return nil
	}
	var se *storage.StorageError
	if errors.As(err, &se) {
		if se.Status == http.StatusNotFound || strings.Contains(strings.ToLower(se.Message), "not found") {
			return ErrFileNotFound
		}
	}
	return err
}
