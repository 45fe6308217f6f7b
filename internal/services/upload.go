package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/example/horeca/internal/apperr"
	"github.com/example/horeca/internal/logging"
)

const MaxUploadSize = 10 << 20

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".gif":  true,
	".svg":  true,
	".pdf":  true,
}

// Uploader stores an asset and returns its public URL.
type Uploader interface {
	Save(ctx context.Context, file *multipart.FileHeader) (string, error)
}

// LocalUploader writes assets under a directory served statically.
type LocalUploader struct {
	dir     string
	baseURL string
	log     *slog.Logger
}

func NewLocalUploader(dir, baseURL string, log *slog.Logger) *LocalUploader {
	return &LocalUploader{
		dir:     dir,
		baseURL: strings.TrimRight(baseURL, "/"),
		log:     logging.Component(log, "upload"),
	}
}

func (u *LocalUploader) Save(ctx context.Context, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", apperr.Validation("file is required")
	}
	if file.Size > MaxUploadSize {
		return "", apperr.Validationf("file exceeds %d MB", MaxUploadSize>>20)
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return "", apperr.Validationf("file type %q is not allowed", ext)
	}
	if err := ctx.Err(); err != nil {
		return "", apperr.FromStore(err, "upload")
	}

	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return "", apperr.Dependency("upload storage unavailable", err)
	}

	src, err := file.Open()
	if err != nil {
		return "", apperr.Dependency("read upload", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dst, err := os.Create(filepath.Join(u.dir, name))
	if err != nil {
		return "", apperr.Dependency("write upload", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", apperr.Dependency("write upload", err)
	}
	if err := dst.Close(); err != nil {
		return "", apperr.Dependency("write upload", err)
	}

	u.log.Info("asset stored", "name", name, "size", file.Size)
	return fmt.Sprintf("%s/%s", u.baseURL, name), nil
}
