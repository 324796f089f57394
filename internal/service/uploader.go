package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/gabriel-vasile/mimetype"
)

// ErrUnsupportedFileType indicates the upload is not on the allow-list.
var ErrUnsupportedFileType = errors.New("unsupported file type")

// ErrUploadsDisabled is returned when no upload backend is configured.
var ErrUploadsDisabled = errors.New("file uploads are disabled")

// FileUploader abstracts uploading binary data and returning a URL.
type FileUploader interface {
	Upload(ctx context.Context, name string, reader io.Reader) (string, error)
}

var allowedUploadTypes = []string{
	"application/pdf",
	"application/zip",
	"application/x-zip-compressed",
	"text/plain",
	"image/png",
	"image/jpeg",
}

// detectFileType checks the upload against the allow-list and returns the
// detected MIME type.
func detectFileType(file *multipart.FileHeader) (string, error) {
	reader, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer reader.Close()

	mime, err := mimetype.DetectReader(reader)
	if err != nil {
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	for _, allowed := range allowedUploadTypes {
		if mime.Is(allowed) {
			return mime.String(), nil
		}
	}

	return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, mime.String())
}

// uploadMultipart streams the file through the uploader and returns its URL.
func uploadMultipart(ctx context.Context, uploader FileUploader, file *multipart.FileHeader) (string, error) {
	if uploader == nil {
		return "", ErrUploadsDisabled
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	url, err := uploader.Upload(ctx, file.Filename, src)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return url, nil
}
