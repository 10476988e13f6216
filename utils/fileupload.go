package utils

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
)

const (
	// MaxFileSize is 10MB in bytes
	MaxFileSize = 10 * 1024 * 1024
)

// AllowedImageTypes maps accepted content types to the extension used for storage keys
var AllowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// FileUploadError represents a file upload validation error
type FileUploadError struct {
	Code    string
	Message string
}

func (e *FileUploadError) Error() string {
	return e.Message
}

// DecodeImageDataURL decodes a base64 data URL ("data:image/png;base64,....")
// and validates the decoded image
func DecodeImageDataURL(dataURL string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(dataURL, ",")
	if !ok || !strings.HasPrefix(header, "data:") || !strings.HasSuffix(header, ";base64") {
		return nil, "", &FileUploadError{
			Code:    "INVALID_IMAGE",
			Message: "Image must be a base64 data URL",
		}
	}

	// reject before decoding anything larger than the limit
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxFileSize+2 {
		return nil, "", fileTooLarge()
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", &FileUploadError{
			Code:    "INVALID_IMAGE",
			Message: "Image data is not valid base64",
		}
	}

	contentType, err := ValidateImage(content)
	if err != nil {
		return nil, "", err
	}
	return content, contentType, nil
}

// ValidateImage checks the size and sniffed content type of an image and returns the content type
func ValidateImage(content []byte) (string, error) {
	if len(content) == 0 {
		return "", &FileUploadError{
			Code:    "INVALID_IMAGE",
			Message: "Image is empty",
		}
	}
	if len(content) > MaxFileSize {
		return "", fileTooLarge()
	}

	contentType := http.DetectContentType(content)
	if _, ok := AllowedImageTypes[contentType]; !ok {
		return "", &FileUploadError{
			Code:    "INVALID_FILE_FORMAT",
			Message: "Only PNG, JPEG and WebP images are allowed",
		}
	}
	return contentType, nil
}

// IsDataURL reports whether s looks like an inline data URL rather than a stored key or link
func IsDataURL(s string) bool {
	return strings.HasPrefix(s, "data:")
}

func fileTooLarge() error {
	return &FileUploadError{
		Code:    "FILE_TOO_LARGE",
		Message: fmt.Sprintf("File size exceeds maximum allowed size of %d MB", MaxFileSize/(1024*1024)),
	}
}
