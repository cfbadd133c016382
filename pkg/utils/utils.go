package utils

import (
	"DebrisDetector/internal/api/detection"
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/nfnt/resize"
	"github.com/oklog/ulid/v2"
)

const (
	DefaultMaxFileSize      = 10 * 1024 * 1024
	DefaultPreviewDimension = 512
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	ReadImageFile(file *multipart.FileHeader) ([]byte, string, error)
	DetectContentType(data []byte) string
	MakePreview(data []byte) string
}

type utils struct {
	maxFileSize      int64
	previewDimension uint
}

func New() IUtils {
	return NewWithLimits(DefaultMaxFileSize, DefaultPreviewDimension)
}

// NewWithLimits returns utils using the given upload limit and preview bound.
// A previewDimension of zero keeps previews at full size.
func NewWithLimits(maxFileSize int64, previewDimension uint) IUtils {
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}
	return &utils{
		maxFileSize:      maxFileSize,
		previewDimension: previewDimension,
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if file == nil {
		return detection.ErrNoFileSelected
	}

	if file.Size == 0 {
		return detection.ErrEmptyFile
	}

	if file.Size > u.maxFileSize {
		return detection.ErrFileTooLarge
	}

	contentType := file.Header.Get("Content-Type")
	if contentType != "" && contentType != "application/octet-stream" && !strings.HasPrefix(contentType, "image/") {
		return detection.ErrInvalidFileType
	}

	return nil
}

// ReadImageFile validates the upload and returns its bytes with the sniffed content type.
func (u *utils) ReadImageFile(file *multipart.FileHeader) ([]byte, string, error) {
	if err := u.ValidateImageFile(file); err != nil {
		return nil, "", err
	}

	src, err := file.Open()
	if err != nil {
		return nil, "", err
	}
	defer src.Close()

	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > u.maxFileSize {
		return nil, "", detection.ErrFileTooLarge
	}

	contentType := u.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return nil, "", detection.ErrInvalidFileType
	}

	return data, contentType, nil
}

func (u *utils) DetectContentType(data []byte) string {
	return mimetype.Detect(data).String()
}

// MakePreview returns a data URI for data. Decodable images larger than the
// preview bound are downscaled; anything else is embedded as is.
func (u *utils) MakePreview(data []byte) string {
	contentType := u.DetectContentType(data)
	if u.previewDimension == 0 {
		return DataURI(contentType, data)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return DataURI(contentType, data)
	}

	bounds := img.Bounds()
	if uint(bounds.Dx()) <= u.previewDimension && uint(bounds.Dy()) <= u.previewDimension {
		return DataURI(contentType, data)
	}

	thumb := resize.Thumbnail(u.previewDimension, u.previewDimension, img, resize.Lanczos3)

	var buf bytes.Buffer
	switch format {
	case "png", "gif":
		err = png.Encode(&buf, thumb)
		contentType = "image/png"
	default:
		err = jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85})
		contentType = "image/jpeg"
	}
	if err != nil {
		return DataURI(u.DetectContentType(data), data)
	}

	return DataURI(contentType, buf.Bytes())
}

func DataURI(contentType string, data []byte) string {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
