package file

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png" // PNG decoding
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/geopoint/geopoint-backend-go/internal/pkg/storage"
	"github.com/google/uuid"
	"golang.org/x/image/draw"
)

var (
	ErrInvalidDataURI   = errors.New("invalid data URI")
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrFileTooLarge     = errors.New("file is too large")
	ErrUndecodableImage = errors.New("image could not be decoded")
)

// Selfies are stored as JPEG no larger than this, downscaled as needed.
const (
	selfieMaxBytes = 150 * 1024
	selfieMaxEdge  = 1280
)

var mimeExts = map[string]string{
	"image/jpeg":      ".jpg",
	"image/jpg":       ".jpg",
	"image/png":       ".png",
	"application/pdf": ".pdf",
}

type FileService interface {
	// UploadSelfie compresses a punch photo and stores it under the workspace and day
	UploadSelfie(ctx context.Context, workspaceID, employeeID string, at time.Time, file io.Reader, filename string) (string, error)

	// UploadRequestAttachment stores a request document as sent
	UploadRequestAttachment(ctx context.Context, workspaceID, userID string, file io.Reader, filename string) (string, error)

	DeleteFile(ctx context.Context, key string) error

	FileURL(key string) string
}

type fileServiceImpl struct {
	storage storage.FileStorage
}

func NewFileService(storage storage.FileStorage) FileService {
	return &fileServiceImpl{storage: storage}
}

func (s *fileServiceImpl) UploadSelfie(ctx context.Context, workspaceID, employeeID string, at time.Time, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		return "", fmt.Errorf("%w: only jpg, jpeg, png allowed", ErrUnsupportedType)
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("failed to read selfie: %w", err)
	}

	compressed, err := compressSelfie(raw)
	if err != nil {
		return "", err
	}

	// selfies/{workspace}/{day}/{employee}-{uuid}.jpg, always JPEG after compression
	key := path.Join("selfies", workspaceID, at.Format("2006-01-02"),
		fmt.Sprintf("%s-%s.jpg", employeeID, uuid.Must(uuid.NewV7()).String()))

	uploaded, err := s.storage.Upload(ctx, bytes.NewReader(compressed), key, "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("failed to upload selfie: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) UploadRequestAttachment(ctx context.Context, workspaceID, userID string, file io.Reader, filename string) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	contentType := "application/octet-stream"
	switch ext {
	case ".pdf":
		contentType = "application/pdf"
	case ".jpg", ".jpeg":
		contentType = "image/jpeg"
	case ".png":
		contentType = "image/png"
	default:
		return "", fmt.Errorf("%w: only pdf, jpg, jpeg, png allowed", ErrUnsupportedType)
	}

	key := path.Join("requests", workspaceID, userID, uuid.Must(uuid.NewV7()).String()+ext)

	uploaded, err := s.storage.Upload(ctx, file, key, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to upload request attachment: %w", err)
	}
	return uploaded, nil
}

func (s *fileServiceImpl) DeleteFile(ctx context.Context, key string) error {
	return s.storage.Delete(ctx, key)
}

func (s *fileServiceImpl) FileURL(key string) string {
	return s.storage.URL(key)
}

// ParseDataURI decodes a base64 data URI ("data:image/png;base64,...") and
// returns its content with a synthetic filename carrying the right extension.
func ParseDataURI(uri string, maxSize int64) ([]byte, string, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, "", ErrInvalidDataURI
	}
	mediaType, encoding, ok := strings.Cut(meta, ";")
	if !ok || encoding != "base64" {
		return nil, "", ErrInvalidDataURI
	}

	ext, ok := mimeExts[strings.ToLower(mediaType)]
	if !ok {
		return nil, "", fmt.Errorf("%w: %s", ErrUnsupportedType, mediaType)
	}
	if int64(base64.StdEncoding.DecodedLen(len(payload))) > maxSize+2 {
		return nil, "", ErrFileTooLarge
	}

	content, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	if int64(len(content)) > maxSize {
		return nil, "", ErrFileTooLarge
	}
	return content, "upload" + ext, nil
}

// compressSelfie re-encodes as JPEG, shrinking the longest edge and then the quality
// until the result fits selfieMaxBytes. The smallest attempt is returned if none fits.
func compressSelfie(raw []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUndecodableImage, err)
	}

	var out []byte
	for _, edge := range []int{selfieMaxEdge, 960, 640} {
		scaled := fitWithin(img, edge)
		for _, quality := range []int{85, 70, 55} {
			buf := new(bytes.Buffer)
			if err := jpeg.Encode(buf, scaled, &jpeg.Options{Quality: quality}); err != nil {
				return nil, fmt.Errorf("failed to encode JPEG: %w", err)
			}
			out = buf.Bytes()
			if len(out) <= selfieMaxBytes {
				return out, nil
			}
		}
	}
	return out, nil
}

// fitWithin downscales src so neither side exceeds maxEdge, keeping the aspect ratio.
func fitWithin(src image.Image, maxEdge int) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxEdge && h <= maxEdge {
		return src
	}

	if w >= h {
		h = h * maxEdge / w
		w = maxEdge
	} else {
		w = w * maxEdge / h
		h = maxEdge
	}
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Over, nil)
	return dst
}
