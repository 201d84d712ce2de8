package media

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/oklog/ulid/v2"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/imagekit"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

const (
	defaultMaxBytes = 10 * 1024 * 1024
	defaultFolder   = "complaints"
)

type uploader interface {
	Upload(ctx context.Context, in imagekit.UploadInput) (*imagekit.UploadResult, error)
}

// UploadInput is one file received from a multipart form.
type UploadInput struct {
	FileName    string
	ContentType string
	Size        int64
	Folder      string
	Content     io.Reader
}

// UploadResult is returned to the client after a successful upload.
type UploadResult struct {
	URL    string `json:"url"`
	FileID string `json:"fileId"`
}

// Service validates images and proxies them to the image host.
type Service interface {
	Upload(ctx context.Context, in UploadInput) (*UploadResult, error)
}

type service struct {
	uploader      uploader
	maxBytes      int64
	defaultFolder string
	logg          *logger.Logger
}

// ServiceParams bundles the dependencies required to build a media service.
// A nil Uploader yields a service that reports storage as unconfigured.
type ServiceParams struct {
	Uploader      uploader
	MaxBytes      int64
	DefaultFolder string
	Logger        *logger.Logger
}

// NewService constructs a media service.
func NewService(params ServiceParams) (Service, error) {
	maxBytes := params.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	folder, ok := cleanFolder(params.DefaultFolder)
	if !ok {
		return nil, fmt.Errorf("invalid default folder %q", params.DefaultFolder)
	}
	if folder == "" {
		folder = defaultFolder
	}
	return &service{
		uploader:      params.Uploader,
		maxBytes:      maxBytes,
		defaultFolder: folder,
		logg:          params.Logger,
	}, nil
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*UploadResult, error) {
	if in.Content == nil || strings.TrimSpace(in.FileName) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No file provided")
	}
	mediaType, err := sniffMimeType(in.ContentType)
	if err != nil || !isImage(mediaType) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Only image files are allowed")
	}
	if in.Size > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, SizeLimitMessage(s.maxBytes))
	}
	folder, ok := cleanFolder(in.Folder)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "folder is invalid")
	}
	if folder == "" {
		folder = s.defaultFolder
	}
	if s.uploader == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUpstream, "Image storage is not configured")
	}

	// Guard against a client that under-reports Size.
	content := io.LimitReader(in.Content, s.maxBytes+1)
	counted := &countingReader{r: content}

	result, err := s.uploader.Upload(ctx, imagekit.UploadInput{
		FileName: ulid.Make().String() + extension(in.FileName),
		Folder:   folder,
		Content:  counted,
	})
	if counted.n > s.maxBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, SizeLimitMessage(s.maxBytes))
	}
	if err != nil {
		if s.logg != nil {
			s.logg.Error(s.logg.WithField(ctx, "folder", folder), "media.upload_failed", err)
		}
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeUpstream, err, "Upload failed")
	}
	return &UploadResult{URL: result.URL, FileID: result.FileID}, nil
}

// SizeLimitMessage is the validation message for files over maxBytes.
func SizeLimitMessage(maxBytes int64) string {
	const mib = 1024 * 1024
	if maxBytes%mib == 0 {
		return fmt.Sprintf("File size must be less than %dMB", maxBytes/mib)
	}
	return fmt.Sprintf("File size must be less than %d bytes", maxBytes)
}

type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
