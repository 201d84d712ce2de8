package media

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/imagekit"
)

type stubUploader struct {
	got  imagekit.UploadInput
	body string
	err  error
}

func (s *stubUploader) Upload(_ context.Context, in imagekit.UploadInput) (*imagekit.UploadResult, error) {
	s.got = in
	raw, _ := io.ReadAll(in.Content)
	s.body = string(raw)
	if s.err != nil {
		return nil, s.err
	}
	return &imagekit.UploadResult{FileID: "file_1", URL: "https://ik.example/" + in.Folder + "/" + in.FileName}, nil
}

func newService(t *testing.T, up uploader, maxBytes int64) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{Uploader: up, MaxBytes: maxBytes, DefaultFolder: "complaints"})
	require.NoError(t, err)
	return svc
}

func TestUploadNamesObjectAndDefaultsFolder(t *testing.T) {
	up := &stubUploader{}
	svc := newService(t, up, 0)

	result, err := svc.Upload(context.Background(), UploadInput{
		FileName:    "Pothole.JPG",
		ContentType: "image/jpeg",
		Size:        5,
		Content:     strings.NewReader("bytes"),
	})
	require.NoError(t, err)
	assert.Equal(t, "file_1", result.FileID)
	assert.Equal(t, "complaints", up.got.Folder)
	assert.True(t, strings.HasSuffix(up.got.FileName, ".jpg"))
	assert.Len(t, up.got.FileName, 26+len(".jpg"))
	assert.Equal(t, "bytes", up.body)
}

func TestUploadValidation(t *testing.T) {
	svc := newService(t, &stubUploader{}, 8)
	ctx := context.Background()

	cases := map[string]struct {
		in      UploadInput
		message string
	}{
		"missing file": {UploadInput{ContentType: "image/png"}, "No file provided"},
		"not an image": {UploadInput{FileName: "a.pdf", ContentType: "application/pdf", Content: strings.NewReader("x")}, "Only image files are allowed"},
		"too large":    {UploadInput{FileName: "a.png", ContentType: "image/png", Size: 9, Content: strings.NewReader("123456789")}, "File size must be less than 8 bytes"},
		"bad folder":   {UploadInput{FileName: "a.png", ContentType: "image/png", Folder: "../etc", Content: strings.NewReader("x")}, "folder is invalid"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Upload(ctx, tc.in)
			require.Error(t, err)
			assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			assert.Equal(t, tc.message, pkgerrors.As(err).Message())
		})
	}
}

func TestUploadRejectsUnderReportedSize(t *testing.T) {
	svc := newService(t, &stubUploader{}, 4)
	_, err := svc.Upload(context.Background(), UploadInput{
		FileName:    "a.png",
		ContentType: "image/png",
		Size:        1,
		Content:     strings.NewReader("far too many bytes"),
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUploadFailures(t *testing.T) {
	unconfigured := newService(t, nil, 0)
	_, err := unconfigured.Upload(context.Background(), UploadInput{FileName: "a.png", ContentType: "image/png", Content: strings.NewReader("x")})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUpstream))

	failing := newService(t, &stubUploader{err: errors.New("connection reset")}, 0)
	_, err = failing.Upload(context.Background(), UploadInput{FileName: "a.png", ContentType: "image/png", Content: strings.NewReader("x")})
	require.Error(t, err)
	assert.Equal(t, "Upload failed", pkgerrors.As(err).Message())
}

func TestSizeLimitMessage(t *testing.T) {
	assert.Equal(t, "File size must be less than 10MB", SizeLimitMessage(10*1024*1024))
}

func TestCleanFolder(t *testing.T) {
	got, ok := cleanFolder("/complaints/2025/")
	assert.True(t, ok)
	assert.Equal(t, "complaints/2025", got)

	_, ok = cleanFolder("a//b")
	assert.False(t, ok)
}
