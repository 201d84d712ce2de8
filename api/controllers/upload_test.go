package controllers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/civictrack/civictrack-backend/internal/media"
)

type stubMediaService struct {
	got     media.UploadInput
	content []byte
}

func (s *stubMediaService) Upload(_ context.Context, in media.UploadInput) (*media.UploadResult, error) {
	s.got = in
	s.content, _ = io.ReadAll(in.Content)
	return &media.UploadResult{URL: "https://ik.imagekit.io/demo/complaints/x.png", FileID: "file_1"}, nil
}

func multipartBody(t *testing.T, field string, content []byte, folder string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)
	if field != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="`+field+`"; filename="pothole.png"`)
		h.Set("Content-Type", "image/png")
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if folder != "" {
		if err := mw.WriteField("folder", folder); err != nil {
			t.Fatalf("write folder: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, mw.FormDataContentType()
}

func TestUploadForwardsFile(t *testing.T) {
	svc := &stubMediaService{}
	body, contentType := multipartBody(t, "file", []byte("\x89PNG\r\n\x1a\npixels"), "evidence")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	Upload(svc, 1024, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	if svc.got.FileName != "pothole.png" || svc.got.ContentType != "image/png" || svc.got.Folder != "evidence" {
		t.Fatalf("unexpected input %+v", svc.got)
	}
	if string(svc.content) != "\x89PNG\r\n\x1a\npixels" {
		t.Fatalf("unexpected content %q", svc.content)
	}
	var data media.UploadResult
	decodeSuccess(t, rec, &data)
	if data.FileID != "file_1" {
		t.Fatalf("unexpected result %+v", data)
	}
}

func TestUploadWithoutFile(t *testing.T) {
	body, contentType := multipartBody(t, "", nil, "evidence")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	Upload(&stubMediaService{}, 1024, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Error; msg != "No file provided" {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestUploadRejectsOversizedBody(t *testing.T) {
	const maxBytes = 1024 * 1024
	body, contentType := multipartBody(t, "file", bytes.Repeat([]byte("a"), maxBytes+multipartOverhead+1), "")
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	Upload(&stubMediaService{}, maxBytes, nil).ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", rec.Code)
	}
	if msg := decodeError(t, rec).Error; msg != "File size must be less than 1MB" {
		t.Fatalf("unexpected message %q", msg)
	}
}
