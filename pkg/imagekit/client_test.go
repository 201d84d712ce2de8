package imagekit

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}
}

func TestClientUpload(t *testing.T) {
	rt := roundTripFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.String() != "http://ik.test/upload" {
			t.Fatalf("unexpected url %q", req.URL.String())
		}
		user, pass, ok := req.BasicAuth()
		if !ok || user != "private_key" || pass != "" {
			t.Fatalf("unexpected basic auth %q:%q", user, pass)
		}
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := req.FormValue("folder"); got != "complaints" {
			t.Fatalf("unexpected folder %q", got)
		}
		if got := req.FormValue("useUniqueFileName"); got != "true" {
			t.Fatalf("unexpected useUniqueFileName %q", got)
		}
		file, header, err := req.FormFile("file")
		if err != nil {
			t.Fatalf("form file: %v", err)
		}
		defer file.Close()
		content, _ := io.ReadAll(file)
		if string(content) != "png-bytes" || header.Filename != "pothole.png" {
			t.Fatalf("unexpected file %q %q", header.Filename, content)
		}
		return jsonResponse(http.StatusOK, `{"fileId":"f_1","name":"pothole.png","url":"https://ik.imagekit.io/demo/complaints/pothole.png"}`), nil
	})

	client, err := NewClient("private_key", WithUploadURL("http://ik.test/upload"), WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	result, err := client.Upload(context.Background(), UploadInput{
		FileName: "pothole.png",
		Folder:   "complaints",
		Content:  strings.NewReader("png-bytes"),
	})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if result.FileID != "f_1" || !strings.HasSuffix(result.URL, "/pothole.png") {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestClientUploadSurfacesProviderMessage(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return jsonResponse(http.StatusBadRequest, `{"message":"Your account cannot be authenticated."}`), nil
	})
	client, err := NewClient("private_key", WithHTTPClient(&http.Client{Transport: rt}))
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	_, err = client.Upload(context.Background(), UploadInput{FileName: "a.png", Content: strings.NewReader("x")})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeUpstream {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if typed.Message() != "Your account cannot be authenticated." {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient("  "); err == nil {
		t.Fatal("expected error for blank key")
	}
}
