package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		publicMsg string
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, publicMsg: "Validation failed", detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized, publicMsg: "Unauthorized"},
		{code: CodeForbidden, status: http.StatusForbidden, publicMsg: "Forbidden"},
		{code: CodeNotFound, status: http.StatusNotFound, publicMsg: "Not found"},
		{code: CodeConflict, status: http.StatusConflict, publicMsg: "Conflict"},
		{code: CodeRateLimit, status: http.StatusTooManyRequests, publicMsg: "Too many requests"},
		{code: CodeUpstream, status: http.StatusInternalServerError, publicMsg: "Upstream service failed", retryable: true},
		{code: CodeInternal, status: http.StatusInternalServerError, publicMsg: "Internal server error", retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, publicMsg: "Service unavailable", retryable: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.PublicMessage != tt.publicMsg {
			t.Fatalf("code %s expected public message %q got %q", tt.code, tt.publicMsg, meta.PublicMessage)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestErrorConstructors(t *testing.T) {
	base := New(CodeValidation, "missing foo")
	if base.Code() != CodeValidation {
		t.Fatalf("expected validation code, got %s", base.Code())
	}
	if base.Message() != "missing foo" {
		t.Fatalf("unexpected message %q", base.Message())
	}
	if base.Details() != nil {
		t.Fatalf("details should be nil by default")
	}

	base.WithDetails(map[string]any{"field": "foo"})
	if base.Details() == nil {
		t.Fatalf("details should be preserved")
	}

	cause := stdErrors.New("boom")
	wrapped := Wrap(CodeConflict, cause, "ctx")
	if !stdErrors.Is(wrapped, cause) {
		t.Fatalf("Wrap did not preserve cause")
	}
	if wrapped.Error() != "CONFLICT: ctx" {
		t.Fatalf("unexpected error string %q", wrapped.Error())
	}
}

func TestPublicHidesInternalMessages(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    Code
		message string
	}{
		{name: "untyped", err: stdErrors.New("pq: connection refused"), code: CodeInternal, message: "Internal server error"},
		{name: "internal", err: Wrap(CodeInternal, stdErrors.New("x"), "load user"), code: CodeInternal, message: "Internal server error"},
		{name: "unauthorized", err: New(CodeUnauthorized, "token expired"), code: CodeUnauthorized, message: "Unauthorized"},
		{name: "not found", err: New(CodeNotFound, "Complaint not found"), code: CodeNotFound, message: "Complaint not found"},
		{name: "upstream", err: New(CodeUpstream, "Image upload failed"), code: CodeUpstream, message: "Image upload failed"},
		{name: "wrapped twice", err: fmt.Errorf("outer: %w", New(CodeForbidden, "Only super admins")), code: CodeForbidden, message: "Only super admins"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := Public(tt.err)
			if code != tt.code || msg != tt.message {
				t.Fatalf("expected (%s, %q) got (%s, %q)", tt.code, tt.message, code, msg)
			}
		})
	}
}

func TestAsReturnsTypedError(t *testing.T) {
	err := fmt.Errorf("context: %w", New(CodeForbidden, "no entry"))
	typed := As(err)
	if typed == nil || typed.Code() != CodeForbidden {
		t.Fatalf("expected forbidden typed error, got %v", typed)
	}
	if !IsCode(err, CodeForbidden) {
		t.Fatal("expected IsCode to match")
	}
	if As(stdErrors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}
