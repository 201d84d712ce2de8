package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
	"github.com/civictrack/civictrack-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	send(w, http.StatusOK, types.SuccessEnvelope{Success: true, Data: data})
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	send(w, status, types.SuccessEnvelope{Success: true, Data: data})
}

// WriteSuccessMessage writes data together with a human readable note.
func WriteSuccessMessage(w http.ResponseWriter, data any, message string) {
	send(w, http.StatusOK, types.SuccessEnvelope{Success: true, Data: data, Message: message})
}

// WritePage writes a listing together with its pagination block.
func WritePage(w http.ResponseWriter, data any, page types.Pagination) {
	send(w, http.StatusOK, types.SuccessEnvelope{Success: true, Data: data, Pagination: &page})
}

// WriteError maps err onto its HTTP status and public message. Untyped errors
// are treated as internal. 5xx responses are logged as errors, the rest as
// warnings; a nil logger skips logging.
func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("nil error passed to WriteError")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	if logg != nil {
		fields := pkgerrors.LogFields(err)
		fields["http_status"] = meta.HTTPStatus
		ctx = logg.WithFields(ctx, fields)
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	send(w, meta.HTTPStatus, envelopeFor(typed, meta))
}

func envelopeFor(typed *pkgerrors.Error, meta pkgerrors.Metadata) types.ErrorEnvelope {
	code, msg := pkgerrors.Public(typed)
	env := types.ErrorEnvelope{Error: msg, Code: string(code)}
	if meta.DetailsAllowed && typed.Details() != nil {
		env.Details = typed.Details()
	}
	return env
}

func send(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// Headers are already on the wire; all that is left is to record it.
		log.Error().Err(err).Int("status", status).Msg("response.encode_failed")
	}
}
