package controllers

import (
	"net/http"

	"github.com/civictrack/civictrack-backend/api/responses"
	"github.com/civictrack/civictrack-backend/api/validators"
	"github.com/civictrack/civictrack-backend/internal/complaints"
	"github.com/civictrack/civictrack-backend/pkg/enums"
	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

func complaintListQuery(r *http.Request) (complaints.ListQuery, error) {
	page, err := validators.Page(r)
	if err != nil {
		return complaints.ListQuery{}, err
	}

	q := complaints.ListQuery{
		Status:   validators.QueryString(r, "status", 32),
		Category: validators.QueryString(r, "category", 100),
		Priority: validators.QueryString(r, "priority", 32),
		Page:     page,
	}
	if q.Status != "" && !enums.ComplaintStatus(q.Status).IsValid() {
		return complaints.ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "status must be one of: submitted, in-progress, resolved, closed")
	}
	if q.Priority != "" && !enums.Priority(q.Priority).IsValid() {
		return complaints.ListQuery{}, pkgerrors.New(pkgerrors.CodeValidation, "priority must be one of: low, medium, high, critical")
	}
	return q, nil
}

// ComplaintsList returns the caller's scoped, filtered and paginated view.
func ComplaintsList(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		q, err := complaintListQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, page, err := svc.List(r.Context(), actor, q)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WritePage(w, rows, page)
	}
}

// ComplaintCreate records a new complaint submitted by the caller.
func ComplaintCreate(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body complaints.CreateComplaintRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), actor, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ComplaintsTargetedUpdate applies a staff status/assignment/remark update
// to the complaint named in the body.
func ComplaintsTargetedUpdate(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body complaints.TargetedUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithComplaintID(ctx, body.ID)
		}
		updated, err := svc.TargetedUpdate(ctx, actor, body)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ComplaintGet returns one complaint inside the caller's read scope.
func ComplaintGet(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		complaint, err := svc.Get(r.Context(), actor, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, complaint)
	}
}

// ComplaintEdit applies a general edit limited to the caller's field allow-list.
func ComplaintEdit(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		// Unknown keys are tolerated: the allow-list drops what the role cannot set.
		var body complaints.EditComplaintRequest
		if err := validators.DecodeJSONBodyLenient(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Edit(r.Context(), actor, id, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// ComplaintDelete removes a complaint. Only super-admins pass the policy.
func ComplaintDelete(svc complaints.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := pathUUID(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), actor, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessMessage(w, nil, "Complaint deleted successfully")
	}
}
