package complaints

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/multierr"

	pkgerrors "github.com/civictrack/civictrack-backend/pkg/errors"
)

const (
	maxImages        = 5
	maxTextLen       = 500
	maxDepartmentLen = 100
)

// fieldErrors collects field failures so a request is rejected once with
// every problem listed.
type fieldErrors struct {
	err error
}

func (f *fieldErrors) add(field, msg string) {
	f.err = multierr.Append(f.err, fmt.Errorf("%s %s", field, msg))
}

// maxRunes records a failure when value is longer than limit characters.
func (f *fieldErrors) maxRunes(field, value string, limit int) bool {
	if utf8.RuneCountInString(value) > limit {
		f.add(field, fmt.Sprintf("must be at most %d characters", limit))
		return false
	}
	return true
}

func (f *fieldErrors) result() error {
	if f.err == nil {
		return nil
	}
	parts := multierr.Errors(f.err)
	msgs := make([]string, 0, len(parts))
	for _, p := range parts {
		msgs = append(msgs, p.Error())
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, f.err, strings.Join(msgs, ", "))
}
