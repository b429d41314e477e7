package form

import (
	"unicode/utf8"

	"github.com/bancalia/finconsole/packages/product_console/internal/dates"
	"github.com/bancalia/finconsole/packages/product_console/internal/models"
)

// Field names a form field. The values double as the wire field names.
type Field string

const (
	FieldID           Field = "id"
	FieldName         Field = "name"
	FieldDescription  Field = "description"
	FieldLogo         Field = "logo"
	FieldDateRelease  Field = "date_release"
	FieldDateRevision Field = "date_revision"
)

// Fields lists every form field in display order.
var Fields = []Field{
	FieldID, FieldName, FieldDescription, FieldLogo, FieldDateRelease, FieldDateRevision,
}

// ErrorCode identifies one validation failure on a field.
type ErrorCode string

const (
	ErrRequired   ErrorCode = "required"
	ErrMinLength  ErrorCode = "minlength"
	ErrMaxLength  ErrorCode = "maxlength"
	ErrDateInPast ErrorCode = "dateInPast"
	ErrIDExists   ErrorCode = "idExists"
)

// explainOrder is the precedence used when a field carries several
// errors at once; the first applicable message wins.
var explainOrder = []ErrorCode{ErrRequired, ErrMinLength, ErrMaxLength, ErrDateInPast, ErrIDExists}

type rule struct {
	required bool
	min, max int
	notPast  bool
}

var rules = map[Field]rule{
	FieldID:           {required: true, min: 3, max: 10},
	FieldName:         {required: true, min: 5, max: 100},
	FieldDescription:  {required: true, min: 10, max: 200},
	FieldLogo:         {required: true},
	FieldDateRelease:  {required: true, notPast: true},
	FieldDateRevision: {required: true},
}

// MinIDLength is the threshold below which the uniqueness check is not
// worth running.
const MinIDLength = 3

// Validate runs the synchronous rules for one field value. The async
// uniqueness rule and the revision derivation live elsewhere; this is
// the pure part.
func Validate(field Field, value string, today models.Date) []ErrorCode {
	r := rules[field]
	var errs []ErrorCode
	if value == "" {
		if r.required {
			errs = append(errs, ErrRequired)
		}
		return errs
	}
	length := utf8.RuneCountInString(value)
	if r.min > 0 && length < r.min {
		errs = append(errs, ErrMinLength)
	}
	if r.max > 0 && length > r.max {
		errs = append(errs, ErrMaxLength)
	}
	if r.notPast {
		d, err := models.ParseDate(value)
		if err != nil || !dates.IsNotPast(d, today) {
			errs = append(errs, ErrDateInPast)
		}
	}
	return errs
}

// derivation is a directed edge in the field dependency table: mutating
// source rewrites target. The derived write never marks target dirty.
type derivation struct {
	source, target Field
	derive         func(string) (string, bool)
}

var derivations = []derivation{
	{source: FieldDateRelease, target: FieldDateRevision, derive: deriveRevisionValue},
}

func deriveRevisionValue(value string) (string, bool) {
	d, err := models.ParseDate(value)
	if err != nil {
		return "", false
	}
	return dates.DeriveRevision(d).String(), true
}
