package models

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityKind names an audited entity type.
type EntityKind string

// Audited entity kinds.
const (
	EntityProject EntityKind = "project"
	EntityBacklog EntityKind = "backlog"
)

// AuditRecord is one field change captured inside an update transaction.
// A nil value means the field was absent (SQL NULL), which no literal string
// can be confused with.
type AuditRecord struct {
	ID        uuid.UUID `json:"id"`
	EntityID  uuid.UUID `json:"entity_id"`
	FieldName string    `json:"field_name"`
	OldValue  *string   `json:"old_value"`
	NewValue  *string   `json:"new_value"`
	CreatedAt time.Time `json:"created_at"`
}

// AuditQueryOpts holds filters for querying field history.
type AuditQueryOpts struct {
	FieldName string
	Limit     int
	Offset    int
}

// Stringify renders a field value in its canonical stored form. It returns
// nil for nil and for nil pointers.
func Stringify(v any) *string {
	var s string

	switch t := v.(type) {
	case nil:
		return nil
	case string:
		s = t
	case *string:
		if t == nil {
			return nil
		}
		s = *t
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case float64:
		s = strconv.FormatFloat(t, 'g', -1, 64)
	case *float64:
		if t == nil {
			return nil
		}
		s = strconv.FormatFloat(*t, 'g', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	case time.Time:
		s = formatTime(t)
	case *time.Time:
		if t == nil {
			return nil
		}
		s = formatTime(*t)
	default:
		s = fmt.Sprint(t)
	}

	return &s
}

// Stored timestamps carry microsecond precision and the driver truncates, so
// the audit form truncates too.
func formatTime(t time.Time) string {
	return t.UTC().Truncate(time.Microsecond).Format(time.RFC3339Nano)
}

// RefID derives the human-readable reference of a backlog, e.g. "web-S3-1a2b3c4d".
func RefID(projectSlug string, sprint int, id uuid.UUID) string {
	short := id.String()[:8]
	return fmt.Sprintf("%s-S%d-%s", projectSlug, sprint, strings.ReplaceAll(short, "-", ""))
}

// DueDateFrom returns beg shifted by a fractional number of days.
func DueDateFrom(beg time.Time, estDays float64) time.Time {
	return beg.Add(time.Duration(estDays * float64(24*time.Hour)))
}
