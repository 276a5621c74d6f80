package homework

import "time"

// Status is the review status string reported by the API.
type Status string

const (
	StatusApproved   Status = "approved"
	StatusReviewing  Status = "reviewing"
	StatusRejected   Status = "rejected"
	StatusUnassigned Status = "" // reported before a reviewer picks the work up
)

// Record is a single homework entry from the API. Only the most recent one
// is ever inspected per cycle.
type Record struct {
	Name            string
	Status          Status
	ReviewerComment string
	DateUpdated     *time.Time // reviewed-at, if the API reported it

	hasName   bool
	hasStatus bool
	fields    int
	notObject string // JSON type of the element when it was not an object
}

// NewRecord returns a record carrying both required keys.
func NewRecord(name string, status Status) Record {
	return Record{Name: name, Status: status, hasName: true, hasStatus: true, fields: 2}
}

// IsEmpty reports whether the source object had no keys at all.
func (r Record) IsEmpty() bool { return r.fields == 0 }

func recordFromValue(v any) Record {
	obj, ok := v.(map[string]any)
	if !ok {
		return Record{notObject: jsonTypeName(v)}
	}
	return recordFromObject(obj)
}

// recordFromObject copies the known keys out of a decoded JSON object.
// Values of the wrong type are treated as absent.
func recordFromObject(obj map[string]any) Record {
	rec := Record{fields: len(obj)}
	if v, ok := obj["homework_name"].(string); ok {
		rec.Name = v
		rec.hasName = true
	}
	if v, ok := obj["status"].(string); ok {
		rec.Status = Status(v)
		rec.hasStatus = true
	}
	if v, ok := obj["reviewer_comment"].(string); ok {
		rec.ReviewerComment = v
	}
	if v, ok := obj["date_updated"].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			rec.DateUpdated = &t
		}
	}
	return rec
}
