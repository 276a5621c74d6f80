package homework

import (
	"encoding/json"
	"fmt"
	"math"
)

// RawResponse is the API body decoded without a schema.
type RawResponse = any

// Response is a payload that passed Validate.
type Response struct {
	// Homeworks keeps the elements as decoded. Only the one Latest returns
	// is ever converted into a Record.
	Homeworks []any
	// CurrentDate is nil when the server sent null or 0 for current_date.
	CurrentDate *int64
}

// Validate enforces the shape of the homework_statuses payload.
func Validate(raw RawResponse) (*Response, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("response is %s, not an object", jsonTypeName(raw)))
	}

	hwRaw, ok := obj["homeworks"]
	if !ok {
		return nil, NewError(KindMalformedResponse, "validate", "response has no homeworks key")
	}
	hwList, ok := hwRaw.([]any)
	if !ok {
		return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("homeworks is %s, not a list", jsonTypeName(hwRaw)))
	}

	dateRaw, ok := obj["current_date"]
	if !ok {
		return nil, NewError(KindMalformedResponse, "validate", "response has no current_date key")
	}
	currentDate, err := parseCurrentDate(dateRaw)
	if err != nil {
		return nil, err
	}

	return &Response{Homeworks: hwList, CurrentDate: currentDate}, nil
}

// Latest returns the most recent homework, which the API lists first.
func (r *Response) Latest() (Record, bool) {
	if len(r.Homeworks) == 0 {
		return Record{}, false
	}
	return recordFromValue(r.Homeworks[0]), true
}

func parseCurrentDate(v any) (*int64, error) {
	var ts int64
	switch n := v.(type) {
	case nil:
		return nil, nil
	case float64:
		if n != math.Trunc(n) {
			return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("current_date %v is not an integer", n))
		}
		if n < 0 || n >= math.MaxInt64 {
			return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("current_date %v is out of range", n))
		}
		ts = int64(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return nil, WrapError(KindMalformedResponse, "validate", fmt.Errorf("current_date %q: %w", n.String(), err))
		}
		if i < 0 {
			return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("current_date %d is out of range", i))
		}
		ts = i
	default:
		return nil, NewError(KindMalformedResponse, "validate", fmt.Sprintf("current_date is %s, not a number", jsonTypeName(v)))
	}
	if ts == 0 {
		return nil, nil
	}
	return &ts, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "an object"
	case []any:
		return "a list"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case float64, json.Number:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}
