// AngelaMos | 2026
// payload.go

package webhook

import (
	"fmt"

	"github.com/itchyny/gojq"
)

// Field lookups try each path in order and keep the first non-empty
// string. try/catch keeps odd shapes like a string customer from aborting
// the whole query.
const (
	emailQuery = `[
		(try .customer.email catch null),
		(try .payer_email catch null),
		(try .email catch null)
	] | map(select(type == "string" and . != "")) | first // ""`

	statusQuery = `[
		(try .current_status catch null),
		(try .status catch null)
	] | map(select(type == "string" and . != "")) | first // ""`
)

// Event is the part of a payment notification the reconciler acts on.
type Event struct {
	Email  string
	Status string
}

type extractor struct {
	email  *gojq.Code
	status *gojq.Code
}

func compile(expr string) (*gojq.Code, error) {
	parsed, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", expr, err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, err)
	}
	return code, nil
}

func newExtractor() (*extractor, error) {
	email, err := compile(emailQuery)
	if err != nil {
		return nil, err
	}
	status, err := compile(statusQuery)
	if err != nil {
		return nil, err
	}
	return &extractor{email: email, status: status}, nil
}

func (e *extractor) extract(payload any) Event {
	return Event{
		Email:  firstString(e.email, payload),
		Status: firstString(e.status, payload),
	}
}

func firstString(code *gojq.Code, input any) string {
	iter := code.Run(input)
	v, ok := iter.Next()
	if !ok {
		return ""
	}
	if _, isErr := v.(error); isErr {
		return ""
	}
	s, _ := v.(string)
	return s
}
