package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/launchpad/internal/apperr"
	"github.com/starford/launchpad/internal/models"
)

// entry adapts models.AppEntry to validation.Validatable.
type entry models.AppEntry

// Validate requires every field to be present and non-empty. Field
// semantics (url shape, iconBg label) are left to the presentation layer.
func (e entry) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.ID, validation.Required),
		validation.Field(&e.Title, validation.Required),
		validation.Field(&e.ShortDescription, validation.Required),
		validation.Field(&e.LongDescription, validation.Required),
		validation.Field(&e.Icon, validation.Required),
		validation.Field(&e.URL, validation.Required),
		validation.Field(&e.IconBg, validation.Required),
	)
}

// Validate reports whether doc may be persisted. A nil Apps slice is
// ErrMalformed; any entry with an empty field is ErrMissingFields.
func Validate(doc models.AppsDocument) error {
	if doc.Apps == nil {
		return fmt.Errorf("%w: apps array is required", apperr.ErrMalformed)
	}
	entries := make([]entry, len(doc.Apps))
	for i, a := range doc.Apps {
		entries[i] = entry(a)
	}
	if err := validation.Validate(entries); err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrMissingFields, err)
	}
	return nil
}

// IsValid is Validate as a predicate.
func IsValid(doc models.AppsDocument) bool {
	return Validate(doc) == nil
}

// Decode reads a submitted document. Non-JSON bodies, trailing data, a
// missing or null apps key, and an apps value that is not an array are
// ErrMalformed. Elements that are not objects, or fields of the wrong type,
// decode as empty so Validate reports them as missing fields.
func Decode(r io.Reader) (models.AppsDocument, error) {
	var raw struct {
		Apps json.RawMessage `json:"apps"`
	}
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return models.AppsDocument{}, fmt.Errorf("%w: %v", apperr.ErrMalformed, err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return models.AppsDocument{}, fmt.Errorf("%w: trailing data after document", apperr.ErrMalformed)
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(raw.Apps, &elems); err != nil || elems == nil {
		return models.AppsDocument{}, fmt.Errorf("%w: apps array is required", apperr.ErrMalformed)
	}

	doc := models.AppsDocument{Apps: make([]models.AppEntry, len(elems))}
	for i, el := range elems {
		// Type mismatches leave the offending fields empty.
		_ = json.Unmarshal(el, &doc.Apps[i])
	}
	return doc, nil
}
