// Package record defines the animal rescue record and its stored JSON form.
package record

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Species is the kind of animal a rescue is.
type Species string

const (
	Dog Species = "DOG"
	Cat Species = "CAT"
)

var (
	// ErrCorruptRecord is returned when a stored value is not a valid record.
	ErrCorruptRecord = errors.New("rescue: corrupt record")

	// ErrUnknownSpecies is returned by ParseSpecies for values outside the enum.
	ErrUnknownSpecies = errors.New("rescue: unknown species")
)

// ParseSpecies converts an enum name into a Species.
func ParseSpecies(s string) (Species, error) {
	switch Species(s) {
	case Dog, Cat:
		return Species(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSpecies, s)
}

// Record is one animal rescue. Species is nil when the rescue was created
// without one.
type Record struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Species *Species `json:"species"`
}

// New assembles a record with a freshly generated id.
func New(name string, species *Species) Record {
	return Record{
		ID:      NewID(),
		Name:    name,
		Species: species,
	}
}

// NewID returns a random identifier for a new record.
func NewID() string {
	return uuid.NewString()
}

// Encode serializes r. The output always carries id, name and species, with
// species null when absent.
func Encode(r Record) ([]byte, error) {
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record %q: %w", r.ID, err)
	}
	return b, nil
}

// Decode parses a stored value. It fails with ErrCorruptRecord unless the
// value is a JSON object with a non-empty string id, a string name and a
// species that is null, absent or a known enum value. Other fields are ignored.
func Decode(data []byte) (Record, error) {
	if t := bytes.TrimSpace(data); len(t) == 0 || t[0] != '{' {
		return Record{}, fmt.Errorf("%w: not a JSON object", ErrCorruptRecord)
	}

	var raw struct {
		ID      *json.RawMessage `json:"id"`
		Name    *json.RawMessage `json:"name"`
		Species *json.RawMessage `json:"species"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
	}

	var r Record
	if err := decodeString(raw.ID, "id", &r.ID); err != nil {
		return Record{}, err
	}
	if r.ID == "" {
		return Record{}, fmt.Errorf("%w: id is empty", ErrCorruptRecord)
	}
	if err := decodeString(raw.Name, "name", &r.Name); err != nil {
		return Record{}, err
	}

	if raw.Species != nil && string(*raw.Species) != "null" {
		var s string
		if err := json.Unmarshal(*raw.Species, &s); err != nil {
			return Record{}, fmt.Errorf("%w: species is not a string", ErrCorruptRecord)
		}
		species, err := ParseSpecies(s)
		if err != nil {
			return Record{}, fmt.Errorf("%w: %v", ErrCorruptRecord, err)
		}
		r.Species = &species
	}
	return r, nil
}

// decodeString requires field to be present and a JSON string.
func decodeString(field *json.RawMessage, name string, out *string) error {
	if field == nil || string(*field) == "null" {
		return fmt.Errorf("%w: %s is missing", ErrCorruptRecord, name)
	}
	if err := json.Unmarshal(*field, out); err != nil {
		return fmt.Errorf("%w: %s is not a string", ErrCorruptRecord, name)
	}
	return nil
}
