package sheet

import (
	"fmt"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Record is one row of a table keyed by column name.
type Record map[string]string

// Get returns the trimmed value of column; missing columns read as empty.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// Decode projects the record through fields (struct key -> column name) and
// decodes the result into out, which must be a pointer to a struct tagged with
// mapstructure keys.
func (r Record) Decode(fields map[string]string, out any) error {
	projected := make(map[string]any, len(fields))
	for key, column := range fields {
		projected[key] = r.Get(column)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		WeaklyTypedInput: true,
		ErrorUnused:      false,
	})
	if err != nil {
		return err
	}

	if err := decoder.Decode(projected); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}

	return nil
}

func (r Record) clone() Record {
	c := make(Record, len(r))
	for k, v := range r {
		c[k] = v
	}
	return c
}
