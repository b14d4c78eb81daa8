package reconcile

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spigell/interview-automator/internal/identity"
	"github.com/spigell/interview-automator/internal/sheet"
)

// candidateRow is the identity part of a row as typed in the sheet.
type candidateRow struct {
	Name         string `mapstructure:"name"`
	Registration string `mapstructure:"registration"`
	Phone        string `mapstructure:"phone"`
}

func (r candidateRow) blank() bool {
	return r.Name == "" && r.Registration == ""
}

// roster reads identities from a table snapshot. Identities are decoded on
// first use; rows appended through a Tx are picked up by the next lookup.
type roster struct {
	table   *sheet.Table
	fields  map[string]string
	region  string
	noPhone bool
	rows    []candidateRow
	ids     []identity.Identity
}

func newRoster(table *sheet.Table, cfg *Config, registration string, withPhone bool) (*roster, error) {
	if registration == "" {
		registration = cfg.Columns.Registration
	}

	fields := map[string]string{
		"name":         cfg.Columns.Name,
		"registration": registration,
	}
	required := []string{cfg.Columns.Name, registration}
	if withPhone {
		fields["phone"] = cfg.Columns.Phone
		required = append(required, cfg.Columns.Phone)
	}

	for _, column := range required {
		if _, err := table.ColumnIndex(column); err != nil {
			return nil, err
		}
	}

	return &roster{
		table:   table,
		fields:  fields,
		region:  cfg.PhoneRegion,
		noPhone: !withPhone,
	}, nil
}

func (r *roster) load(i int) {
	for len(r.rows) <= i {
		idx := len(r.rows)
		var row candidateRow
		// Decoding strings into strings cannot fail.
		_ = r.table.Row(idx).Decode(r.fields, &row)

		id := identity.Identity{Name: row.Name, RegistrationID: row.Registration}
		if !r.noPhone {
			id.Phone = identity.PhoneOrEmpty(row.Phone, r.region)
		}

		r.rows = append(r.rows, row)
		r.ids = append(r.ids, id)
	}
}

func (r *roster) Len() int { return r.table.Len() }

func (r *roster) At(i int) identity.Identity {
	r.load(i)
	return r.ids[i]
}

func (r *roster) Row(i int) candidateRow {
	r.load(i)
	return r.rows[i]
}

func (r *roster) Blank(i int) bool {
	return r.Row(i).blank()
}

// Candidates exposes the live table as a strategy pool. Blank rows and rows
// rejected by skip are never offered.
func (r *roster) Candidates(skip func(int) bool) identity.Candidates {
	return identity.Candidates{
		Len: r.table.Len(),
		At:  r.At,
		Skip: func(i int) bool {
			if r.Blank(i) {
				return true
			}
			return skip != nil && skip(i)
		},
	}
}

func loadTables(ctx context.Context, store sheet.Store, names ...string) ([]*sheet.Table, error) {
	tables := make([]*sheet.Table, 0, len(names))
	for _, name := range names {
		t, err := sheet.Load(ctx, store, name)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, nil
}

func requireColumns(t *sheet.Table, columns ...string) error {
	for _, c := range columns {
		if _, err := t.ColumnIndex(c); err != nil {
			return err
		}
	}
	return nil
}

// isZero treats empty, unparsable and zero scores alike.
func isZero(score string) bool {
	v, err := strconv.ParseFloat(strings.TrimSpace(score), 64)
	return err != nil || v == 0
}

func sameScore(a, b string) bool {
	va, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	vb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA != nil || errB != nil {
		return strings.TrimSpace(a) == strings.TrimSpace(b)
	}
	return va == vb
}

// hasRemark reports whether remarks already carry mark as one of its
// semicolon separated entries.
func hasRemark(remarks, mark string) bool {
	for _, part := range strings.Split(remarks, ";") {
		if strings.EqualFold(strings.TrimSpace(part), mark) {
			return true
		}
	}
	return false
}

func appendRemark(remarks, mark string) string {
	remarks = strings.TrimSpace(remarks)
	if remarks == "" {
		return mark
	}
	return fmt.Sprintf("%s; %s", remarks, mark)
}

// prefers reports whether a comma separated preference list names subsystem.
func prefers(preferences, subsystem string) bool {
	for _, part := range strings.Split(preferences, ",") {
		if strings.EqualFold(strings.TrimSpace(part), strings.TrimSpace(subsystem)) {
			return true
		}
	}
	return false
}
