package schema

import (
	"fmt"
	"strings"
)

// Detector accumulates column names and types over a scan.
type Detector struct {
	detect bool
	header []string
	types  []Type
}

// NewDetector creates a detector. With detect false every column is a String.
func NewDetector(detect bool) *Detector {
	return &Detector{detect: detect}
}

// SetHeader records the header row as provisional column names.
func (d *Detector) SetHeader(names []string) {
	d.header = append(d.header[:0], names...)
	d.grow(len(names))
}

// Observe widens column types to fit a data record.
func (d *Detector) Observe(fields []string) {
	d.grow(len(fields))
	if !d.detect {
		return
	}
	for i, f := range fields {
		if d.types[i] != TypeString {
			d.types[i] = d.types[i].Widen(f)
		}
	}
}

// MaxColumns returns the widest record seen, header included.
func (d *Detector) MaxColumns() int {
	return len(d.types)
}

// Fields returns the finished column table, one entry per column up to
// MaxColumns. Blank names become "Column N" and repeated names get a
// numeric suffix.
func (d *Detector) Fields() []FieldAttr {
	attrs := make([]FieldAttr, len(d.types))
	used := make(map[string]bool, len(d.types))
	for i, t := range d.types {
		base := ""
		if i < len(d.header) {
			base = strings.TrimSpace(d.header[i])
		}
		if base == "" {
			base = fmt.Sprintf("Column %d", i+1)
		}
		name := base
		for n := 2; used[name]; n++ {
			name = fmt.Sprintf("%s (%d)", base, n)
		}
		used[name] = true
		attrs[i] = FieldAttr{Name: name, Type: t}
	}
	return attrs
}

func (d *Detector) grow(n int) {
	for len(d.types) < n {
		if d.detect {
			d.types = append(d.types, TypeInteger)
		} else {
			d.types = append(d.types, TypeString)
		}
	}
}
