package boxval

import (
	"github.com/pkg/errors"

	"ktkr.us/pkg/mp4box/iobox"
	"ktkr.us/pkg/mp4box/mlog"
)

// RowFactory builds one fresh row's worth of properties, e.g. a
// SampleToChunk entry's (firstChunk, samplesPerChunk, sampleDescIndex)
// triple. Each call must return newly allocated Properties: rows do not
// share state.
type RowFactory func() []Property

// TableProperty is an ordered list of identically-shaped rows, governed
// by a sibling count property elsewhere in the same atom (stsz's
// sampleCount, stsc's entryCount, and so on). mp4v2 reconciles a stored
// count against the actual number of parsed entries/children rather than
// trusting it blindly (atom_dref.cpp does exactly this for dref's
// entryCount); TableProperty exposes Count() so atom-level Read can do the
// same and emit a diagnostic on mismatch instead of failing the parse.
type TableProperty struct {
	base
	NewRow RowFactory
	rows   [][]Property
}

// NewTable declares a table property whose rows are produced by newRow.
func NewTable(name string, newRow RowFactory) *TableProperty {
	return &TableProperty{base: base{name: name}, NewRow: newRow}
}

func (p *TableProperty) Kind() Kind { return KindTable }

// Rows returns the current parsed/generated rows.
func (p *TableProperty) Rows() [][]Property { return p.rows }

// Count reports the current row count, used by the counted sample tables
// to refresh their sibling entryCount property before Write.
func (p *TableProperty) Count() uint32 { return uint32(len(p.rows)) }

// ReadRows parses exactly n rows from r, replacing any existing rows.
// Atom-level Read implementations call this after reading the governing
// count property, per the table-property wiring described for stsz/stsc
// and similar box-local tables.
func (p *TableProperty) ReadRows(r *iobox.BitReader, n uint32) error {
	rows := make([][]Property, 0, n)
	for i := uint32(0); i < n; i++ {
		row := p.NewRow()
		for _, prop := range row {
			if err := prop.Read(r); err != nil {
				return errors.Wrapf(err, "boxval: %s: row %d: %s", p.name, i, prop.Name())
			}
		}
		rows = append(rows, row)
	}
	p.rows = rows
	return nil
}

// Read satisfies Property but cannot determine its own row count: table
// properties are always driven explicitly via ReadRows by the owning
// atom, which first reads (and reconciles) the sibling count property.
func (p *TableProperty) Read(r *iobox.BitReader) error {
	return errors.Errorf("boxval: %s: table properties must be read via ReadRows", p.name)
}

func (p *TableProperty) Write(w *iobox.BitWriter) error {
	for i, row := range p.rows {
		for _, prop := range row {
			if err := prop.Write(w); err != nil {
				return errors.Wrapf(err, "boxval: %s: row %d: %s", p.name, i, prop.Name())
			}
		}
	}
	return nil
}

func (p *TableProperty) Generate() {
	p.rows = nil
}

// AppendRow generates one new row (via NewRow, with each property's
// Generate called) and appends it, used when building a table from
// scratch instead of parsing one.
func (p *TableProperty) AppendRow() []Property {
	row := p.NewRow()
	for _, prop := range row {
		prop.Generate()
	}
	p.rows = append(p.rows, row)
	return row
}

func (p *TableProperty) Dump(log *mlog.Log, indent int) {
	dumpf(log, indent, "%s: %d entries", p.name, len(p.rows))
	for i, row := range p.rows {
		dumpf(log, indent+1, "entry %d", i)
		for _, prop := range row {
			prop.Dump(log, indent+2)
		}
	}
}
