package storage

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/pkg/errors"
)

// DescriptorColumns are the columns ReadDescriptors requires, in any order
var DescriptorColumns = []string{"frame", "label", "centroid_x", "centroid_y", "orientation", "axis_major", "axis_minor", "area"}

// RecordColumns is the header of the merged table
var RecordColumns = []string{"frame", "label", "object_id", "centroid_x", "centroid_y", "orientation", "axis_major", "axis_minor", "area", "link_id", "traj_id", "traj_length"}

// ReadDescriptors parses a descriptor CSV into per-frame tables.
// Unknown columns are ignored. Row order within a frame is kept.
func ReadDescriptors(r io.Reader) (map[int][]lineage.Object, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	header, err := reader.Read()
	if err != nil {
		return nil, errors.Wrap(err, "can't read descriptor header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(strings.ToLower(name))] = i
	}
	for _, name := range DescriptorColumns {
		if _, ok := col[name]; !ok {
			return nil, errors.Errorf("descriptor CSV lacks column %q", name)
		}
	}

	tables := make(map[int][]lineage.Object)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.Wrapf(err, "descriptor CSV line %d", line)
		}
		p := rowParser{row: row, col: col}
		frame := p.parseInt("frame")
		label := p.parseInt("label")
		obj := lineage.Object{
			ID:          lineage.NewObjectID(label, frame),
			Centroid:    lineage.NewPoint(p.parseFloat("centroid_x"), p.parseFloat("centroid_y")),
			Orientation: p.parseFloat("orientation"),
			AxisMajor:   p.parseFloat("axis_major"),
			AxisMinor:   p.parseFloat("axis_minor"),
			Area:        p.parseFloat("area"),
		}
		if p.err != nil {
			return nil, errors.Wrapf(p.err, "descriptor CSV line %d", line)
		}
		tables[frame] = append(tables[frame], obj)
	}
	return tables, nil
}

// rowParser keeps the first conversion error so a row is checked once
type rowParser struct {
	row []string
	col map[string]int
	err error
}

func (p *rowParser) field(name string) string {
	idx := p.col[name]
	if idx >= len(p.row) {
		if p.err == nil {
			p.err = errors.Errorf("missing value for %q", name)
		}
		return ""
	}
	return strings.TrimSpace(p.row[idx])
}

func (p *rowParser) parseInt(name string) int {
	s := p.field(name)
	v, err := strconv.Atoi(s)
	if err != nil {
		// Label columns written by numeric tools may look like "3.0"
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr == nil && f == float64(int(f)) {
			return int(f)
		}
		if p.err == nil {
			p.err = errors.Wrapf(err, "column %q", name)
		}
		return 0
	}
	return v
}

func (p *rowParser) parseFloat(name string) float64 {
	s := p.field(name)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil && p.err == nil {
		p.err = errors.Wrapf(err, "column %q", name)
	}
	return v
}

// WriteRecords writes the merged table with RecordColumns as header
func WriteRecords(w io.Writer, records []lineage.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(RecordColumns); err != nil {
		return errors.Wrap(err, "can't write header")
	}
	for _, rec := range records {
		err := writer.Write([]string{
			strconv.Itoa(rec.ID.Frame),
			strconv.Itoa(rec.ID.Label),
			rec.ID.String(),
			formatFloat(rec.Centroid.X),
			formatFloat(rec.Centroid.Y),
			formatFloat(rec.Orientation),
			formatFloat(rec.AxisMajor),
			formatFloat(rec.AxisMinor),
			formatFloat(rec.Area),
			rec.LinkID.String(),
			rec.TrajID.String(),
			strconv.Itoa(rec.TrajLength),
		})
		if err != nil {
			return errors.Wrapf(err, "can't write record %s", rec.ID)
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
