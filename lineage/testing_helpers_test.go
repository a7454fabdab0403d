package lineage

import "testing"

const (
	eps = 0.00001
)

// cell builds an object with fixed orientation and axes
func cell(frame, label int, x, y, area float64) Object {
	return Object{
		ID:          NewObjectID(label, frame),
		Centroid:    NewPoint(x, y),
		Orientation: 0.0,
		AxisMajor:   10.0,
		AxisMinor:   5.0,
		Area:        area,
	}
}

func testConstraints() Constraints {
	return Constraints{
		SearchRadius:   5.0,
		AreaRatio:      NewRange(0.9, 1.1),
		OrientationDif: NewRange(-0.1, 0.1),
	}
}

func recordOf(t testing.TB, result *Result, label, frame int) Record {
	t.Helper()
	rec, ok := result.Lookup(NewObjectID(label, frame))
	if !ok {
		t.Fatalf("no record for object %d_%d", label, frame)
	}
	return rec
}
