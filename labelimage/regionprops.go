package labelimage

import (
	"math"
	"sort"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

type moments struct {
	n                float64
	sumRow, sumCol   float64
	muRR, muCC, muRC float64
	meanRow, meanCol float64
}

// RegionProperties measures every labeled region of img as observed at frame.
// Centroid X is the mean column and Y the mean row. Orientation is the angle
// between the row axis and the major axis, in [-pi/2, pi/2]. Axis lengths are
// 4*sqrt of the inertia tensor eigenvalues. Objects are ordered by label.
func RegionProperties(img *LabelImage, frame int) ([]lineage.Object, error) {
	regions := make(map[uint32]*moments)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			l := img.At(x, y)
			if l == 0 {
				continue
			}
			m, ok := regions[l]
			if !ok {
				m = &moments{}
				regions[l] = m
			}
			m.n++
			m.sumRow += float64(y)
			m.sumCol += float64(x)
		}
	}
	for _, m := range regions {
		m.meanRow = m.sumRow / m.n
		m.meanCol = m.sumCol / m.n
	}
	// Second pass for central moments
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			l := img.At(x, y)
			if l == 0 {
				continue
			}
			m := regions[l]
			dr := float64(y) - m.meanRow
			dc := float64(x) - m.meanCol
			m.muRR += dr * dr
			m.muCC += dc * dc
			m.muRC += dr * dc
		}
	}

	labels := make([]uint32, 0, len(regions))
	for l := range regions {
		labels = append(labels, l)
	}
	sort.Slice(labels, func(i, j int) bool { return labels[i] < labels[j] })

	objects := make([]lineage.Object, 0, len(labels))
	for _, l := range labels {
		m := regions[l]
		orientation, major, minor, err := m.shape()
		if err != nil {
			return nil, errors.Wrapf(err, "label %d of frame %d", l, frame)
		}
		objects = append(objects, lineage.Object{
			ID:          lineage.NewObjectID(int(l), frame),
			Centroid:    lineage.NewPoint(m.meanCol, m.meanRow),
			Orientation: orientation,
			AxisMajor:   major,
			AxisMinor:   minor,
			Area:        m.n,
		})
	}
	return objects, nil
}

// shape derives orientation and axis lengths from the inertia tensor
//
//	| a b |   a = col variance, c = row variance, b = -covariance
//	| b c |
func (m *moments) shape() (orientation, major, minor float64, err error) {
	a := m.muCC / m.n
	c := m.muRR / m.n
	b := -m.muRC / m.n

	if a-c == 0 {
		if b < 0 {
			orientation = math.Pi / 4
		} else {
			orientation = -math.Pi / 4
		}
	} else {
		orientation = 0.5 * math.Atan2(-2*b, c-a)
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(mat.NewSymDense(2, []float64{a, b, b, c}), false); !ok {
		return 0, 0, 0, errors.New("inertia tensor eigen-decomposition failed")
	}
	// Ascending order
	values := eig.Values(nil)
	major = 4 * math.Sqrt(math.Max(values[1], 0))
	minor = 4 * math.Sqrt(math.Max(values[0], 0))
	return orientation, major, minor, nil
}

// DescriptorTables measures every frame. Empty frames yield empty tables
func DescriptorTables(images map[int]*LabelImage) (map[int][]lineage.Object, error) {
	tables := make(map[int][]lineage.Object, len(images))
	for frame, img := range images {
		objects, err := RegionProperties(img, frame)
		if err != nil {
			return nil, err
		}
		tables[frame] = objects
	}
	return tables, nil
}
