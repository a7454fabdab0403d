package labelimage

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/cyclopcam/logs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eps = 0.00001
)

func mustRows(t *testing.T, rows [][]uint32) *LabelImage {
	img, err := NewLabelImageFromRows(rows)
	require.NoError(t, err)
	return img
}

func TestRegionProperties(t *testing.T) {
	img := mustRows(t, [][]uint32{
		{0, 0, 0, 0, 0, 0, 0},
		{0, 2, 2, 2, 2, 2, 0},
		{0, 0, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 0, 0, 0},
		{0, 1, 0, 0, 3, 3, 0},
		{0, 1, 0, 0, 3, 3, 0},
		{0, 0, 0, 0, 0, 0, 0},
	})
	objects, err := RegionProperties(img, 4)
	require.NoError(t, err)
	require.Len(t, objects, 3)

	// Ordered by label
	vertical, horizontal, square := objects[0], objects[1], objects[2]
	assert.Equal(t, lineage.NewObjectID(1, 4), vertical.ID)
	assert.Equal(t, lineage.NewObjectID(2, 4), horizontal.ID)
	assert.Equal(t, lineage.NewObjectID(3, 4), square.ID)

	assert.Equal(t, 3.0, vertical.Area)
	assert.InDelta(t, 1.0, vertical.Centroid.X, eps)
	assert.InDelta(t, 4.0, vertical.Centroid.Y, eps)
	assert.InDelta(t, 0.0, vertical.Orientation, eps)
	// Variance of 3 consecutive pixels is 2/3
	assert.InDelta(t, 4*math.Sqrt(2.0/3.0), vertical.AxisMajor, eps)
	assert.InDelta(t, 0.0, vertical.AxisMinor, eps)

	assert.Equal(t, 5.0, horizontal.Area)
	assert.InDelta(t, 3.0, horizontal.Centroid.X, eps)
	assert.InDelta(t, 1.0, horizontal.Centroid.Y, eps)
	assert.InDelta(t, math.Pi/2, math.Abs(horizontal.Orientation), eps)
	assert.InDelta(t, 4*math.Sqrt(2.0), horizontal.AxisMajor, eps)

	assert.Equal(t, 4.0, square.Area)
	assert.InDelta(t, 4.5, square.Centroid.X, eps)
	assert.InDelta(t, 4.5, square.Centroid.Y, eps)
	assert.InDelta(t, square.AxisMajor, square.AxisMinor, eps)
	assert.InDelta(t, 2.0, square.AxisMajor, eps)
}

func TestRegionPropertiesDiagonal(t *testing.T) {
	img := mustRows(t, [][]uint32{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	})
	objects, err := RegionProperties(img, 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	// Down-right diagonal: rows and columns grow together
	assert.InDelta(t, math.Pi/4, objects[0].Orientation, eps)
	assert.InDelta(t, 0.0, objects[0].AxisMinor, eps)
}

func TestBoundaryRemoval(t *testing.T) {
	img := mustRows(t, [][]uint32{
		{0, 0, 0, 4, 0},
		{0, 1, 1, 4, 0},
		{0, 1, 1, 0, 5},
		{6, 0, 0, 0, 0},
	})
	assert.Equal(t, []uint32{4, 5, 6}, BoundaryLabels(img))

	cleaned, removed := RemoveBoundaryLabels(img)
	assert.Equal(t, []uint32{4, 5, 6}, removed)
	objects, err := RegionProperties(cleaned, 0)
	require.NoError(t, err)
	require.Len(t, objects, 1)
	assert.Equal(t, 1, objects[0].Label())
	// Input untouched
	assert.Equal(t, uint32(4), img.At(3, 0))

	all := ApplyBoundaryRemoval(logs.NewTestingLog(t), map[int]*LabelImage{0: img, 1: cleaned})
	assert.Empty(t, BoundaryLabels(all[0]))
	assert.Empty(t, BoundaryLabels(all[1]))
}

func TestApplyDriftCorrection(t *testing.T) {
	// One fixed object imaged while the stage drifts
	frame0 := NewLabelImage(6, 4)
	frame0.Set(2, 1, 7)
	frame1 := NewLabelImage(6, 4)
	frame1.Set(3, 1, 7)
	frame2 := NewLabelImage(6, 4)
	frame2.Set(4, 2, 7)

	drift := &Drift{X: []int{0, -1, -2}, Y: []int{0, 0, -1}}
	aligned, err := ApplyDriftCorrection(map[int]*LabelImage{10: frame0, 11: frame1, 12: frame2}, drift)
	require.NoError(t, err)
	require.Len(t, aligned, 3)

	var centroids []lineage.Point
	for _, k := range []int{10, 11, 12} {
		assert.Equal(t, 4, aligned[k].Width)
		assert.Equal(t, 3, aligned[k].Height)
		objects, err := RegionProperties(aligned[k], k)
		require.NoError(t, err)
		require.Len(t, objects, 1)
		centroids = append(centroids, objects[0].Centroid)
	}
	assert.Equal(t, centroids[0], centroids[1])
	assert.Equal(t, centroids[0], centroids[2])

	_, err = ApplyDriftCorrection(map[int]*LabelImage{0: frame0}, drift)
	assert.Error(t, err)
}

func TestLoadDriftAndDir(t *testing.T) {
	dir := t.TempDir()

	img := NewLabelImage(5, 5)
	img.Set(2, 2, 300)
	for _, name := range []string{"xy01_t0007_cp_masks.tif", "xy01_t0008_cp_masks.tif"} {
		f, err := os.Create(filepath.Join(dir, name))
		require.NoError(t, err)
		require.NoError(t, EncodeTIFF(f, img))
		require.NoError(t, f.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "xy01_t0007_phase.tif"), []byte("not a mask"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "drift.json"), []byte(`{"cum_drift_x": [0, 1], "cum_drift_y": [0, 0]}`), 0644))

	images, err := LoadDir(logs.NewTestingLog(t), dir, DefaultLoadOptions())
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, uint32(300), images[7].At(2, 2))
	assert.Equal(t, 5, images[8].Width)

	drift, err := LoadDrift(filepath.Join(dir, "drift.json"))
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, drift.X)
}

func TestFrameIndex(t *testing.T) {
	opts := DefaultLoadOptions()
	frame, err := opts.FrameIndex("exp_xy03_0123_cp_masks.tif")
	require.NoError(t, err)
	assert.Equal(t, 123, frame)

	_, err = opts.FrameIndex("t12_cp_masks.tif")
	assert.Error(t, err)
	_, err = opts.FrameIndex("image_0001.tif")
	assert.Error(t, err)
}

func TestCrop(t *testing.T) {
	img := mustRows(t, [][]uint32{
		{1, 2, 3},
		{4, 5, 6},
	})
	out, err := img.Crop(1, 0, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2, 3, 5, 6}, out.Pix)

	_, err = img.Crop(0, 0, 4, 1)
	assert.Error(t, err)

	_, err = NewLabelImageFromRows([][]uint32{{1, 2}, {3}})
	assert.Error(t, err)
}
