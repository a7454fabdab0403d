package plotting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(frame, label int, traj lineage.TrajectoryID, length int, area float64) lineage.Record {
	return lineage.Record{
		Object: lineage.Object{
			ID:       lineage.NewObjectID(label, frame),
			Centroid: lineage.NewPoint(float64(10*label), float64(frame)),
			Area:     area,
		},
		TrajID:     traj,
		TrajLength: length,
	}
}

func sampleRecords() []lineage.Record {
	return []lineage.Record{
		record(0, 1, 0, 3, 100),
		record(0, 2, 1, 1, 80),
		record(1, 1, 0, 3, 104),
		record(2, 4, 0, 3, 109),
		record(2, 3, 2, 2, 50),
		record(3, 1, 2, 2, 52),
	}
}

func TestKeptTrajectories(t *testing.T) {
	groups := keptTrajectories(sampleRecords(), 2)
	require.Len(t, groups, 2)
	assert.Equal(t, lineage.TrajectoryID(0), groups[0][0].TrajID)
	assert.Len(t, groups[0], 3)
	assert.Equal(t, 2, groups[1][0].Frame())
	assert.Equal(t, 3, groups[1][1].Frame())
}

func TestAreaPlot(t *testing.T) {
	p, n, err := AreaPlot(sampleRecords(), Options{MinLength: 3})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 100.0, p.Y.Min)
	assert.Equal(t, 109.0, p.Y.Max)

	// Nothing kept still renders an empty figure
	_, n, err = AreaPlot(sampleRecords(), Options{MinLength: 100})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	// Single point trajectory gets a widened positive range
	p, n, err = AreaPlot([]lineage.Record{record(0, 1, 0, 1, 40)}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 20.0, p.Y.Min)
	assert.Equal(t, 80.0, p.Y.Max)
}

func TestSavePlots(t *testing.T) {
	dir := t.TempDir()
	areaFile := filepath.Join(dir, "areas.png")
	n, err := SaveAreaPlot(sampleRecords(), DefaultOptions(), areaFile)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	info, err := os.Stat(areaFile)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))

	pathFile := filepath.Join(dir, "paths.png")
	n, err = SavePathPlot(sampleRecords(), Options{MinLength: 2}, pathFile)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	_, err = os.Stat(pathFile)
	require.NoError(t, err)

	_, err = SaveAreaPlot(sampleRecords(), DefaultOptions(), filepath.Join(dir, "areas.unknown"))
	assert.Error(t, err)
}
