package plotting

import (
	"image/color"
	"sort"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Options controls the rendered figure
type Options struct {
	// Trajectories shorter than this are not drawn
	MinLength int
	Title     string
	Width     vg.Length
	Height    vg.Length
}

// DefaultOptions returns a square figure with no length filter
func DefaultOptions() Options {
	return Options{
		MinLength: 0,
		Width:     6 * vg.Inch,
		Height:    6 * vg.Inch,
	}
}

// keptTrajectories groups records by trajectory and drops the short ones.
// Groups are ordered by trajectory id, records within a group by frame.
func keptTrajectories(records []lineage.Record, minLength int) [][]lineage.Record {
	groups := make(map[lineage.TrajectoryID][]lineage.Record)
	for _, rec := range records {
		if rec.TrajLength < minLength {
			continue
		}
		groups[rec.TrajID] = append(groups[rec.TrajID], rec)
	}
	ids := make([]lineage.TrajectoryID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := make([][]lineage.Record, 0, len(ids))
	for _, id := range ids {
		group := groups[id]
		sort.SliceStable(group, func(a, b int) bool { return group[a].Frame() < group[b].Frame() })
		out = append(out, group)
	}
	return out
}

// AreaPlot draws object area against frame, one thin gray line per kept trajectory,
// with a log-scaled y axis. Returns the plot and the number of trajectories drawn.
func AreaPlot(records []lineage.Record, opts Options) (*plot.Plot, int, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "Time (frame)"
	p.Y.Label.Text = "Object area (px)"

	trajectories := keptTrajectories(records, opts.MinLength)
	for _, traj := range trajectories {
		pts := make(plotter.XYs, 0, len(traj))
		for _, rec := range traj {
			pts = append(pts, plotter.XY{X: float64(rec.Frame()), Y: rec.Area})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "can't plot trajectory %s", traj[0].TrajID)
		}
		line.Color = color.Gray{Y: 128}
		line.Width = vg.Points(0.5)
		p.Add(line)
	}

	// Log scale needs a strictly positive range
	if len(trajectories) > 0 {
		if p.Y.Min == p.Y.Max {
			p.Y.Min /= 2
			p.Y.Max *= 2
		}
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}
	return p, len(trajectories), nil
}

// PathPlot draws centroid paths in image coordinates (y grows downward), one color per kept trajectory.
func PathPlot(records []lineage.Record, opts Options) (*plot.Plot, int, error) {
	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "x (px)"
	p.Y.Label.Text = "y (px)"
	p.Y.Scale = plot.InvertedScale{Normalizer: plot.LinearScale{}}

	trajectories := keptTrajectories(records, opts.MinLength)
	for i, traj := range trajectories {
		pts := make(plotter.XYs, 0, len(traj))
		for _, rec := range traj {
			pts = append(pts, plotter.XY{X: rec.Centroid.X, Y: rec.Centroid.Y})
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, 0, errors.Wrapf(err, "can't plot trajectory %s", traj[0].TrajID)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(1)
		p.Add(line)
	}
	return p, len(trajectories), nil
}

// SaveAreaPlot renders AreaPlot to file. The image format follows the file extension
func SaveAreaPlot(records []lineage.Record, opts Options, file string) (int, error) {
	p, n, err := AreaPlot(records, opts)
	if err != nil {
		return 0, err
	}
	return n, save(p, opts, file)
}

// SavePathPlot renders PathPlot to file. The image format follows the file extension
func SavePathPlot(records []lineage.Record, opts Options, file string) (int, error) {
	p, n, err := PathPlot(records, opts)
	if err != nil {
		return 0, err
	}
	return n, save(p, opts, file)
}

func save(p *plot.Plot, opts Options, file string) error {
	w, h := opts.Width, opts.Height
	if w <= 0 || h <= 0 {
		def := DefaultOptions()
		w, h = def.Width, def.Height
	}
	if err := p.Save(w, h, file); err != nil {
		return errors.Wrapf(err, "can't save plot to %s", file)
	}
	return nil
}
