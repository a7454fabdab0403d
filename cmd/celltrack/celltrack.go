package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/LdDl/lineage-go/config"
	"github.com/LdDl/lineage-go/labelimage"
	"github.com/LdDl/lineage-go/lineage"
	"github.com/LdDl/lineage-go/plotting"
	"github.com/LdDl/lineage-go/storage"
	"github.com/akamensky/argparse"
	"github.com/cyclopcam/logs"
	"github.com/pkg/errors"
)

func check(log logs.Log, err error) {
	if err != nil {
		log.Criticalf("%v", err)
		os.Exit(1)
	}
}

func main() {
	parser := argparse.NewParser("celltrack", "Link segmented cells across frames and assemble trajectories")
	masksDir := parser.String("m", "masks", &argparse.Options{Help: "Directory of label mask TIFFs"})
	descriptors := parser.String("d", "descriptors", &argparse.Options{Help: "Descriptor CSV (frame,label,centroid_x,centroid_y,orientation,axis_major,axis_minor,area)"})
	configFile := parser.String("c", "config", &argparse.Options{Help: "JSON run configuration"})
	driftFile := parser.String("", "drift", &argparse.Options{Help: "JSON file with cum_drift_x and cum_drift_y, applied to masks"})
	outFile := parser.String("o", "out", &argparse.Options{Help: "Merged table CSV output"})
	dbFile := parser.String("", "db", &argparse.Options{Help: "SQLite database to store the run in"})
	plotFile := parser.String("", "plot", &argparse.Options{Help: "Area vs frame plot of long trajectories (.png, .svg, .pdf)"})
	pathsFile := parser.String("", "paths", &argparse.Options{Help: "Centroid path plot of long trajectories"})
	experiment := parser.String("e", "experiment", &argparse.Options{Help: "Experiment name, e.g. ecoli_xy03. Default: derived from the input path"})
	radius := parser.String("r", "radius", &argparse.Options{Help: "Override search radius (pixels)"})
	policy := parser.Selector("p", "policy", []string{"overwrite", "exclusive", "optimal"}, &argparse.Options{Help: "Override collision policy"})
	minLength := parser.String("", "min-length", &argparse.Options{Help: "Override minimum trajectory length for plots and summary"})
	err := parser.Parse(os.Args)
	if err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(1)
	}
	if (*masksDir == "") == (*descriptors == "") {
		fmt.Print(parser.Usage(errors.New("exactly one of --masks or --descriptors is required")))
		os.Exit(1)
	}

	log, err := logs.NewLog()
	if err != nil {
		panic(err)
	}

	cfg := config.Default()
	if *configFile != "" {
		cfg, err = config.Load(*configFile)
		check(log, err)
	}
	check(log, applyOverrides(cfg, overrides{radius: *radius, policy: *policy, minLength: *minLength}))

	input := *masksDir
	var tables map[int][]lineage.Object
	if *masksDir != "" {
		tables, err = tablesFromMasks(log, cfg, *masksDir, *driftFile)
	} else {
		input = *descriptors
		tables, err = tablesFromCSV(*descriptors)
	}
	check(log, err)

	tracker, err := cfg.NewTracker()
	check(log, err)
	tracker.SetLogger(log)
	result, err := tracker.Track(tables)
	check(log, err)

	summary := lineage.Summarize(result.Records, cfg.MinTrajectoryLength)
	log.Infof("Run %v: %d records, %d trajectories (mean length %.1f, std %.1f, max %d), %d with at least %d frames, %d collisions",
		result.RunID, summary.Records, summary.Trajectories, summary.MeanLength, summary.StdLength, summary.MaxLength,
		summary.Kept, summary.MinLength, len(result.Collisions))

	if *outFile != "" {
		check(log, writeCSV(*outFile, result.Records))
		log.Infof("Merged table written to %v", *outFile)
	}
	if *dbFile != "" {
		exp := experimentOf(log, *experiment, input)
		check(log, saveRun(*dbFile, exp, result))
		log.Infof("Run %v stored in %v as %v xy%02d", result.RunID, *dbFile, exp.ID, exp.XYPosition)
	}
	plotOpts := plotting.DefaultOptions()
	plotOpts.MinLength = cfg.MinTrajectoryLength
	if *plotFile != "" {
		n, err := plotting.SaveAreaPlot(result.Records, plotOpts, *plotFile)
		check(log, err)
		log.Infof("%d cell trajectories with at least %d frames plotted to %v", n, cfg.MinTrajectoryLength, *plotFile)
	}
	if *pathsFile != "" {
		n, err := plotting.SavePathPlot(result.Records, plotOpts, *pathsFile)
		check(log, err)
		log.Infof("%d centroid paths plotted to %v", n, *pathsFile)
	}
}

// overrides are command line values replacing config fields. Empty means not given
type overrides struct {
	radius    string
	policy    string
	minLength string
}

// applyOverrides sets every given value on cfg and validates the result
func applyOverrides(cfg *config.Config, o overrides) error {
	if o.radius != "" {
		radius, err := strconv.ParseFloat(o.radius, 64)
		if err != nil {
			return errors.Wrapf(err, "bad --radius %q", o.radius)
		}
		cfg.SearchRadius = radius
	}
	if o.policy != "" {
		cfg.CollisionPolicy = o.policy
	}
	if o.minLength != "" {
		minLength, err := strconv.Atoi(o.minLength)
		if err != nil {
			return errors.Wrapf(err, "bad --min-length %q", o.minLength)
		}
		cfg.MinTrajectoryLength = minLength
	}
	return errors.Wrap(cfg.Validate(), "invalid configuration")
}

func tablesFromMasks(log logs.Log, cfg *config.Config, dir, driftFile string) (map[int][]lineage.Object, error) {
	images, err := labelimage.LoadDir(log, dir, cfg.LoadOptions())
	if err != nil {
		return nil, err
	}
	if driftFile != "" {
		drift, err := labelimage.LoadDrift(driftFile)
		if err != nil {
			return nil, err
		}
		images, err = labelimage.ApplyDriftCorrection(images, drift)
		if err != nil {
			return nil, err
		}
		log.Infof("Drift correction applied to %d frames", len(images))
	}
	if cfg.RemoveBoundaryLabels {
		images = labelimage.ApplyBoundaryRemoval(log, images)
	}
	return labelimage.DescriptorTables(images)
}

func tablesFromCSV(path string) (map[int][]lineage.Object, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "can't open descriptors")
	}
	defer f.Close()
	return storage.ReadDescriptors(f)
}

func writeCSV(path string, records []lineage.Record) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrap(err, "can't create output")
	}
	if err := storage.WriteRecords(f, records); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveRun(path string, exp storage.Experiment, result *lineage.Result) error {
	store, err := storage.OpenStore(path)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.SaveRun(context.Background(), exp, result)
}

// experimentOf parses the experiment name, falling back to the bare input name with no xy position
func experimentOf(log logs.Log, name, input string) storage.Experiment {
	if name == "" {
		name = input
	}
	exp, err := storage.ParseExperiment(name)
	if err != nil {
		fallback := storage.Experiment{ID: filepath.Base(filepath.Clean(name)), XYPosition: -1}
		log.Warnf("%v, storing run under %q", err, fallback.ID)
		return fallback
	}
	return exp
}
