package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/LdDl/lineage-go/lineage"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id          TEXT PRIMARY KEY,
	experiment_id   TEXT NOT NULL,
	xy_position     INTEGER NOT NULL,
	search_radius   REAL NOT NULL,
	area_ratio_low  REAL NOT NULL,
	area_ratio_high REAL NOT NULL,
	orientation_low  REAL NOT NULL,
	orientation_high REAL NOT NULL,
	collision_policy TEXT NOT NULL,
	births          INTEGER NOT NULL,
	collisions      INTEGER NOT NULL,
	created_unix    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS objects (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	frame       INTEGER NOT NULL,
	label       INTEGER NOT NULL,
	centroid_x  REAL NOT NULL,
	centroid_y  REAL NOT NULL,
	orientation REAL NOT NULL,
	axis_major  REAL NOT NULL,
	axis_minor  REAL NOT NULL,
	area        REAL NOT NULL,
	link_frame  INTEGER,
	link_label  INTEGER,
	traj_id     INTEGER NOT NULL,
	traj_length INTEGER NOT NULL,
	PRIMARY KEY (run_id, frame, label)
);
CREATE INDEX IF NOT EXISTS objects_traj ON objects (run_id, traj_id);
`

// Store persists tracking runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// RunInfo is the stored header of one run
type RunInfo struct {
	RunID       uuid.UUID
	Experiment  Experiment
	Constraints lineage.Constraints
	Policy      lineage.CollisionPolicy
	Births      int
	Collisions  int
	Created     time.Time
}

// OpenStore opens (creating if needed) the database at path and applies the schema
func OpenStore(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't open %v", path)
	}
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, errors.Wrapf(err, "can't execute %q", pragma)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "can't apply schema")
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRun stores the result header and every record in one transaction
func (s *Store) SaveRun(ctx context.Context, exp Experiment, result *lineage.Result) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "can't begin transaction")
	}
	defer tx.Rollback()

	c := result.Constraints
	_, err = tx.ExecContext(ctx, `INSERT INTO runs (run_id, experiment_id, xy_position, search_radius,
		area_ratio_low, area_ratio_high, orientation_low, orientation_high, collision_policy,
		births, collisions, created_unix) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID.String(), exp.ID, exp.XYPosition, c.SearchRadius,
		c.AreaRatio.Low, c.AreaRatio.High, c.OrientationDif.Low, c.OrientationDif.High, result.Policy.String(),
		result.Births, len(result.Collisions), time.Now().Unix())
	if err != nil {
		return errors.Wrapf(err, "can't insert run %s", result.RunID)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO objects (run_id, frame, label, centroid_x, centroid_y,
		orientation, axis_major, axis_minor, area, link_frame, link_label, traj_id, traj_length)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return errors.Wrap(err, "can't prepare object insert")
	}
	defer stmt.Close()

	runID := result.RunID.String()
	for _, rec := range result.Records {
		var linkFrame, linkLabel sql.NullInt64
		if !rec.LinkID.IsNone() {
			linkFrame = sql.NullInt64{Int64: int64(rec.LinkID.Frame), Valid: true}
			linkLabel = sql.NullInt64{Int64: int64(rec.LinkID.Label), Valid: true}
		}
		_, err := stmt.ExecContext(ctx, runID, rec.ID.Frame, rec.ID.Label, rec.Centroid.X, rec.Centroid.Y,
			rec.Orientation, rec.AxisMajor, rec.AxisMinor, rec.Area, linkFrame, linkLabel,
			int64(rec.TrajID), rec.TrajLength)
		if err != nil {
			return errors.Wrapf(err, "can't insert object %s", rec.ID)
		}
	}
	return errors.Wrap(tx.Commit(), "can't commit run")
}

// LoadRun reads a stored run back, records ordered by frame then label
func (s *Store) LoadRun(ctx context.Context, runID uuid.UUID) (*RunInfo, []lineage.Record, error) {
	info := &RunInfo{RunID: runID}
	var policy string
	var created int64
	c := &info.Constraints
	err := s.db.QueryRowContext(ctx, `SELECT experiment_id, xy_position, search_radius, area_ratio_low,
		area_ratio_high, orientation_low, orientation_high, collision_policy, births, collisions, created_unix
		FROM runs WHERE run_id = ?`, runID.String()).Scan(
		&info.Experiment.ID, &info.Experiment.XYPosition, &c.SearchRadius, &c.AreaRatio.Low,
		&c.AreaRatio.High, &c.OrientationDif.Low, &c.OrientationDif.High, &policy,
		&info.Births, &info.Collisions, &created)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "can't load run %s", runID)
	}
	info.Policy, err = lineage.ParseCollisionPolicy(policy)
	if err != nil {
		return nil, nil, err
	}
	info.Created = time.Unix(created, 0)

	rows, err := s.db.QueryContext(ctx, `SELECT frame, label, centroid_x, centroid_y, orientation,
		axis_major, axis_minor, area, link_frame, link_label, traj_id, traj_length
		FROM objects WHERE run_id = ? ORDER BY frame, label`, runID.String())
	if err != nil {
		return nil, nil, errors.Wrapf(err, "can't query objects of run %s", runID)
	}
	defer rows.Close()

	var records []lineage.Record
	for rows.Next() {
		var rec lineage.Record
		var linkFrame, linkLabel sql.NullInt64
		var traj int64
		err := rows.Scan(&rec.ID.Frame, &rec.ID.Label, &rec.Centroid.X, &rec.Centroid.Y, &rec.Orientation,
			&rec.AxisMajor, &rec.AxisMinor, &rec.Area, &linkFrame, &linkLabel, &traj, &rec.TrajLength)
		if err != nil {
			return nil, nil, errors.Wrap(err, "can't scan object")
		}
		if linkFrame.Valid && linkLabel.Valid {
			rec.LinkID = lineage.NewObjectID(int(linkLabel.Int64), int(linkFrame.Int64))
		}
		rec.TrajID = lineage.TrajectoryID(traj)
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, errors.Wrap(err, "can't iterate objects")
	}
	return info, records, nil
}

// Runs lists stored run ids of an experiment, newest first
func (s *Store) Runs(ctx context.Context, experimentID string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT run_id FROM runs WHERE experiment_id = ? ORDER BY created_unix DESC, run_id`, experimentID)
	if err != nil {
		return nil, errors.Wrap(err, "can't list runs")
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, errors.Wrap(err, "can't scan run id")
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, errors.Wrapf(err, "bad run id %q", raw)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
