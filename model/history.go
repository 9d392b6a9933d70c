package model

import (
	"database/sql"
	_ "github.com/mattn/go-sqlite3"
	"go-ml.dev/pkg/zorros/zorros"
	"gopkg.in/yaml.v3"
	"time"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	started    TEXT    NOT NULL,
	source     TEXT    NOT NULL,
	total_rows INTEGER NOT NULL,
	skipped    INTEGER NOT NULL,
	train_rows INTEGER NOT NULL,
	test_rows  INTEGER NOT NULL,
	seed       INTEGER NOT NULL,
	params     TEXT    NOT NULL
);
CREATE TABLE IF NOT EXISTS epochs (
	run      INTEGER NOT NULL REFERENCES runs(id),
	epoch    INTEGER NOT NULL,
	loss     REAL    NOT NULL,
	mae      REAL    NOT NULL,
	val_loss REAL    NOT NULL,
	val_mae  REAL    NOT NULL,
	seconds  REAL    NOT NULL,
	PRIMARY KEY (run, epoch)
);
`

/*
RunInfo describes a training run in the history database
*/
type RunInfo struct {
	Source      string
	Rows        int
	Skipped     int
	Train, Test int
	Seed        int64
	Params      string
}

/*
History is a SQLite database of training runs and their epochs
*/
type History struct {
	db *sql.DB
}

/*
OpenHistory opens or creates the history database at path
*/
func OpenHistory(path string) (*History, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	if _, err = db.Exec(historySchema); err != nil {
		db.Close()
		return nil, zorros.Wrapf(err, "failed to create history schema in %v: %v", path, err.Error())
	}
	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

/*
Begin registers a new run and returns the journal recording its epochs
*/
func (h *History) Begin(info RunInfo) (*RunJournal, error) {
	r, err := h.db.Exec(
		"INSERT INTO runs(started, source, total_rows, skipped, train_rows, test_rows, seed, params) VALUES(?,?,?,?,?,?,?,?)",
		time.Now().UTC().Format(time.RFC3339), info.Source, info.Rows, info.Skipped, info.Train, info.Test, info.Seed, info.Params)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	id, err := r.LastInsertId()
	if err != nil {
		return nil, zorros.Trace(err)
	}
	return &RunJournal{h: h, Run: id}, nil
}

/*
Epochs returns recorded epochs of the run ordered by iteration
*/
func (h *History) Epochs(run int64) ([]Epoch, error) {
	rows, err := h.db.Query(
		"SELECT epoch, loss, mae, val_loss, val_mae, seconds FROM epochs WHERE run = ? ORDER BY epoch", run)
	if err != nil {
		return nil, zorros.Trace(err)
	}
	defer rows.Close()
	r := []Epoch{}
	for rows.Next() {
		var e Epoch
		var secs float64
		if err = rows.Scan(&e.Iteration, &e.Train.Loss, &e.Train.Error, &e.Test.Loss, &e.Test.Error, &secs); err != nil {
			return nil, zorros.Trace(err)
		}
		e.Elapsed = time.Duration(secs * float64(time.Second))
		r = append(r, e)
	}
	if err = rows.Err(); err != nil {
		return nil, zorros.Trace(err)
	}
	return r, nil
}

/*
Params returns hyper-parameters recorded for the run
*/
func (h *History) Params(run int64) (Params, error) {
	var s string
	if err := h.db.QueryRow("SELECT params FROM runs WHERE id = ?", run).Scan(&s); err != nil {
		return nil, zorros.Wrapf(err, "no run %d in history: %v", run, err.Error())
	}
	p := Params{}
	if err := yaml.Unmarshal([]byte(s), &p); err != nil {
		return nil, zorros.Wrapf(err, "bad params of run %d: %v", run, err.Error())
	}
	return p, nil
}

/*
LastRun returns id of the latest run, 0 if there is none
*/
func (h *History) LastRun() (int64, error) {
	var id sql.NullInt64
	if err := h.db.QueryRow("SELECT MAX(id) FROM runs").Scan(&id); err != nil {
		return 0, zorros.Trace(err)
	}
	return id.Int64, nil
}

/*
RunJournal implements Journal over a History run
*/
type RunJournal struct {
	h   *History
	Run int64
}

func (j *RunJournal) Record(e Epoch) error {
	_, err := j.h.db.Exec(
		"INSERT INTO epochs(run, epoch, loss, mae, val_loss, val_mae, seconds) VALUES(?,?,?,?,?,?,?)",
		j.Run, e.Iteration, e.Train.Loss, e.Train.Error, e.Test.Loss, e.Test.Error, e.Elapsed.Seconds())
	if err != nil {
		return zorros.Trace(err)
	}
	return nil
}
