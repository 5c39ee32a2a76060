package telemetry

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fanctld/fanctld/internal/snapshot"
	"github.com/fanctld/fanctld/internal/ui"

	_ "github.com/mattn/go-sqlite3"
)

// Repository appends one row per control cycle, so thermal history can be
// inspected without a Prometheus setup.
type Repository interface {
	Store(tick *snapshot.Tick) error
	Prune(retention time.Duration) (int64, error)
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
	mu sync.Mutex
}

func NewRepository(dbPath string) (Repository, error) {
	if dbPath == "" {
		return nil, fmt.Errorf("no database path configured for tick history")
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("unable to create directory for tick history db: %s", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("unable to open tick history db: %s", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("unable to initialize tick history schema: %s", err)
	}

	return &sqliteRepository{
		db: db,
	}, nil
}

func initSchema(db *sql.DB) error {
	_, err := db.Exec(`
        CREATE TABLE IF NOT EXISTS ticks (
            timestamp   INTEGER NOT NULL,
            state       TEXT    NOT NULL,
            duration_ms INTEGER NOT NULL,
            sensors     TEXT    NOT NULL,
            fans        TEXT    NOT NULL
        );
        CREATE INDEX IF NOT EXISTS ticks_timestamp ON ticks (timestamp);
    `)
	return err
}

func (r *sqliteRepository) Store(tick *snapshot.Tick) error {
	sensors, err := encodeSensors(tick.Sensors)
	if err != nil {
		return err
	}
	fans, err := encodeFans(tick.Fans)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	_, err = r.db.Exec(`
        INSERT INTO ticks (timestamp, state, duration_ms, sensors, fans)
        VALUES (?, ?, ?, ?, ?)
    `,
		tick.Time.Unix(),
		tick.State.String(),
		tick.Duration.Milliseconds(),
		sensors,
		fans,
	)
	return err
}

// Prune deletes rows older than the given retention age and returns how
// many were removed.
func (r *sqliteRepository) Prune(retention time.Duration) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := time.Now().Add(-retention).Unix()
	result, err := r.db.Exec(`DELETE FROM ticks WHERE timestamp < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r *sqliteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.db.Close()
}

// encodeSensors flattens the readings to an id -> value object. Failing
// sensors appear as null, json cannot express NaN.
func encodeSensors(readings []snapshot.SensorReading) (string, error) {
	values := make(map[string]*float64, len(readings))
	for _, reading := range readings {
		if math.IsNaN(reading.Value) {
			values[reading.ID] = nil
			continue
		}
		value := reading.Value
		values[reading.ID] = &value
	}
	data, err := json.Marshal(values)
	return string(data), err
}

type fanRow struct {
	Pwm int  `json:"pwm"`
	Rpm *int `json:"rpm"`
}

func encodeFans(statuses []snapshot.FanStatus) (string, error) {
	rows := make(map[string]fanRow, len(statuses))
	for _, status := range statuses {
		row := fanRow{Pwm: status.Pwm}
		if status.HasRpm {
			rpm := status.Rpm
			row.Rpm = &rpm
		}
		rows[status.ID] = row
	}
	data, err := json.Marshal(rows)
	return string(data), err
}

// Drain stores every tick arriving on the channel until it closes or the
// context is cancelled.
func Drain(ctx context.Context, repo Repository, ticks <-chan *snapshot.Tick) {
	for {
		select {
		case <-ctx.Done():
			return
		case tick, ok := <-ticks:
			if !ok {
				return
			}
			if err := repo.Store(tick); err != nil {
				ui.Warning("Unable to store tick history: %v", err)
			}
		}
	}
}
