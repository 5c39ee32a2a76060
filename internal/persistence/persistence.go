package persistence

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fanctld/fanctld/internal/ui"
	bolt "go.etcd.io/bbolt"
)

const (
	BucketCalibration = "calibration"
)

// Persistence stores fan calibration measurements. Only the calibration
// tooling reads and writes here, the daemon itself never touches the db.
type Persistence interface {
	Init() error

	SaveCalibration(fanId string, measurement map[int]float64) (err error)
	LoadCalibration(fanId string) (map[int]float64, error)
	DeleteCalibration(fanId string) (err error)
}

type persistence struct {
	dbPath string
}

func NewPersistence(dbPath string) Persistence {
	p := &persistence{
		dbPath: dbPath,
	}
	return p
}

func (p persistence) Init() (err error) {
	parentDir := filepath.Dir(p.dbPath)
	_, err = os.Stat(parentDir)
	if errors.Is(err, os.ErrNotExist) {
		ui.Info("Creating directory for db: %s", parentDir)
		err = os.MkdirAll(parentDir, 0755)
		if err != nil {
			return err
		}
	}
	return nil
}

func (p persistence) openPersistence() (db *bolt.DB, err error) {
	db, err = bolt.Open(p.dbPath, 0600, &bolt.Options{Timeout: 1 * time.Minute})
	if err != nil {
		return nil, err
	}
	return db, nil
}

// SaveCalibration saves the measured pwm -> rpm response of the given fan.
func (p persistence) SaveCalibration(fanId string, measurement map[int]float64) (err error) {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	data, err := json.Marshal(measurement)
	if err != nil {
		return err
	}

	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(BucketCalibration))
		if err != nil {
			return fmt.Errorf("create bucket: %s", err)
		}
		err = b.Put([]byte(fanId), data)
		return err
	})
}

// LoadCalibration loads the measured pwm -> rpm response of the given fan.
func (p persistence) LoadCalibration(fanId string) (map[int]float64, error) {
	db, err := p.openPersistence()
	if err != nil {
		return nil, err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	var measurement map[int]float64
	err = db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCalibration))
		if b == nil {
			return os.ErrNotExist
		}
		v := b.Get([]byte(fanId))
		if v == nil {
			return os.ErrNotExist
		}

		err := json.Unmarshal(v, &measurement)
		if err != nil {
			// if we cannot read the saved data, delete it
			ui.Warning("Unable to unmarshal saved calibration for %s: %v", fanId, err)
			err := b.Delete([]byte(fanId))
			if err != nil {
				ui.Error("Unable to delete corrupt data key %s: %v", fanId, err)
			}
			return os.ErrNotExist
		}

		return err
	})

	return measurement, err
}

func (p persistence) DeleteCalibration(fanId string) error {
	db, err := p.openPersistence()
	if err != nil {
		return err
	}
	defer func(db *bolt.DB) {
		_ = db.Close()
	}(db)

	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(BucketCalibration))
		if b == nil {
			// no calibration bucket yet
			return nil
		}
		v := b.Get([]byte(fanId))
		if v == nil {
			// no data for given key
			return nil
		}

		return b.Delete([]byte(fanId))
	})
}
