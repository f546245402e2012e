/*****************************************************************************************************************/

//	@author		Michael Roberts <michael@observerly.com>
//	@package	@observerly/galtilt
//	@license	Copyright © 2021-2025 observerly

/*****************************************************************************************************************/

// Package rundb persists a record of every fit run to a local SQLite
// database, so a later `galtilt history` invocation can list past runs without
// re-parsing log files. It repurposes the teacher's declared (but, in the
// teacher's own source, unexercised) gorm+sqlite dependency pair as the
// run-log store this module actually needs.
package rundb

/*****************************************************************************************************************/

import (
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

/*****************************************************************************************************************/

// Run is one row of the runlog table: a single invocation of the fit
// driver, its parameter file, and its outcome.
type Run struct {
	ULID              string `gorm:"primaryKey"`
	ParamFilePath     string
	StartedAt         time.Time
	FinishedAt        time.Time
	RingCount         int
	ConvergedRings    int
	NotConvergedRings int
	NoDataRings       int
	FinalChiSquare    float64
	Cancelled         bool
	ErrorMessage      string
}

// TableName maps Run onto the runlog table.
func (Run) TableName() string {
	return "runlog"
}

/*****************************************************************************************************************/

// DB wraps a gorm handle onto the runlog table.
type DB struct {
	conn *gorm.DB
}

/*****************************************************************************************************************/

// Open opens (creating if necessary) the SQLite database at path and
// migrates the runlog schema.
func Open(path string) (*DB, error) {
	conn, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := conn.AutoMigrate(&Run{}); err != nil {
		return nil, err
	}

	return &DB{conn: conn}, nil
}

/*****************************************************************************************************************/

// Record inserts or updates a run's row, keyed by its ULID.
func (db *DB) Record(run Run) error {
	return db.conn.Save(&run).Error
}

/*****************************************************************************************************************/

// History returns every recorded run, most recent first.
func (db *DB) History() ([]Run, error) {
	var runs []Run
	err := db.conn.Order("started_at desc").Find(&runs).Error
	return runs, err
}

/*****************************************************************************************************************/

// Close releases the underlying database connection.
func (db *DB) Close() error {
	sqlDB, err := db.conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

/*****************************************************************************************************************/
