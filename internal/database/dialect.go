package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Supported drivers.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite3"
)

// Dialect captures the SQL differences between the supported drivers.
type Dialect struct {
	Driver string

	// column types substituted into the schema
	IDType        string
	NameType      string
	TextType      string
	BoolType      string
	TimestampType string
	TableSuffix   string

	// UpsertAnswerSQL inserts (candidate_id, member_id, status,
	// updated_at) or updates an existing row when the new updated_at
	// is not older than the stored one.
	UpsertAnswerSQL string

	// SnapshotTxOptions is used for the single read of a poll
	// snapshot.
	SnapshotTxOptions *sql.TxOptions
}

var mysqlDialect = Dialect{
	Driver:        DriverMySQL,
	IDType:        "VARCHAR(36)",
	NameType:      "VARCHAR(191)",
	TextType:      "TEXT",
	BoolType:      "TINYINT(1)",
	TimestampType: "DATETIME(6)",
	TableSuffix:   " ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
	UpsertAnswerSQL: `INSERT INTO schedule_answers (candidate_id, member_id, status, updated_at)
VALUES (?, ?, ?, ?)
ON DUPLICATE KEY UPDATE
  status = IF(VALUES(updated_at) >= updated_at, VALUES(status), status),
  updated_at = GREATEST(updated_at, VALUES(updated_at))`,
	SnapshotTxOptions: &sql.TxOptions{Isolation: sql.LevelSerializable, ReadOnly: true},
}

var sqliteDialect = Dialect{
	Driver:        DriverSQLite,
	IDType:        "TEXT",
	NameType:      "TEXT",
	TextType:      "TEXT",
	BoolType:      "BOOLEAN",
	TimestampType: "DATETIME",
	UpsertAnswerSQL: `INSERT INTO schedule_answers (candidate_id, member_id, status, updated_at)
VALUES (?, ?, ?, ?)
ON CONFLICT(candidate_id, member_id) DO UPDATE SET
  status = excluded.status,
  updated_at = excluded.updated_at
WHERE excluded.updated_at >= schedule_answers.updated_at`,
	// sqlite transactions are serializable already
	SnapshotTxOptions: nil,
}

// DialectFor returns the dialect of a driver name.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case DriverMySQL:
		return mysqlDialect, nil
	case DriverSQLite:
		return sqliteDialect, nil
	}
	return Dialect{}, fmt.Errorf("unsupported DB driver %q", driver)
}

// expand substitutes the dialect's column types into a DDL template.
func (d Dialect) expand(ddl string) string {
	return strings.NewReplacer(
		"{id}", d.IDType,
		"{name}", d.NameType,
		"{text}", d.TextType,
		"{bool}", d.BoolType,
		"{ts}", d.TimestampType,
		"{suffix}", d.TableSuffix,
	).Replace(ddl)
}
