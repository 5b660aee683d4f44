package sqlite

import (
	"fmt"

	"github.com/aerialtv/aerial/internal/domain"
)

// Supported schema window. Stores older than MinSchemaVersion need an
// intermediate build; stores newer than MaxSchemaVersion were written by a
// newer build (or a fork) and must not be touched.
var (
	MinSchemaVersion = domain.DBVersion{Major: 40}
	MaxSchemaVersion = domain.DBVersion{Major: 44, Minor: 8}
)

// Version reads the schema version ledger. A fresh store with no ledger
// table reports the zero version. Legacy ledgers written before minor
// versioning existed coerce to (major, 0).
func (c *Conn) Version() (domain.DBVersion, error) {
	has, err := c.HasTable("db_version")
	if err != nil {
		return domain.DBVersion{}, err
	}
	if !has {
		return domain.DBVersion{}, nil
	}

	hasMinor, err := c.HasColumn("db_version", "db_minor_version")
	if err != nil {
		return domain.DBVersion{}, err
	}

	query := "SELECT db_version FROM db_version"
	if hasMinor {
		query = "SELECT db_version, db_minor_version FROM db_version"
	}
	rows, err := c.Select(query)
	if err != nil {
		return domain.DBVersion{}, err
	}
	if len(rows) == 0 {
		return domain.DBVersion{}, nil
	}

	v := domain.DBVersion{Major: intValue(rows[0]["db_version"])}
	if hasMinor {
		v.Minor = intValue(rows[0]["db_minor_version"])
	}
	return v, nil
}

// setVersion persists the ledger. Called as the last action of a completed
// step, inside the step's transaction, so a crash mid-step never records a
// version the store has not actually reached.
func setVersion(c *Conn, v domain.DBVersion) error {
	hasMinor, err := c.HasColumn("db_version", "db_minor_version")
	if err != nil {
		return err
	}
	if hasMinor {
		_, err = c.Action(
			"UPDATE db_version SET db_version = ?, db_minor_version = ?",
			v.Major, v.Minor)
		return err
	}
	if v.Minor != 0 {
		return fmt.Errorf("ledger has no minor column, cannot record %s", v)
	}
	_, err = c.Action("UPDATE db_version SET db_version = ?", v.Major)
	return err
}

// intValue coerces the driver's scan types (int64, occasionally text) to int.
func intValue(v any) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	default:
		return 0
	}
}
