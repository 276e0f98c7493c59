package database

import (
	"fmt"
	"strconv"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"   // PostgreSQL driver
	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// Dialect names.
const (
	Postgres = "postgres"
	MySQL    = "mysql"
	SQLite   = "sqlite"
)

// ColumnType is a portable column type resolved per dialect.
type ColumnType int

const (
	TypeID ColumnType = iota
	TypeText
	TypeReal
	TypeInt
	TypeBool
	TypeTimestamp
)

// CurrentTimestamp is a column default meaning "time of insert".
const CurrentTimestamp = rawDefault("CURRENT_TIMESTAMP")

type rawDefault string

// Dialect captures everything the store and the migrator need to know about
// one SQL flavour.
type Dialect struct {
	Name        string
	DriverName  string
	Placeholder sq.PlaceholderFormat

	// Returning reports support for INSERT/UPDATE ... RETURNING.
	Returning bool

	types        map[ColumnType]string
	columnsQuery string
}

var dialects = map[string]Dialect{
	Postgres: {
		Name:        Postgres,
		DriverName:  "postgres",
		Placeholder: sq.Dollar,
		Returning:   true,
		types: map[ColumnType]string{
			TypeID:        "BIGSERIAL PRIMARY KEY",
			TypeText:      "TEXT",
			TypeReal:      "DOUBLE PRECISION",
			TypeInt:       "BIGINT",
			TypeBool:      "BOOLEAN",
			TypeTimestamp: "TIMESTAMPTZ",
		},
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = current_schema() AND table_name = ?`,
	},
	MySQL: {
		Name:        MySQL,
		DriverName:  "mysql",
		Placeholder: sq.Question,
		Returning:   false,
		types: map[ColumnType]string{
			TypeID:        "BIGINT AUTO_INCREMENT PRIMARY KEY",
			TypeText:      "TEXT",
			TypeReal:      "DOUBLE",
			TypeInt:       "BIGINT",
			TypeBool:      "BOOLEAN",
			TypeTimestamp: "DATETIME",
		},
		columnsQuery: `SELECT column_name FROM information_schema.columns
			WHERE table_schema = DATABASE() AND table_name = ?`,
	},
	SQLite: {
		Name:        SQLite,
		DriverName:  "sqlite",
		Placeholder: sq.Question,
		Returning:   true,
		types: map[ColumnType]string{
			TypeID:        "INTEGER PRIMARY KEY AUTOINCREMENT",
			TypeText:      "TEXT",
			TypeReal:      "REAL",
			TypeInt:       "INTEGER",
			TypeBool:      "BOOLEAN",
			TypeTimestamp: "DATETIME",
		},
		columnsQuery: `SELECT name FROM pragma_table_info(?)`,
	},
}

// LookupDialect returns the dialect registered under name.
func LookupDialect(name string) (Dialect, error) {
	d, ok := dialects[normalizeDriver(name)]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, name)
	}
	return d, nil
}

func normalizeDriver(driver string) string {
	d := strings.ToLower(strings.TrimSpace(driver))
	switch d {
	case "postgres", "postgresql", "pgx", "pq":
		return Postgres
	case "sqlite", "sqlite3":
		return SQLite
	case "mysql", "mariadb":
		return MySQL
	default:
		return d
	}
}

// Builder returns a squirrel statement builder using this dialect's placeholders.
func (d Dialect) Builder() sq.StatementBuilderType {
	return sq.StatementBuilder.PlaceholderFormat(d.Placeholder)
}

// ColumnDDL renders a column definition for CREATE TABLE and ALTER TABLE.
func (d Dialect) ColumnDDL(c Column) string {
	var b strings.Builder
	b.WriteString(c.Name)
	b.WriteByte(' ')
	b.WriteString(d.types[c.Type])
	if c.Type == TypeID {
		return b.String()
	}
	if c.NotNull {
		b.WriteString(" NOT NULL")
	}
	if c.Default != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(d.literal(c.Default))
	}
	return b.String()
}

func (d Dialect) literal(v any) string {
	switch x := v.(type) {
	case rawDefault:
		return string(x)
	case bool:
		if d.Name == SQLite {
			if x {
				return "1"
			}
			return "0"
		}
		return strings.ToUpper(strconv.FormatBool(x))
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return fmt.Sprint(x)
	}
}

// ColumnsQuery returns the introspection query listing a table's columns,
// with the table name as its single bind parameter.
func (d Dialect) ColumnsQuery() (string, error) {
	return d.Placeholder.ReplacePlaceholders(d.columnsQuery)
}
