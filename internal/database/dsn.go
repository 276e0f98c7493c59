package database

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// SSLPolicy decides the TLS mode per database host.
type SSLPolicy struct {
	// Mode forces one mode for every host when set.
	Mode string
	// DisabledHosts are matched exactly (case-insensitive).
	DisabledHosts []string
	// DisabledSuffixes match the tail of the host name, e.g. ".internal".
	DisabledSuffixes []string
}

// ModeFor returns "disable" for local or internal hosts and "require" for
// everything else, unless Mode overrides it.
func (p SSLPolicy) ModeFor(host string) string {
	if p.Mode != "" {
		return p.Mode
	}
	h := strings.ToLower(strings.Trim(host, "[]"))
	if h == "" {
		return "disable"
	}
	for _, d := range p.DisabledHosts {
		if strings.EqualFold(strings.TrimSpace(d), h) {
			return "disable"
		}
	}
	for _, s := range p.DisabledSuffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" && strings.HasSuffix(h, s) {
			return "disable"
		}
	}
	return "require"
}

// ResolveDSN picks the dialect for cfg and rewrites the URL into the DSN its
// driver expects, applying the SSL policy.
func ResolveDSN(cfg Config) (Dialect, string, error) {
	raw := strings.TrimSpace(cfg.URL)
	if raw == "" {
		return Dialect{}, "", fmt.Errorf("database url is empty")
	}

	driver := cfg.Driver
	if driver == "" {
		driver = inferDriver(raw)
	}
	d, err := LookupDialect(driver)
	if err != nil {
		return Dialect{}, "", err
	}

	var dsn string
	switch d.Name {
	case Postgres:
		dsn, err = postgresDSN(raw, cfg.SSL)
	case MySQL:
		dsn, err = mysqlDSN(raw, cfg.SSL)
	case SQLite:
		dsn = sqliteDSN(raw)
	}
	if err != nil {
		return Dialect{}, "", err
	}
	return d, dsn, nil
}

func inferDriver(raw string) string {
	lower := strings.ToLower(raw)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres
	case strings.HasPrefix(lower, "mysql://"), strings.Contains(lower, "@tcp("), strings.Contains(lower, "@unix("):
		return MySQL
	case strings.HasPrefix(lower, "sqlite://"), strings.HasPrefix(lower, "file:"),
		strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"), lower == ":memory:":
		return SQLite
	case strings.Contains(lower, "host=") || strings.Contains(lower, "dbname="):
		return Postgres
	default:
		return ""
	}
}

func postgresDSN(raw string, policy SSLPolicy) (string, error) {
	if !strings.Contains(raw, "://") {
		return postgresKeywordDSN(raw, policy), nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse postgres url: %w", err)
	}
	q := u.Query()
	if q.Get("sslmode") == "" {
		q.Set("sslmode", policy.ModeFor(u.Hostname()))
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// postgresKeywordDSN handles the "host=... dbname=..." form.
func postgresKeywordDSN(raw string, policy SSLPolicy) string {
	host := "localhost"
	for _, field := range strings.Fields(raw) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			continue
		}
		switch k {
		case "sslmode":
			return raw
		case "host":
			host = strings.Trim(v, "'")
		}
	}
	return raw + " sslmode=" + policy.ModeFor(host)
}

func mysqlDSN(raw string, policy SSLPolicy) (string, error) {
	var (
		mc  *mysql.Config
		err error
	)
	if strings.HasPrefix(strings.ToLower(raw), "mysql://") {
		mc, err = mysqlConfigFromURL(raw)
	} else {
		mc, err = mysql.ParseDSN(raw)
	}
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}

	mc.ParseTime = true
	mc.Loc = time.UTC
	// Report matched rather than changed rows so an idempotent UPDATE is not
	// mistaken for a missing record.
	mc.ClientFoundRows = true
	if mc.TLSConfig == "" {
		host := mc.Addr
		if h, _, splitErr := net.SplitHostPort(mc.Addr); splitErr == nil {
			host = h
		}
		mc.TLSConfig = mysqlTLS(policy.ModeFor(host))
	}
	return mc.FormatDSN(), nil
}

func mysqlConfigFromURL(raw string) (*mysql.Config, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	mc := mysql.NewConfig()
	mc.Net = "tcp"
	mc.Addr = u.Host
	if u.Port() == "" {
		mc.Addr = net.JoinHostPort(u.Hostname(), "3306")
	}
	if u.User != nil {
		mc.User = u.User.Username()
		mc.Passwd, _ = u.User.Password()
	}
	mc.DBName = strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	if tlsMode := q.Get("tls"); tlsMode != "" {
		mc.TLSConfig = tlsMode
		q.Del("tls")
	}
	if sslMode := q.Get("sslmode"); sslMode != "" {
		mc.TLSConfig = mysqlTLS(sslMode)
		q.Del("sslmode")
	}
	for k := range q {
		if mc.Params == nil {
			mc.Params = make(map[string]string)
		}
		mc.Params[k] = q.Get(k)
	}
	return mc, nil
}

// mysqlTLS maps a libpq-style sslmode onto go-sql-driver's tls parameter.
func mysqlTLS(mode string) string {
	switch mode {
	case "disable", "allow", "prefer":
		return "false"
	case "verify-ca", "verify-full":
		return "true"
	default:
		return "skip-verify"
	}
}

func sqliteDSN(raw string) string {
	path := raw
	if strings.HasPrefix(strings.ToLower(path), "sqlite://") {
		path = path[len("sqlite://"):]
	}
	if strings.Contains(path, "_pragma=") {
		return path
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_time_format=sqlite"
}
