package database

import "strings"

func matches(err error, fragments ...string) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, f := range fragments {
		if strings.Contains(msg, f) {
			return true
		}
	}
	return false
}

// IsRetryableError reports lock contention and dropped connections, which
// usually clear on their own.
func IsRetryableError(err error) bool {
	return matches(err,
		"database is locked",
		"database table is locked",
		"sqlite_busy",
		"driver: bad connection",
	)
}

// IsDiskFullError reports SQLITE_FULL and related I/O exhaustion.
func IsDiskFullError(err error) bool {
	return matches(err, "database or disk is full", "disk i/o error", "no space left on device")
}

// IsUnavailableError reports a database that cannot be written at all:
// read-only files, paths that cannot be opened and closed pools.
func IsUnavailableError(err error) bool {
	return matches(err,
		"attempt to write a readonly database",
		"unable to open database file",
		"database is closed",
		"readonly",
	)
}
