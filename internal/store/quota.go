package store

import (
	"errors"
	"strings"

	"github.com/dmitrijs2005/sitecheck/internal/common"
)

// isQuotaErr reports whether a write failed because the storage medium is
// full. SQLite surfaces this as SQLITE_FULL ("database or disk is full");
// test doubles return common.ErrQuotaExceeded directly.
func isQuotaErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, common.ErrQuotaExceeded) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database or disk is full") ||
		strings.Contains(msg, "disk is full") ||
		strings.Contains(msg, "disk full")
}
