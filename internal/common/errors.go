// Package common defines shared sentinel errors used across the sitecheck
// storage and synchronization layers. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Local persistence errors. ErrQuotaExceeded is raised when the
	// storage medium rejects a write for size and the strip-and-retry
	// fallback also failed; ErrLocalPersistFailed means there is no path
	// to durability at all (retry failed while offline).
	ErrQuotaExceeded      = errors.New("storage quota exceeded")
	ErrLocalPersistFailed = errors.New("cannot persist locally")

	// Sync errors. ErrRemoteUnavailable covers both "offline" and
	// "replica not configured"; retry later, never fatal.
	ErrRemoteUnavailable = errors.New("remote unavailable")
	ErrRemoteRejected    = errors.New("remote rejected record")
	ErrBlobUploadFailed  = errors.New("blob upload failed")
)
