/*
Package filesystem provides resilient filesystem operations with automatic
retry logic for NFS stale file handle errors.

# Purpose

The media directories often live on NFS. When another client replaces or
removes a file, this host's cached file handle can go stale and the next
stat or unlink fails with ESTALE even though the path is perfectly usable
on a fresh lookup. A single retry after a short pause almost always
succeeds.

The consistency sweeps in internal/catalog stat every registered file and
remove unexpected ones, so they route those calls through this package:

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if os.IsNotExist(err) {
	    // genuinely missing, not a transient handle problem
	}

	err := filesystem.RemoveWithRetry(path, config)

# Behavior

Only ESTALE triggers a retry. Every other error, including os.ErrNotExist,
returns immediately so callers can classify it themselves. Retries use
exponential backoff starting at InitialBackoff and doubling up to
MaxBackoff:

	config := filesystem.RetryConfig{
	    MaxRetries:     3,
	    InitialBackoff: 50 * time.Millisecond,
	    MaxBackoff:     500 * time.Millisecond,
	}

DefaultRetryConfig returns the values above, tuned for the pause NFS
clients typically need to refresh a handle.

# Observability

Each retry increments slidekiosk_filesystem_retries_total (labeled by
operation) and each ESTALE observation increments
slidekiosk_filesystem_stale_errors_total. A sweep that shows climbing
stale counts usually means another writer is churning the export.
*/
package filesystem
