// Command kioskadmin administers the slidekiosk settings store and
// media catalog from the host.
//
// Usage:
//
//	kioskadmin <command> [args]
//
// Commands:
//
//	init     Prepare the data directories, probe external tool
//	         capabilities, and create the database with its schema and
//	         setting defaults. Safe to run repeatedly.
//
//	status   Show media counts, the settings count, the last-changed
//	         timestamp, and whether the admin password has been changed
//	         from the shipped default.
//
//	settings List every stored settings row with its raw JSON value,
//	         ordered by key.
//
//	set      Validate and store one setting. The value is decoded as
//	         JSON when possible (true, 25, ["a","b"]), otherwise taken
//	         as a plain string. Unknown keys and out-of-range values
//	         are rejected before the store is touched.
//
//	list     Print every catalog row with its content ID, MIME type,
//	         upload time, and display name.
//
//	import   Register one or more local files through the full ingest
//	         path. Videos must pass the web playability check;
//	         thumbnails are generated when the tools allow.
//
//	rm       Delete catalog rows by content ID. File removal is
//	         best-effort; the row delete decides success.
//
//	check    Report drift between catalog rows and the files on disk
//	         without changing anything.
//
//	cleanup  Remove files and directories in the media directories that
//	         no catalog row accounts for.
//
//	prune    Delete catalog rows whose original files are gone from
//	         disk.
//
//	resetpw  Reset the admin password from the terminal. Host access
//	         stands in for knowing the current password.
//
//	vacuum   Compact the database file.
//
//	watch    Watch the media directories and log a reconciliation
//	         summary after change bursts settle. Runs until
//	         interrupted.
//
// Environment:
//
//	DATA_DIR     - Root data directory (default: /data)
//	SCAN_WORKERS - Parallel stat workers for drift scans (default: auto)
//	LOG_LEVEL    - debug, info, warn, or error (default: info)
//
// Commands that only scan never create directories; a missing media
// directory is reported as an error. Only init and watch prepare the
// directory tree.
package main
