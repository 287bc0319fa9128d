// Package database provides SQLite storage for the kiosk's settings and
// media catalog.
//
// It handles storage and retrieval of:
//   - Settings (JSON-encoded key/value rows with compiled-in defaults)
//   - Media catalog rows (one per registered file, keyed by content token)
//   - Admin credentials (bcrypt hashes kept in the settings store)
//   - The reserved media-change timestamp
//
// The database uses WAL mode for improved concurrent read performance and
// includes automatic schema initialization. Operations that hit a missing
// table bootstrap the schema once and retry once, so a wiped database file
// heals on the next call instead of failing until restart.
//
// Setting reads return values as encoding/json decodes them: numbers come
// back as float64 and lists as []interface{}.
package database
