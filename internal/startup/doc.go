/*
Package startup handles process bring-up: configuration from environment
variables, data directory preparation, and the one-time probe of external
helpers.

# Configuration

LoadConfig reads DATA_DIR (default /data) and derives the rest:

	DATA_DIR/uploads        original media files
	DATA_DIR/thumbnails     generated thumbnails
	DATA_DIR/slidekiosk.db  SQLite database

Every directory is created if needed and verified writable with a probe
file; a directory that cannot be prepared fails LoadConfig, since nothing
downstream can limp along without its storage. ResolveConfig resolves the
same paths without preparing anything, for commands where a missing
directory has to surface as an error instead of being papered over.

SCAN_WORKERS optionally pins the reconciliation scan concurrency (the
workers package reads the same variable). LOG_LEVEL and LOG_FILE are
consumed by the logging package.

# Capability probe

DetectCapabilities runs once and returns plain booleans:

	caps := startup.DetectCapabilities(ctx)
	gen := media.NewThumbnailGenerator(caps.FFmpeg, caps.FFprobe, caps.Vips)

ffmpeg and ffprobe are probed with LookPath plus a -version run under a
five second timeout; libvips is probed by initializing the library. A
missing helper is logged with the feature it degrades and never aborts
startup. Nothing probes again at call time.

# Build information

Version, Commit, and BuildTime are injected via -ldflags:

	go build -ldflags "-X slidekiosk/internal/startup.Version=1.2.0 \
	  -X slidekiosk/internal/startup.Commit=$(git rev-parse --short HEAD)"
*/
package startup
