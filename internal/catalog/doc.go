/*
Package catalog manages the media library: the pairing between catalog
rows in SQLite and the files on disk, and the reconciliation passes that
repair the pairing when it drifts.

# Layout

Media lives in two flat directories. Originals are stored under the
uploads directory as <contentID>.<ext> and thumbnails under the
thumbnails directory as <contentID>.png, where contentID is a 32
character lowercase hex token minted at registration. The original
filename survives only as catalog metadata.

# Registration

Register streams an upload to disk, gates videos on the web playability
check, generates a thumbnail, and inserts the row:

	rec, err := cat.Register(ctx, "holiday.mp4", file)

A video that fails the check is removed again and the registration fails
validation. A thumbnail failure is logged and the registration proceeds;
an insert failure removes the files so no unpaired file survives the
call.

# Reconciliation

Four passes keep rows and files consistent:

	missing, err := cat.FindMissing(ctx)       // rows whose file is gone
	report, err := cat.FindUnexpected(ctx)     // files no row accounts for
	res, err := cat.CleanupUnexpected(ctx, report)
	res, err := cat.PruneMissing(ctx, missing)

FindUnexpected sorts findings into three disjoint buckets: orphaned
(looks like catalog output but matches no row), plain unexpected files,
and unexpected directories. OS artifacts such as .DS_Store are ignored.
CleanupUnexpected re-resolves every path and refuses anything that
escapes the managed directories.

# Drift watcher

Watch follows both directories with fsnotify and reruns the two scans
after a burst of create/remove/rename events settles. It observes and
reports; it never deletes on its own.
*/
package catalog
