// Package probe wraps ffprobe for media inspection.
//
// It decodes the tool's JSON output into [Result], exposes container
// duration via [ProbeDuration], and answers whether a video will play in
// a browser without transcoding via [ValidateWebPlayable]: the first
// video stream's codec must be one of h264/vp8/vp9/av1 and the first
// audio stream, when present, one of aac/mp3/opus/vorbis.
//
// Callers are expected to know from the startup capability probe whether
// ffprobe exists; invoking these functions without it yields
// [ErrToolUnavailable].
package probe
