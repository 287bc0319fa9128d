// Package memory sizes the Go heap from container limits.
//
// Inside a container the runtime sees the host's memory, not the cgroup
// limit, so an unbounded heap can grow until the kernel kills the
// process. ConfigureFromEnv maps MEMORY_LIMIT (bytes, typically injected
// via the Kubernetes Downward API) to GOMEMLIMIT, holding back a share
// of the limit for ffmpeg children and libvips buffers that allocate
// outside the Go heap. An explicit GOMEMLIMIT always wins.
package memory
