/*
Package workers provides utilities for determining worker pool sizes in
containerized environments.

# Overview

When running in a container, the number of available CPUs may be limited by
cgroup constraints. Go 1.19+ automatically sets GOMAXPROCS from the container
CPU limit, but runtime.NumCPU() still reports the host machine's core count.
Sizing a pool from NumCPU on a 64-core node with a 2-CPU limit means 64
goroutines fighting over 2 cores.

This package sizes pools from GOMAXPROCS instead:

	// For I/O-bound work (stat sweeps over the media directories)
	numWorkers := workers.ForIO(16)

	// For CPU-bound work
	numWorkers := workers.ForCPU(8)

	// For mixed workloads
	numWorkers := workers.ForMixed(12)

For fine-grained control, use Count directly:

	numWorkers := workers.Count(2.0, 24)

# Environment Variable Override

All functions respect the SCAN_WORKERS environment variable, letting
operators pin the reconciliation scan concurrency:

	env:
	- name: SCAN_WORKERS
	  value: "4"

This is useful when the media directories live on network storage whose
tolerance for parallel stat calls differs from what the CPU count suggests.

# Workload Types

CPU-bound tasks (multiplier 1.0) get one worker per available CPU; more
would only add context switching. I/O-bound tasks (multiplier 2.0) can keep
twice as many workers busy because most of them are waiting on the kernel at
any given moment. Mixed tasks (multiplier 1.5) sit in between.

The consistency sweeps in internal/catalog use ForIO: each worker spends its
time in stat calls against the uploads and thumbnails directories.

# Thread Safety

All functions are safe for concurrent use. They read GOMAXPROCS and
environment variables, which are themselves thread-safe.
*/
package workers
