// Package pool tracks super-page occupancy over large reserved virtual
// address ranges and multiplexes a small fixed number of such ranges behind
// opaque handles.
//
// # Overview
//
// A Pool owns one contiguous reserved range and records, one bit per super
// page, whether each page is handed out. FindChunk answers "give me N
// contiguous free super pages" with a first-fit scan from a search hint;
// FreeChunk returns a run. The bitmap has fixed capacity (enough for a
// 16 GiB pool at 2 MiB granularity, 1 KiB of words) so the bookkeeping
// itself never allocates on the hot path.
//
// The Manager is the process-wide registry: a fixed table of MaxPools
// slots, each addressed by a 1-based Handle. Add registers a reserved
// range, Alloc/Free dispatch to the addressed pool, Remove retires a slot.
//
// # Error model
//
// Exhaustion (no free run long enough) is an ordinary condition reported
// as ErrNoSpace; the caller decides whether to try another pool or
// escalate. Everything else — misaligned sizes, out-of-range frees,
// double frees, dead handles, a full slot table — is integration error
// and panics at the point of detection. Continuing past any of those
// would corrupt occupancy state shared by the whole process.
//
// # Concurrency
//
// Each Pool serializes its own bitmap scans and mutations behind its own
// mutex, so traffic against different pools never contends. The Manager
// locks only slot assignment (Add/Remove); handle dispatch is lock-free
// because a slot's pool pointer is immutable between Add and the matching
// Remove. Callers must not race Alloc/Free against Remove of the same
// handle; Remove is reserved for controlled teardown.
package pool
