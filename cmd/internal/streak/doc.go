// Package streak computes and persists per-user daily streaks.
//
// ComputeUpdate is a pure transition over calendar days in UTC. Updater wraps
// it with a read-compute-write loop that is serialized per user in process and
// guarded by a compare-and-swap in the store, so concurrent submissions for the
// same user never both build on the same prior state.
package streak
