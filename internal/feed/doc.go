// Package feed implements the client-side feed state: the optimistic cache
// and the reconciler that keeps it consistent with the remote backend.
//
// # Architecture
//
// The cache owns the ordered post collection plus three client-local
// overlays layered on top of the server data:
//
//   - likes: a per-session boolean per post with a presentation-only counter
//   - follows: a durable per-user boolean, persisted on every toggle
//   - comments: durable per-post comment lists, persisted on every append
//
// Overlays never reach the backend. Entries for posts that later vanish
// from the server feed go stale and are deliberately never cleaned up.
//
// # Reconciliation
//
// Remote mutations (create, edit, delete, profile) follow a
// deferred-until-confirmed discipline rather than apply-then-rollback: the
// cache is only written once the server has answered, and always from the
// server's returned representation so normalized content cannot drift. A
// failed request therefore leaves the cache exactly as it was.
//
// Each action moves through idle → submitting → committed/failed. The view
// layer disables the triggering control while submitting; that UI
// convention is the only duplicate-submission guard, so two overlapping
// edits to the same post race last-write-wins.
//
// # Concurrency
//
// Bubble Tea runs commands on their own goroutines while the render loop
// reads state, so the cache uses an RWMutex and hands out defensive copies,
// the same shape as a single-writer snapshot store.
package feed
