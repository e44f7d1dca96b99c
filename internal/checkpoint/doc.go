// Package checkpoint persists and restores a world's state pool. It is a
// collaborator of the runtime core, not part of it: everything here goes
// through the world's public operations, and the runner never calls into
// this package - callers snapshot between runs and resume by restoring a
// world plus passing the saved tick as the runner's start tick.
//
// Snapshots encode components through an explicit world.Registry, so only
// registered component types round-trip; unknown names in old checkpoints
// are skipped on restore. Terminal markers are stripped at snapshot time so
// a restored world can resume instead of immediately stopping.
//
// Encoding is canonical JSON (sorted keys, NFC-normalized strings, no HTML
// escaping): byte-identical input state yields byte-identical checkpoints,
// which keeps golden tests and content hashes stable.
//
// Two storage forms are provided: a plain JSON file, and a SQLite store
// (WAL mode, logical tick ordering, idempotent writes) for runtimes that
// checkpoint repeatedly and want history per run token.
package checkpoint
