// Package repositories implements SQLite persistence for the tracked artist registry.
//
// The registry is a keyed store of artist id to name and profile URL, ordered by insertion.
// Writes assume a single process; nothing coordinates two writers on the same file.
//
// Storage failures never cross the package boundary as errors. Each operation logs the
// failure wrapped with [shared.ErrStorage] and returns its failure indicator (false or an
// empty result) so interactive callers can keep going.
//
// Key Implementations:
//   - [ArtistRepository] : add, remove and list tracked artists
package repositories
