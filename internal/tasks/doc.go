// Package tasks runs the release tracking update cycle with real-time progress reporting.
//
// # Core Operations
//
//  1. [Tracker.RunUpdateCycle] : the single entry point for one cycle
//     - Resolves both destination playlists by id or by name, creating them when missing
//     - Reads the clock once and builds one [releases.Classifier] for the whole cycle
//     - Runs the [UpdatePipeline] and, when enabled, the [ArchiveCleaner]
//
//  2. [UpdatePipeline.Run] : fetch, classify, deduplicate and submit
//     - Reads both playlists' membership once
//     - Uses [ReleaseFetcher] to collect primary-credit tracks from albums inside the archive window
//     - Splits candidates into the this-week batch and the archive batch in encounter order
//     - Caps each batch, then appends it in chunks no larger than the API allows
//
//  3. [ArchiveCleaner.Clean] : drop archive tracks whose release has left the archive window
//
// Registry edits ([Tracker.AddArtists], [Tracker.RemoveArtists], [Tracker.ImportFollowed]) take
// comma separated input the same way from the CLI and the TUI.
//
// # Failure Semantics
//
// Any catalog failure aborts the cycle with an error wrapping [shared.ErrRemoteAPI]. Nothing is
// retried inside the cycle; the scheduler simply runs the next one. A malformed release date only
// skips the affected album or track and is reported in [UpdateResult.Warnings].
//
// # Progress Reporting
//
// # All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
