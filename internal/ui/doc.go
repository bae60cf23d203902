// Package ui implements the interactive menu using bubbletea's Elm architecture.
//
// The menu offers the same operations as the CLI:
//  1. [MenuView] : Pick an action with j/k and enter
//  2. [InputView] : Enter comma separated artist names to add or remove
//  3. [ArtistsView] : Browse the tracked artists
//  4. [UpdateView] : Follow an update cycle through its progress updates
//  5. [ResultView] : Show what the last action did
//
// The [Model] implements the standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from [tasks.Tracker.RunUpdateCycle] without ever blocking the cycle.
package ui
