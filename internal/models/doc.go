// Package models defines the domain entities shared by the registry, the catalog client and the update pipeline.
//
// The package contains two categories of types:
//
// 1. Persistent Entities:
//   - [TrackedArtist] : a row of the artist registry, keyed by catalog artist id
//
// 2. Catalog Data Transfer Objects, produced per update cycle and never persisted:
//   - [Artist] : search and follow results used to populate the registry
//   - [Album] : a release with its partial-precision release date
//   - [Track] : a track listing entry with its credited artists in catalog order
//   - [PlaylistItem] : a destination playlist entry with its album release date
//   - [TrackCandidate] : a track considered by the update pipeline
package models
