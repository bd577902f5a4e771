// Package models defines domain entities and persistence interfaces for the pickbench workstation client.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects (DTOs): Lightweight structs representing backend and hardware data
//   - [RunHeader] : Production run metadata from the picking backend
//   - [BatchRow] : A single batch row belonging to a run
//   - [BatchItem] : An item line within a batch row
//   - [RunDetail] : Fully hydrated run snapshot (header + batch rows + items)
//   - [ScaleReading] : A single weight report from a bench scale
//
// 2. Persistent Entities: Database-backed models with full lifecycle management
//   - [CachedRun] : A durable run snapshot kept for offline fallback
//
// Persistent entities implement the [Model] interface providing ID generation, timestamps, and validation.
//
// Scale-side enumerations ([ScaleClass], [ConnectionState]) also live here so the
// stream client and the CLI share one vocabulary.
package models
