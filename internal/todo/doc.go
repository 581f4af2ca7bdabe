// Package todo parses, validates, and updates the task file.
//
// The task file is a single JSON document:
//
//	{
//	  "tasks": [
//	    {
//	      "title": "Buy milk",
//	      "body": "2%",
//	      "completed": true,
//	      "creation_date": "2024-01-01 09:30:00",
//	      "completion_date": "2024-01-02 18:00:00"
//	    }
//	  ]
//	}
//
// # Task State
//
// The "completed" key is historical and inverted: true means the task is
// still outstanding. In Go it is exposed as Task.Pending. A task moves from
// pending to finished exactly once, at which point completion_date is set;
// it is never cleared.
//
// Tasks are addressed by position. Removing a task shifts the indices of
// every task after it.
//
// # Decoding
//
// Decode validates the document against an embedded JSON Schema
// (draft 2020-12) before unmarshalling. "title" and "body" are required;
// a missing "completed" defaults to true and a missing "creation_date" to
// the current time, so older files keep loading.
//
// # File Format
//
// When writing task files, the package uses:
//   - 2-space indentation
//   - Trailing newline
//   - Stable key ordering (via JSON marshaling)
//   - Atomic replacement (temporary file, fsync, rename)
package todo
