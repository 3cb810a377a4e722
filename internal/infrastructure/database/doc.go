// Package database manages the SQLite connection for Taskforge.
//
// It wraps database/sql with:
//   - Connection setup (WAL mode, busy timeout, foreign keys)
//   - Embedded SQL migration support
//   - Health checks and lifecycle management
//
// SQLite is a deliberate choice: the whole data model is four small tables
// with single-statement operations, and the unique constraints that close
// the signup race live in the schema rather than application code.
package database
