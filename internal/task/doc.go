// Package task implements the task tracker: CRUD over tasks, owner and
// collaborator access control, and paginated per-user listings.
//
// Every task has exactly one owner and any number of collaborators.
// Collaborators can read and update a task; only the owner can delete
// it or change who collaborates on it. Reads, updates and listings all
// flow through the same access check so a user never sees a task they
// have no grant on.
package task
