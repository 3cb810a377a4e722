// Package calendar wraps the Google Calendar v3 API for task-linked
// events: create, fetch and delete against a single configured
// calendar. It is a thin passthrough; no event state is stored locally.
package calendar
