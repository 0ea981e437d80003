// Package main provides the entry point for the tabledeck service.
// It starts a Fiber based JSON API that serves spreadsheet-like tables
// whose visibility and mutation rights are decided by group membership.
// The application uses gorm for data persistence and records every state
// change in an audit trail.
package main
