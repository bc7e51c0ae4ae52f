// Package ticket defines the ticket record and the manager that persists it
// through a storage.Store.
//
// A ticket's id, owner and creation time are set exactly once at creation and
// never change; all access-control decisions compare the acting session's
// identity against the recorded owner by exact string match.
package ticket
