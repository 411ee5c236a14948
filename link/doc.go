// Package link manages Link records: references to external URLs kept in
// the Link partition of the shared "items" container.
package link
