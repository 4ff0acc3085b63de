// Package calendar holds the field-merge rules for calendar events: the
// mutable field projection copied on create/update, and recurrence
// exception matching across sides. Merge functions are pure with respect to
// their inputs except for the explicit target mutation; they perform no I/O.
package calendar
