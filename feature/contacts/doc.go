// Package contacts holds the field-merge rules for address book records:
// slot caps per phone and address type, email slot compaction, IM handle
// encoding, and the rich-text notes guard. Merge functions are pure with
// respect to their inputs except for the explicit target mutation.
package contacts
