package contacts

import (
	"fmt"
	"html"

	"pim-sync/core/record"
)

// MergeOptions tunes a contact merge.
type MergeOptions struct {
	// ForcePlainNotes lets a plain-text notes field overwrite rich-text
	// content on the target. Off by default so a round trip through the
	// plainer side never destroys formatting.
	ForcePlainNotes bool
}

// MergeContact overwrites dst's mutable fields from src and returns
// human-readable warnings for every value that was dropped. Nothing is ever
// dropped silently.
func MergeContact(dst, src *record.Contact, opts MergeOptions) []string {
	var warnings []string

	dst.Name = src.Name

	warnings = append(warnings, setEmails(dst, src.Emails)...)
	warnings = append(warnings, setPhones(dst, src.Phones)...)
	warnings = append(warnings, setAddresses(dst, src.Addresses)...)

	dst.IMs = append(dst.IMs[:0], src.IMs...)

	dst.Organization = src.Organization
	dst.Title = src.Title
	dst.Department = src.Department

	// Zero time is the no-date sentinel and maps to field-absent.
	dst.Birthday = src.Birthday
	dst.Anniversary = src.Anniversary

	// Family relations are singletons, overwritten wholesale.
	dst.Spouse = src.Spouse
	dst.Child = src.Child
	dst.Manager = src.Manager
	dst.Assistant = src.Assistant

	dst.Homepage = src.Homepage

	warnings = append(warnings, setNotes(dst, src, opts)...)
	return warnings
}

// NewContactFrom builds a fresh contact carrying src's merged projection,
// for create operations.
func NewContactFrom(src *record.Contact) *record.Contact {
	dst := &record.Contact{}
	MergeContact(dst, src, MergeOptions{})
	return dst
}

// setEmails fills dst's email slots from src left to right, skipping empty
// source slots so later addresses shift into earlier positions.
func setEmails(dst *record.Contact, emails []string) []string {
	var warnings []string
	compacted := make([]string, 0, record.MaxEmails)
	for _, e := range emails {
		if e == "" {
			continue
		}
		if len(compacted) == record.MaxEmails {
			warnings = append(warnings,
				fmt.Sprintf("dropping email %q: only %d slots", e, record.MaxEmails))
			continue
		}
		compacted = append(compacted, e)
	}
	dst.Emails = compacted
	return warnings
}

// setPhones assigns source numbers to dst respecting the per-type caps.
// Unlabeled numbers go to the first under-capacity type in the fixed
// priority order.
func setPhones(dst *record.Contact, phones []record.Phone) []string {
	var warnings []string
	used := make(map[record.PhoneType]int)
	out := make([]record.Phone, 0, len(phones))

	place := func(p record.Phone) bool {
		cap, known := record.PhoneCaps[p.Type]
		if !known || used[p.Type] >= cap {
			return false
		}
		used[p.Type]++
		out = append(out, p)
		return true
	}

	for _, p := range phones {
		if p.Number == "" {
			continue
		}
		if p.Type != "" {
			if !place(p) {
				warnings = append(warnings,
					fmt.Sprintf("dropping %s phone %q: slot limit reached", p.Type, p.Number))
			}
			continue
		}
		assigned := false
		for _, t := range record.PhonePriority {
			if place(record.Phone{Type: t, Number: p.Number}) {
				assigned = true
				break
			}
		}
		if !assigned {
			warnings = append(warnings,
				fmt.Sprintf("dropping unlabeled phone %q: all slots full", p.Number))
		}
	}
	dst.Phones = out
	return warnings
}

// setAddresses keeps at most one address per type; excess entries are
// dropped with a warning.
func setAddresses(dst *record.Contact, addresses []record.Address) []string {
	var warnings []string
	seen := make(map[record.AddressType]bool)
	out := make([]record.Address, 0, len(addresses))
	for _, a := range addresses {
		if seen[a.Type] {
			warnings = append(warnings,
				fmt.Sprintf("dropping extra %s address %q: one per type", a.Type, a.Street))
			continue
		}
		seen[a.Type] = true
		out = append(out, a)
	}
	dst.Addresses = out
	return warnings
}

// setNotes transfers the biography guarding rich text: plain text never
// clobbers rich content unless forced, and plain text entering a rich
// target is HTML-encoded.
func setNotes(dst, src *record.Contact, opts MergeOptions) []string {
	if src.RichNotes {
		dst.Notes = src.Notes
		dst.RichNotes = true
		return nil
	}
	if dst.RichNotes {
		if !opts.ForcePlainNotes {
			return []string{"keeping rich-text notes, source is plain text"}
		}
		dst.Notes = html.EscapeString(src.Notes)
		return nil
	}
	dst.Notes = src.Notes
	return nil
}
