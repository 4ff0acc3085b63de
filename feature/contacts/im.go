package contacts

import (
	"strings"

	"pim-sync/core/record"
)

// ParseIMs splits a "protocol: username" list on ';' entries and the first
// ':' inside each entry. Entries without a protocol keep an empty protocol.
func ParseIMs(s string) []record.IM {
	var out []record.IM
	for _, part := range strings.Split(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		proto, handle, found := strings.Cut(part, ":")
		if !found {
			out = append(out, record.IM{Handle: strings.TrimSpace(proto)})
			continue
		}
		out = append(out, record.IM{
			Protocol: strings.TrimSpace(proto),
			Handle:   strings.TrimSpace(handle),
		})
	}
	return out
}

// FormatIMs renders handles back into the "protocol: username; ..." form.
func FormatIMs(ims []record.IM) string {
	parts := make([]string, 0, len(ims))
	for _, im := range ims {
		if im.Handle == "" {
			continue
		}
		if im.Protocol == "" {
			parts = append(parts, im.Handle)
			continue
		}
		parts = append(parts, im.Protocol+": "+im.Handle)
	}
	return strings.Join(parts, "; ")
}
