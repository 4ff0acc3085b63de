package record

import (
	"strings"
	"time"
)

// PhoneType labels a contact phone number. The order of phonePriority is
// the auto-assignment order for unlabeled source numbers.
type PhoneType string

const (
	PhoneHome   PhoneType = "home"
	PhoneWork   PhoneType = "work"
	PhoneMobile PhoneType = "mobile"
	PhoneOther  PhoneType = "other"
	PhoneCar    PhoneType = "car"
)

// PhonePriority is the fixed order in which unlabeled numbers are assigned
// to the first under-capacity type.
var PhonePriority = []PhoneType{PhoneHome, PhoneWork, PhoneMobile, PhoneOther, PhoneCar}

// AddressType labels a postal address. Each side holds at most one address
// per type.
type AddressType string

const (
	AddressHome  AddressType = "home"
	AddressWork  AddressType = "work"
	AddressOther AddressType = "other"
)

// MaxEmails is the number of email slots a contact carries.
const MaxEmails = 3

// StructuredName is a contact's decomposed name.
type StructuredName struct {
	Prefix  string `json:"prefix,omitempty"`
	Given   string `json:"given,omitempty"`
	Middle  string `json:"middle,omitempty"`
	Family  string `json:"family,omitempty"`
	Suffix  string `json:"suffix,omitempty"`
	Display string `json:"display,omitempty"`
}

// Full returns the display name, composing one from the parts when the
// store did not carry an explicit display string.
func (n StructuredName) Full() string {
	if n.Display != "" {
		return n.Display
	}
	parts := make([]string, 0, 5)
	for _, p := range []string{n.Prefix, n.Given, n.Middle, n.Family, n.Suffix} {
		if p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, " ")
}

// Phone is a typed phone number.
type Phone struct {
	Type   PhoneType `json:"type"`
	Number string    `json:"number"`
}

// Address is a typed postal address.
type Address struct {
	Type       AddressType `json:"type"`
	Street     string      `json:"street,omitempty"`
	City       string      `json:"city,omitempty"`
	Region     string      `json:"region,omitempty"`
	PostalCode string      `json:"postal_code,omitempty"`
	Country    string      `json:"country,omitempty"`
}

// IM is an instant-messaging handle, carried on the wire as
// "protocol: username" pairs separated by ';'.
type IM struct {
	Protocol string `json:"protocol"`
	Handle   string `json:"handle"`
}

// Contact is an address book record on either side.
type Contact struct {
	Meta

	NativeID string         `json:"native_id"`
	Name     StructuredName `json:"name"`

	// Emails holds up to MaxEmails addresses; empty slots are compacted
	// left on merge.
	Emails []string `json:"emails,omitempty"`

	Phones    []Phone   `json:"phones,omitempty"`
	Addresses []Address `json:"addresses,omitempty"`
	IMs       []IM      `json:"ims,omitempty"`

	Organization string `json:"organization,omitempty"`
	Title        string `json:"title,omitempty"`
	Department   string `json:"department,omitempty"`

	// Birthday and Anniversary use the zero time as the no-date sentinel;
	// the counterpart side maps it to field-absent.
	Birthday    time.Time `json:"birthday,omitempty"`
	Anniversary time.Time `json:"anniversary,omitempty"`

	Spouse    string `json:"spouse,omitempty"`
	Child     string `json:"child,omitempty"`
	Manager   string `json:"manager,omitempty"`
	Assistant string `json:"assistant,omitempty"`

	Homepage string `json:"homepage,omitempty"`

	// Notes is the free-text biography. RichNotes marks store-side rich
	// text that plain text must not clobber unless forced.
	Notes     string `json:"notes,omitempty"`
	RichNotes bool   `json:"rich_notes,omitempty"`

	Deleted bool      `json:"deleted,omitempty"`
	Updated time.Time `json:"updated,omitempty"`
}

func (c *Contact) ID() string { return c.NativeID }
func (c *Contact) Kind() Kind { return KindContact }
func (c *Contact) Label() string {
	if name := c.Name.Full(); name != "" {
		return name
	}
	for _, e := range c.Emails {
		if e != "" {
			return e
		}
	}
	return c.NativeID
}

func (c *Contact) SummaryKey() string { return c.Name.Full() }

func (c *Contact) StartsAt() (time.Time, bool) { return time.Time{}, false }

func (c *Contact) AllDay() bool { return false }

func (c *Contact) Cancelled() bool { return c.Deleted }

func (c *Contact) Participants() int { return 1 }

func (c *Contact) RecurringParentID() string { return "" }

// PhoneCaps is the per-type number limit of the narrower side.
var PhoneCaps = map[PhoneType]int{
	PhoneHome:   2,
	PhoneWork:   2,
	PhoneMobile: 1,
	PhoneOther:  1,
	PhoneCar:    1,
}
