package contacts_test

import (
	"testing"

	"pim-sync/core/record"
	"pim-sync/feature/contacts"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeCompactsEmailSlots(t *testing.T) {
	src := &record.Contact{Emails: []string{"", "second@example.com", ""}}
	dst := &record.Contact{}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"second@example.com"}, dst.Emails)
}

func TestMergeDropsExcessEmails(t *testing.T) {
	src := &record.Contact{Emails: []string{"a@x", "b@x", "c@x", "d@x"}}
	dst := &record.Contact{}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "d@x")
	assert.Len(t, dst.Emails, record.MaxEmails)
}

func TestMergeRespectsPhoneCaps(t *testing.T) {
	src := &record.Contact{Phones: []record.Phone{
		{Type: record.PhoneHome, Number: "1"},
		{Type: record.PhoneHome, Number: "2"},
		{Type: record.PhoneHome, Number: "3"},
		{Type: record.PhoneMobile, Number: "4"},
	}}
	dst := &record.Contact{}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], `"3"`)
	assert.Len(t, dst.Phones, 3)
}

func TestMergeAssignsUnlabeledPhonesByPriority(t *testing.T) {
	src := &record.Contact{Phones: []record.Phone{
		{Type: record.PhoneHome, Number: "h1"},
		{Type: record.PhoneHome, Number: "h2"},
		{Number: "u1"},
	}}
	dst := &record.Contact{}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	assert.Empty(t, warnings)
	require.Len(t, dst.Phones, 3)
	// Home is full, so the unlabeled number lands on work.
	assert.Equal(t, record.PhoneWork, dst.Phones[2].Type)
	assert.Equal(t, "u1", dst.Phones[2].Number)
}

func TestMergeKeepsOneAddressPerType(t *testing.T) {
	src := &record.Contact{Addresses: []record.Address{
		{Type: record.AddressHome, Street: "First St"},
		{Type: record.AddressHome, Street: "Second St"},
		{Type: record.AddressWork, Street: "Office Rd"},
	}}
	dst := &record.Contact{}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "Second St")
	assert.Len(t, dst.Addresses, 2)
}

func TestPlainNotesNeverClobberRichText(t *testing.T) {
	src := &record.Contact{Notes: "plain biography"}
	dst := &record.Contact{Notes: "<b>rich</b>", RichNotes: true}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	require.Len(t, warnings, 1)
	assert.Equal(t, "<b>rich</b>", dst.Notes)
	assert.True(t, dst.RichNotes)
}

func TestForcedPlainNotesAreEscaped(t *testing.T) {
	src := &record.Contact{Notes: "a < b"}
	dst := &record.Contact{Notes: "<b>rich</b>", RichNotes: true}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{ForcePlainNotes: true})
	assert.Empty(t, warnings)
	assert.Equal(t, "a &lt; b", dst.Notes)
}

func TestRichNotesAlwaysWin(t *testing.T) {
	src := &record.Contact{Notes: "<i>styled</i>", RichNotes: true}
	dst := &record.Contact{Notes: "plain"}

	warnings := contacts.MergeContact(dst, src, contacts.MergeOptions{})
	assert.Empty(t, warnings)
	assert.Equal(t, "<i>styled</i>", dst.Notes)
	assert.True(t, dst.RichNotes)
}

func TestNewContactFromLeavesIDEmpty(t *testing.T) {
	src := &record.Contact{
		NativeID: "src",
		Name:     record.StructuredName{Given: "Ada", Family: "Lovelace"},
		Emails:   []string{"ada@example.com"},
	}
	created := contacts.NewContactFrom(src)
	assert.Empty(t, created.NativeID)
	assert.Equal(t, "Ada Lovelace", created.Name.Full())
	assert.Equal(t, []string{"ada@example.com"}, created.Emails)
}
