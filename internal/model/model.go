package model

import (
	"fmt"
	"strings"
	"time"
)

// TimeFormat is the human-readable timestamp format used in rendered
// reports and in the audit log.
const TimeFormat = "2006-01-02 15:04:05"

// Contact is the data structure for a person in the phonebook. First
// name, last name and phone are required, email and address are
// optional. The format of the required fields is enforced by the
// callers that construct contacts, not by this package.
type Contact struct {
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email,omitempty"`
	Address   string    `json:"address,omitempty"`
	Created   time.Time `json:"created"`
	Updated   time.Time `json:"updated"`
	History   []Change  `json:"history,omitempty"`
}

// Snapshot captures the five user-supplied fields of a contact at one
// point in time.
type Snapshot struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// Change records a single update of a contact: when it happened and
// the full field snapshots before and after.
type Change struct {
	Timestamp time.Time `json:"timestamp"`
	Old       Snapshot  `json:"old"`
	New       Snapshot  `json:"new"`
}

// Update describes the requested changes for a contact. A nil field
// leaves the current value unchanged. A non-nil field replaces the
// value, so a present-but-empty email or address clears it.
type Update struct {
	FirstName *string `json:"firstname,omitempty"`
	LastName  *string `json:"lastname,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Email     *string `json:"email,omitempty"`
	Address   *string `json:"address,omitempty"`
}

// Empty returns true if the update does not request any field change.
func (u Update) Empty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Phone == nil &&
		u.Email == nil && u.Address == nil
}

// New creates a contact. Creation and update time are the same when
// the contact is first created, and the change history starts empty.
func New(firstName, lastName, phone, email, address string) *Contact {
	now := time.Now().Truncate(time.Second)
	return &Contact{
		FirstName: firstName,
		LastName:  lastName,
		Phone:     phone,
		Email:     email,
		Address:   address,
		Created:   now,
		Updated:   now,
	}
}

// FullName returns the first and last name joined by a space.
func (c *Contact) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Snapshot returns the current values of the five user-supplied
// fields.
func (c *Contact) Snapshot() Snapshot {
	return Snapshot{
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Email:     c.Email,
		Address:   c.Address,
	}
}

// Apply replaces the fields present in the update and appends one
// change record with the before and after snapshots. Every call
// appends a record, even if no field effectively changes, so that the
// history also covers touch events.
func (c *Contact) Apply(u Update) {
	old := c.Snapshot()
	if u.FirstName != nil {
		c.FirstName = *u.FirstName
	}
	if u.LastName != nil {
		c.LastName = *u.LastName
	}
	if u.Phone != nil {
		c.Phone = *u.Phone
	}
	if u.Email != nil {
		c.Email = *u.Email
	}
	if u.Address != nil {
		c.Address = *u.Address
	}
	c.Updated = time.Now().Truncate(time.Second)
	c.History = append(c.History, Change{
		Timestamp: c.Updated,
		Old:       old,
		New:       c.Snapshot(),
	})
}

// Equal compares two contacts by their five user-supplied fields.
// Timestamps and history are not part of contact identity.
func (c *Contact) Equal(other *Contact) bool {
	if other == nil {
		return false
	}
	return c.Snapshot() == other.Snapshot()
}

// String renders the fixed multi-line summary block for a contact.
func (c *Contact) String() string {
	divider := strings.Repeat("-", 40)
	return fmt.Sprintf("\n%s\n"+
		"Contact Name : %s %s\n"+
		"Phone Number : %s\n"+
		"Address      : %s\n"+
		"Email        : %s\n"+
		"Added on     : %s\n"+
		"%s\n",
		divider, c.FirstName, c.LastName, c.Phone, orNA(c.Address),
		orNA(c.Email), c.Created.Format(TimeFormat), divider)
}

// HistoryReport renders one line per change record, oldest first.
func (c *Contact) HistoryReport() string {
	if len(c.History) == 0 {
		return "No updates made to this contact."
	}
	var b strings.Builder
	for i, change := range c.History {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%s: old=%s, new=%s",
			change.Timestamp.Format(TimeFormat), change.Old, change.New)
	}
	return b.String()
}

// String renders a snapshot as a single human-readable line.
func (s Snapshot) String() string {
	return fmt.Sprintf("{first_name: %s, last_name: %s, phone: %s, email: %s, address: %s}",
		s.FirstName, s.LastName, s.Phone, s.Email, s.Address)
}

// orNA substitutes "N/A" for empty optional fields in reports.
func orNA(value string) string {
	if value == "" {
		return "N/A"
	}
	return value
}
