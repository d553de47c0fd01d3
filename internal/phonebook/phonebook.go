// Package phonebook implements the contact directory: an in-memory,
// insertion-ordered list of contacts with CRUD, search, sort and
// batch operations. Every operation appends one line to the audit
// trail, success or failure.
package phonebook

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"gitlab.com/dirk.krummacker/phonebook/internal/audit"
	"gitlab.com/dirk.krummacker/phonebook/internal/model"
)

// Sort modes accepted by Sort.
const (
	SortAlphabetical = "alphabetical"
	SortGroup        = "group"
)

var (
	ErrNotFound        = errors.New("contact not found")
	ErrEmptyName       = errors.New("first and last name cannot be empty")
	ErrInvalidPhone    = errors.New("invalid phone number format, must be (###) ###-####")
	ErrInvalidEmail    = errors.New("invalid email format, must be username@domain.com")
	ErrInvalidSortMode = errors.New("invalid sort type")
)

// phonePattern is the single accepted phone format: literal
// parentheses, one space, one hyphen, ASCII digits only.
var phonePattern = regexp.MustCompile(`^\(\d{3}\) \d{3}-\d{4}$`)

// emailPattern accepts anything shaped like local@domain.tld.
var emailPattern = regexp.MustCompile(`^.+@.+\..+$`)

// ValidPhone reports whether phone matches (###) ###-####.
func ValidPhone(phone string) bool {
	return phonePattern.MatchString(phone)
}

// ValidEmail reports whether email is acceptable. The empty string
// means "no email" and is always accepted.
func ValidEmail(email string) bool {
	return email == "" || emailPattern.MatchString(email)
}

// BatchResult reports the outcome of a batch operation. Missing is
// only filled by BatchDelete and lists the full names of rows that
// had no structurally equal contact left in the directory.
type BatchResult struct {
	Applied int      `json:"applied"`
	Skipped int      `json:"skipped"`
	Missing []string `json:"missing,omitempty"`
}

// PhoneBook stores the contact list in insertion order and writes one
// audit line per operation to the injected sink. It is not safe for
// concurrent use; callers serialize access.
type PhoneBook struct {
	contacts []*model.Contact
	log      audit.Sink
}

// New creates an empty phonebook writing its audit trail to the given
// sink.
func New(log audit.Sink) *PhoneBook {
	return &PhoneBook{log: log}
}

// Contacts returns the current contact list in display order. The
// slice is owned by the phonebook and must not be mutated.
func (pb *PhoneBook) Contacts() []*model.Contact {
	return pb.contacts
}

// Len returns the number of contacts in the phonebook.
func (pb *PhoneBook) Len() int {
	return len(pb.contacts)
}

// logOperation appends one timestamped line to the audit trail. A
// failing sink never fails the phonebook operation that logged it.
func (pb *PhoneBook) logOperation(description string) {
	line := fmt.Sprintf("%s - %s", time.Now().Format(model.TimeFormat), description)
	_ = pb.log.Append(line)
}

// Add appends a contact to the phonebook. It always succeeds; format
// validation is the constructing caller's responsibility.
func (pb *PhoneBook) Add(c *model.Contact) {
	pb.contacts = append(pb.contacts, c)
	pb.logOperation(fmt.Sprintf("Added contact: %s %s", c.FirstName, c.LastName))
}

// Delete removes the first contact whose full name matches the given
// name, compared case-insensitively. Returns ErrNotFound if no
// contact matches, leaving the list unchanged.
func (pb *PhoneBook) Delete(fullName string) error {
	want := strings.ToLower(fullName)
	for i, c := range pb.contacts {
		if strings.ToLower(c.FullName()) == want {
			pb.contacts = append(pb.contacts[:i], pb.contacts[i+1:]...)
			pb.logOperation("Deleted contact: " + want)
			return nil
		}
	}
	pb.logOperation("Failed to delete contact: " + want)
	return fmt.Errorf("%w: %s", ErrNotFound, fullName)
}

// contactFromRow builds a contact from an import row in the fixed
// column order first, last, phone, optional email, optional address.
// Columns beyond the fifth are ignored.
func contactFromRow(row []string) *model.Contact {
	var email, address string
	if len(row) > 3 {
		email = row[3]
	}
	if len(row) > 4 {
		address = row[4]
	}
	return model.New(row[0], row[1], row[2], email, address)
}

// BatchAdd constructs one contact per row and appends it without
// validation or duplicate checks. Rows with fewer than three fields
// are skipped and counted. One summary line is logged for the whole
// batch.
func (pb *PhoneBook) BatchAdd(rows [][]string) BatchResult {
	var res BatchResult
	for _, row := range rows {
		if len(row) < 3 {
			res.Skipped++
			continue
		}
		pb.contacts = append(pb.contacts, contactFromRow(row))
		res.Applied++
	}
	pb.logOperation(fmt.Sprintf("Batch added %d contacts, skipped %d malformed rows",
		res.Applied, res.Skipped))
	return res
}

// BatchDelete removes, for each row, the first contact structurally
// equal to the contact the row describes. Rows without a match are
// reported in the result but never stop the remaining rows. One
// summary line is logged for the whole batch.
func (pb *PhoneBook) BatchDelete(rows [][]string) BatchResult {
	var res BatchResult
	for _, row := range rows {
		if len(row) < 3 {
			res.Skipped++
			continue
		}
		candidate := contactFromRow(row)
		if pb.removeEqual(candidate) {
			res.Applied++
		} else {
			res.Missing = append(res.Missing, candidate.FullName())
		}
	}
	pb.logOperation(fmt.Sprintf("Batch deleted %d contacts, %d not found, skipped %d malformed rows",
		res.Applied, len(res.Missing), res.Skipped))
	return res
}

// removeEqual removes the first contact structurally equal to the
// candidate and reports whether one was found.
func (pb *PhoneBook) removeEqual(candidate *model.Contact) bool {
	for i, c := range pb.contacts {
		if c.Equal(candidate) {
			pb.contacts = append(pb.contacts[:i], pb.contacts[i+1:]...)
			return true
		}
	}
	return false
}

// Update validates the requested changes and applies them to the
// contact. On a validation failure the contact is left completely
// unchanged, no history entry is appended, and the failed attempt is
// logged.
func (pb *PhoneBook) Update(c *model.Contact, u model.Update) error {
	if err := validateUpdate(u); err != nil {
		pb.logOperation(fmt.Sprintf("Attempted to update contact %s %s: %s",
			c.FirstName, c.LastName, err))
		return err
	}
	old := c.Snapshot()
	c.Apply(u)
	pb.logOperation(fmt.Sprintf("Updated contact: %s to %s", old, c.Snapshot()))
	return nil
}

// validateUpdate checks the format contracts on the fields present in
// the update. Required fields may not be cleared; email and address
// may.
func validateUpdate(u model.Update) error {
	if u.FirstName != nil && strings.TrimSpace(*u.FirstName) == "" {
		return ErrEmptyName
	}
	if u.LastName != nil && strings.TrimSpace(*u.LastName) == "" {
		return ErrEmptyName
	}
	if u.Phone != nil && !ValidPhone(*u.Phone) {
		return ErrInvalidPhone
	}
	if u.Email != nil && !ValidEmail(*u.Email) {
		return ErrInvalidEmail
	}
	return nil
}

// Search returns the contacts matching the query, in list order. The
// query is a case-insensitive regular expression matched against the
// first name, last name, full name and phone number; any one match is
// sufficient, and the empty query matches everything. A query that
// does not compile as a regular expression is matched as a literal
// substring instead. If both start and end are given, results are
// further restricted to contacts created within [start, end].
func (pb *PhoneBook) Search(query string, start, end *time.Time) []*model.Contact {
	re, err := regexp.Compile("(?i)" + query)
	if err != nil {
		re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(query))
	}
	var matches []*model.Contact
	for _, c := range pb.contacts {
		if !re.MatchString(c.FirstName) && !re.MatchString(c.LastName) &&
			!re.MatchString(c.FullName()) && !re.MatchString(c.Phone) {
			continue
		}
		if start != nil && end != nil {
			if c.Created.Before(*start) || c.Created.After(*end) {
				continue
			}
		}
		matches = append(matches, c)
	}
	pb.logOperation(fmt.Sprintf("Searched for contacts with query: %s, found %d matches",
		query, len(matches)))
	return matches
}

// Sort reorders the contact list in place. Both modes are stable:
// alphabetical sorts by last name, group sorts by the last name
// initial only, so contacts sharing an initial keep their prior
// relative order. An unknown mode is an error and does not mutate.
func (pb *PhoneBook) Sort(mode string) error {
	switch mode {
	case SortAlphabetical:
		sort.SliceStable(pb.contacts, func(i, j int) bool {
			return pb.contacts[i].LastName < pb.contacts[j].LastName
		})
		pb.logOperation("Sorted contacts alphabetically by last name.")
	case SortGroup:
		sort.SliceStable(pb.contacts, func(i, j int) bool {
			return lastNameInitial(pb.contacts[i]) < lastNameInitial(pb.contacts[j])
		})
		pb.logOperation("Grouped contacts by last name initial.")
	default:
		pb.logOperation("Attempted to sort contacts with invalid sort type.")
		return fmt.Errorf("%w: %s", ErrInvalidSortMode, mode)
	}
	return nil
}

// lastNameInitial returns the first rune of the last name.
func lastNameInitial(c *model.Contact) string {
	if c.LastName == "" {
		return ""
	}
	r, _ := utf8.DecodeRuneInString(c.LastName)
	return string(r)
}

// ExportRows returns all contacts as rows in the import column order,
// suitable for writing to a delimited file.
func (pb *PhoneBook) ExportRows() [][]string {
	rows := make([][]string, 0, len(pb.contacts))
	for _, c := range pb.contacts {
		rows = append(rows, []string{c.FirstName, c.LastName, c.Phone, c.Email, c.Address})
	}
	pb.logOperation(fmt.Sprintf("Exported %d contacts", len(rows)))
	return rows
}

// DisplayAll renders the numbered contact listing with a total count,
// or a no-contacts message for an empty phonebook.
func (pb *PhoneBook) DisplayAll() string {
	if len(pb.contacts) == 0 {
		return "No contacts available in the phonebook."
	}
	divider := strings.Repeat("=", 90)
	var b strings.Builder
	b.WriteString("Phonebook Contacts:\n")
	b.WriteString(divider + "\n")
	for i, c := range pb.contacts {
		email := c.Email
		if email == "" {
			email = "N/A"
		}
		address := c.Address
		if address == "" {
			address = "N/A"
		}
		fmt.Fprintf(&b, "%d. %s %s | Phone: %s | Email: %s | Address: %s\n",
			i+1, c.FirstName, c.LastName, c.Phone, email, address)
	}
	b.WriteString(divider + "\n")
	fmt.Fprintf(&b, "Total contacts: %d", len(pb.contacts))
	return b.String()
}

// AuditLines returns the whole audit trail, oldest line first.
func (pb *PhoneBook) AuditLines() ([]string, error) {
	return pb.log.Lines()
}

// ClearAuditLog truncates the audit trail to empty. Irreversible.
func (pb *PhoneBook) ClearAuditLog() error {
	return pb.log.Clear()
}
