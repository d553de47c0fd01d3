// The interactive front end of the phonebook. It owns all prompting,
// input validation and colored rendering; the directory itself lives
// in internal/phonebook and is shared with the REST service.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"gitlab.com/dirk.krummacker/phonebook/internal/audit"
	"gitlab.com/dirk.krummacker/phonebook/internal/config"
	"gitlab.com/dirk.krummacker/phonebook/internal/csvio"
	"gitlab.com/dirk.krummacker/phonebook/internal/model"
	"gitlab.com/dirk.krummacker/phonebook/internal/phonebook"
)

var (
	green = color.New(color.FgGreen)
	red   = color.New(color.FgRed)
	blue  = color.New(color.FgBlue)
)

type cli struct {
	reader  *bufio.Reader
	book    *phonebook.PhoneBook
	dataDir string
}

// Usage example on the command line:
// > DATA_DIR=data AUDIT_LOG_PATH=audit_log.txt go run main.go
func main() {
	_ = godotenv.Load()
	cfg, err := config.New()
	if err != nil {
		panic(err)
	}
	if cfg.NoColor {
		color.NoColor = true
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		panic(err)
	}
	app := &cli{
		reader:  bufio.NewReader(os.Stdin),
		book:    phonebook.New(audit.NewFileSink(cfg.AuditLogPath)),
		dataDir: cfg.DataDir,
	}
	app.run()
}

func (app *cli) run() {
	for {
		displayMenu()
		switch app.readLine("Choose an option: ") {
		case "1":
			app.addContact()
		case "2":
			fmt.Println(app.book.DisplayAll())
		case "3":
			app.searchContacts()
		case "4":
			app.updateContact()
		case "5":
			app.deleteContact()
		case "6":
			app.batchAddContacts()
		case "7":
			app.batchDeleteContacts()
		case "8":
			app.sortContacts(phonebook.SortAlphabetical)
		case "9":
			app.sortContacts(phonebook.SortGroup)
		case "10":
			app.viewUpdateHistory()
		case "11":
			app.exportContacts()
		case "12":
			app.viewAuditLog()
		case "13":
			if err := app.book.ClearAuditLog(); err != nil {
				red.Println("Error: could not clear the audit log.")
			}
			green.Println("Exiting the phonebook system. Goodbye!")
			return
		default:
			red.Println("Invalid option. Please try again.")
		}
	}
}

func displayMenu() {
	fmt.Println("\n--- Phonebook Main Menu ---")
	fmt.Println(" 1. Add Contact")
	fmt.Println(" 2. View All Contacts")
	fmt.Println(" 3. Search Contacts")
	fmt.Println(" 4. Update Contact")
	fmt.Println(" 5. Delete Contact")
	fmt.Println(" 6. Batch Add Contacts (from CSV)")
	fmt.Println(" 7. Batch Delete Contacts (from CSV)")
	fmt.Println(" 8. Sort Contacts Alphabetically")
	fmt.Println(" 9. Group Contacts by Last Name Initial")
	fmt.Println(" 10. View Contact Update History")
	fmt.Println(" 11. Export Contacts (to CSV)")
	fmt.Println(" 12. View Audit Log")
	fmt.Println(" 13. Exit")
	fmt.Println()
}

// readLine prompts and returns the trimmed input line. On end of
// input the program exits cleanly.
func (app *cli) readLine(prompt string) string {
	fmt.Print(prompt)
	line, err := app.reader.ReadString('\n')
	if err != nil && len(line) == 0 {
		green.Println("\nExiting the phonebook system. Goodbye!")
		os.Exit(0)
	}
	return strings.TrimSpace(line)
}

// getValidInput prompts until the input passes the validation
// function.
func (app *cli) getValidInput(prompt string, valid func(string) bool, errorMessage string) string {
	for {
		value := app.readLine(prompt)
		if valid(value) {
			return value
		}
		red.Println(errorMessage)
	}
}

// addContact prompts for all contact fields, validating each before
// the contact is constructed. The phonebook does not re-validate on
// add.
func (app *cli) addContact() {
	firstName := app.getValidInput("Enter first name: ",
		func(s string) bool { return s != "" },
		"Error: First name cannot be empty.")
	lastName := app.getValidInput("Enter last name: ",
		func(s string) bool { return s != "" },
		"Error: Last name cannot be empty.")
	phone := app.getValidInput("Enter phone number (format: (###) ###-####): ",
		phonebook.ValidPhone,
		"Error: Invalid phone number format. It must be (###) ###-####.")
	email := app.getValidInput("Enter email (optional): ",
		phonebook.ValidEmail,
		"Error: Invalid email format. It must be in the format username@domain.com.")
	address := app.readLine("Enter address (optional): ")

	app.book.Add(model.New(firstName, lastName, phone, email, address))
	green.Println("Contact added successfully!")
}

func (app *cli) searchContacts() {
	query := app.readLine("Enter name or phone number to search: ")
	matches := app.book.Search(query, nil, nil)
	if len(matches) == 0 {
		red.Printf("No contacts found matching the search criteria: %s\n", query)
		return
	}
	for _, contact := range matches {
		fmt.Println(contact)
	}
}

func (app *cli) updateContact() {
	query := app.readLine("Enter the full name of the contact to update: ")
	matches := app.book.Search(query, nil, nil)
	if len(matches) == 0 {
		red.Printf("Error: No contact found with the name %s.\n", query)
		return
	}

	fmt.Println("\n--- Select Contact to Update ---")
	for i, c := range matches {
		fmt.Printf("%d. %s %s | %s\n", i+1, c.FirstName, c.LastName, c.Phone)
	}
	var contact *model.Contact
	for contact == nil {
		choice, err := strconv.Atoi(app.readLine("\nEnter the number of the contact to update: "))
		switch {
		case err != nil:
			red.Println("Error: Invalid input. Please enter a number.")
		case choice < 1 || choice > len(matches):
			red.Println("Error: Please enter a valid number from the list.")
		default:
			contact = matches[choice-1]
		}
	}

	// A blank answer keeps the current value, so the corresponding
	// update field stays nil.
	fmt.Println("\n--- Enter New Details (Leave blank to keep current values) ---")
	var update model.Update
	if v := app.readLine(fmt.Sprintf("Enter new first name (current: %s): ", contact.FirstName)); v != "" {
		update.FirstName = &v
	}
	if v := app.readLine(fmt.Sprintf("Enter new last name (current: %s): ", contact.LastName)); v != "" {
		update.LastName = &v
	}
	if v := app.getValidInput(
		fmt.Sprintf("Enter new phone number (current: %s): ", contact.Phone),
		func(s string) bool { return s == "" || phonebook.ValidPhone(s) },
		"Error: Invalid phone number format. It must be (###) ###-####.",
	); v != "" {
		update.Phone = &v
	}
	if v := app.getValidInput(
		fmt.Sprintf("Enter new email (current: %s): ", contact.Email),
		phonebook.ValidEmail,
		"Error: Invalid email format. It must be in the format username@domain.com.",
	); v != "" {
		update.Email = &v
	}
	if v := app.readLine(fmt.Sprintf("Enter new address (current: %s): ", contact.Address)); v != "" {
		update.Address = &v
	}

	if err := app.book.Update(contact, update); err != nil {
		red.Printf("Error: %s.\n", err)
		return
	}
	green.Println("Contact updated successfully!")
}

func (app *cli) deleteContact() {
	fullName := app.readLine("Enter the full name of the contact to delete (First Last): ")
	if err := app.book.Delete(fullName); err != nil {
		red.Printf("Error: No contact found with the full name '%s'.\n", fullName)
		return
	}
	green.Printf("Contact '%s' deleted successfully.\n", fullName)
}

// loadRows asks for a file in the data directory and returns its data
// rows.
func (app *cli) loadRows() ([][]string, bool) {
	filename := app.readLine(
		fmt.Sprintf("Place your CSV file in the '%s' folder and enter the name of the file (e.g: testing.csv): ",
			app.dataDir))
	path := csvio.Resolve(app.dataDir, filename)
	if !csvio.Exists(path) {
		red.Printf("Error: File not found in the '%s' folder.\n", app.dataDir)
		return nil, false
	}
	rows, err := csvio.Load(path)
	if err != nil {
		red.Printf("Error: %s.\n", err)
		return nil, false
	}
	return rows, true
}

func (app *cli) batchAddContacts() {
	rows, ok := app.loadRows()
	if !ok {
		return
	}
	result := app.book.BatchAdd(rows)
	green.Printf("Contacts added successfully from CSV: %d added.\n", result.Applied)
	if result.Skipped > 0 {
		red.Printf("Skipped %d malformed rows.\n", result.Skipped)
	}
}

func (app *cli) batchDeleteContacts() {
	rows, ok := app.loadRows()
	if !ok {
		return
	}
	result := app.book.BatchDelete(rows)
	for _, name := range result.Missing {
		red.Printf("Error: Contact %s does not exist.\n", name)
	}
	green.Printf("Contacts batch removed from CSV: %d deleted.\n", result.Applied)
	if result.Skipped > 0 {
		red.Printf("Skipped %d malformed rows.\n", result.Skipped)
	}
}

func (app *cli) sortContacts(mode string) {
	if err := app.book.Sort(mode); err != nil {
		red.Println("Error: Invalid sort type.")
		return
	}
	switch mode {
	case phonebook.SortAlphabetical:
		green.Println("Contacts sorted alphabetically by last name.")
	case phonebook.SortGroup:
		green.Println("Contacts grouped by the first letter of last name.")
	}
	fmt.Println(app.book.DisplayAll())
}

func (app *cli) viewUpdateHistory() {
	query := app.readLine("Enter name or phone number of the contact: ")
	matches := app.book.Search(query, nil, nil)
	if len(matches) == 0 {
		red.Printf("No contacts found matching the search criteria: %s\n", query)
		return
	}
	for _, c := range matches {
		fmt.Printf("\n--- Update History for %s %s ---\n", c.FirstName, c.LastName)
		fmt.Println(c.HistoryReport())
	}
}

func (app *cli) exportContacts() {
	filename := app.readLine("Enter the name of the export file (e.g: export.csv): ")
	rows := app.book.ExportRows()
	if err := csvio.Save(csvio.Resolve(app.dataDir, filename), rows); err != nil {
		red.Printf("Error: %s.\n", err)
		return
	}
	green.Printf("Exported %d contacts to %s.\n", len(rows), filename)
}

func (app *cli) viewAuditLog() {
	lines, err := app.book.AuditLines()
	if err != nil {
		red.Println("Error: could not read the audit log.")
		return
	}
	blue.Println("\n--- Audit Log ---")
	for _, line := range lines {
		blue.Println(" " + line)
	}
}
