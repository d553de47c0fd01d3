package service

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/dirk.krummacker/phonebook/internal/audit"
	"gitlab.com/dirk.krummacker/phonebook/internal/model"
	"gitlab.com/dirk.krummacker/phonebook/internal/phonebook"
)

// initializePhonebookService sets up the service with an in-memory
// audit sink and returns the phonebook and a handle to the gin engine
// against which requests can be executed.
func initializePhonebookService() (*phonebook.PhoneBook, *gin.Engine) {
	book := phonebook.New(&audit.MemSink{})
	gin.SetMode(gin.ReleaseMode)
	return book, SetupHttpRouter(book)
}

// runTest executes the HTTP request with the specified arguments and
// returns the response.
func runTest(router *gin.Engine, method string, url string, body *strings.Reader) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	if body == nil {
		body = strings.NewReader("")
	}
	request, _ := http.NewRequest(method, url, body)
	router.ServeHTTP(recorder, request)
	return recorder
}

// seedContact adds one contact directly to the phonebook.
func seedContact(book *phonebook.PhoneBook, first, last, phone string) {
	book.Add(model.New(first, last, phone, "", ""))
}

// TestHealth executes a GET request against the health endpoint and
// expects the OK status code.
func TestHealth(t *testing.T) {
	_, router := initializePhonebookService()
	recorder := runTest(router, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

// TestPost executes a POST request with a valid body. It expects the
// CREATED status code and a body with the posted values.
func TestPost(t *testing.T) {
	book, router := initializePhonebookService()

	recorder := runTest(router, "POST", "/contacts", strings.NewReader(`
		{
			"firstname": "Erika",
			"lastname": "Mustermann",
			"phone": "(123) 456-7890",
			"email": "erika@example.com"
		}
	`))
	assert.Equal(t, http.StatusCreated, recorder.Code)

	var postBody map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &postBody)
	assert.Equal(t, "Erika", postBody["firstname"])
	assert.Equal(t, "Mustermann", postBody["lastname"])
	assert.Equal(t, "(123) 456-7890", postBody["phone"])
	assert.Equal(t, "erika@example.com", postBody["email"])
	assert.Equal(t, 1, book.Len())
}

// TestPostInvalidPhone executes a POST request with a malformed phone
// number. It expects the BAD REQUEST status code and that no contact
// is created.
func TestPostInvalidPhone(t *testing.T) {
	book, router := initializePhonebookService()

	recorder := runTest(router, "POST", "/contacts", strings.NewReader(`
		{
			"firstname": "Erika",
			"lastname": "Mustermann",
			"phone": "555-1234"
		}
	`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, 0, book.Len())
}

// TestPostInvalidBodies executes POST requests with invalid bodies.
// It expects that the HTTP requests are all answered with the BAD
// REQUEST status code.
func TestPostInvalidBodies(t *testing.T) {
	invalidRequestBodies := []string{
		"",
		"not JSON",
		// missing last name and phone
		`{"firstname": "Erika"}`,
		// missing first name
		`{"lastname": "Mustermann", "phone": "(123) 456-7890"}`,
		// malformed email
		`{"firstname": "Erika", "lastname": "Mustermann", "phone": "(123) 456-7890", "email": "broken"}`,
	}
	for _, body := range invalidRequestBodies {
		book, router := initializePhonebookService()
		recorder := runTest(router, "POST", "/contacts", strings.NewReader(body))
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "request body: "+body)
		assert.Equal(t, 0, book.Len())
	}
}

// TestGetAll executes a GET request without a query and expects the
// JSON for all contacts.
func TestGetAll(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")
	seedContact(book, "Bob", "Cole", "(222) 222-2222")

	recorder := runTest(router, "GET", "/contacts", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	require.Equal(t, 2, len(contacts))
	assert.Equal(t, "Baker", contacts[0].LastName)
	assert.Equal(t, "Cole", contacts[1].LastName)
}

// TestGetQuery executes a GET request with a search query and expects
// only the matching contacts.
func TestGetQuery(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")
	seedContact(book, "Bob", "Cole", "(222) 222-2222")

	recorder := runTest(router, "GET", "/contacts?q=cole", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	require.Equal(t, 1, len(contacts))
	assert.Equal(t, "Bob", contacts[0].FirstName)
}

// TestGetNoMatch executes a GET request matching nothing. It expects
// the NOT FOUND status code.
func TestGetNoMatch(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "GET", "/contacts?q=nobody", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestGetInvalidTimeWindow executes GET requests with broken start
// and end parameters. It expects the BAD REQUEST status code.
func TestGetInvalidTimeWindow(t *testing.T) {
	invalidQueries := []string{
		"/contacts?start=2024-01-01T00:00:00Z", // end missing
		"/contacts?end=2024-01-01T00:00:00Z",   // start missing
		"/contacts?start=yesterday&end=2024-01-01T00:00:00Z",
		"/contacts?start=2024-01-01T00:00:00Z&end=tomorrow",
	}
	for _, url := range invalidQueries {
		_, router := initializePhonebookService()
		recorder := runTest(router, "GET", url, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code, "url: "+url)
	}
}

// TestPut executes a PUT request with a valid display number and a
// partial body. It expects the OK status code and a body with all
// values of the contact after the update.
func TestPut(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")
	seedContact(book, "Bob", "Cole", "(222) 222-2222")

	recorder := runTest(router, "PUT", "/contacts/2", strings.NewReader(`
		{
			"phone": "(999) 888-7777"
		}
	`))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var putBody map[string]interface{}
	json.Unmarshal(recorder.Body.Bytes(), &putBody)
	assert.Equal(t, "Bob", putBody["firstname"])
	assert.Equal(t, "Cole", putBody["lastname"])
	assert.Equal(t, "(999) 888-7777", putBody["phone"])
	assert.Equal(t, 1, len(book.Contacts()[1].History))
}

// TestPutInvalidPhone executes a PUT request with a malformed phone
// number. It expects the BAD REQUEST status code and an unchanged
// contact.
func TestPutInvalidPhone(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "PUT", "/contacts/1", strings.NewReader(`
		{
			"phone": "555-1234"
		}
	`))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "(111) 111-1111", book.Contacts()[0].Phone)
	assert.Empty(t, book.Contacts()[0].History)
}

// TestPutNoValues executes a PUT request with an empty JSON body. It
// expects the BAD REQUEST status code.
func TestPutNoValues(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "PUT", "/contacts/1", strings.NewReader("{}"))
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Empty(t, book.Contacts()[0].History)
}

// TestPutInvalidNumbers executes PUT requests with numbers outside
// the displayed list and with a non-numeric value. It expects the NOT
// FOUND status code.
func TestPutInvalidNumbers(t *testing.T) {
	for _, url := range []string{"/contacts/0", "/contacts/2", "/contacts/INVALID"} {
		book, router := initializePhonebookService()
		seedContact(book, "Ann", "Baker", "(111) 111-1111")
		recorder := runTest(router, "PUT", url, strings.NewReader(`{"address": "Oak Lane 3"}`))
		assert.Equal(t, http.StatusNotFound, recorder.Code, "url: "+url)
	}
}

// TestDelete executes a DELETE request with a matching full name in
// any case. It expects the OK status code, then NOT FOUND on repeat.
func TestDelete(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "DELETE", "/contacts/ann%20baker", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, 0, book.Len())

	recorder = runTest(router, "DELETE", "/contacts/ann%20baker", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

// TestSort executes a POST request on the sort endpoint and expects
// the reordered contact list.
func TestSort(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Cole", "(111) 111-1111")
	seedContact(book, "Bob", "Baker", "(222) 222-2222")

	recorder := runTest(router, "POST", "/contacts/sort?mode=alphabetical", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var contacts []model.Contact
	json.Unmarshal(recorder.Body.Bytes(), &contacts)
	require.Equal(t, 2, len(contacts))
	assert.Equal(t, "Baker", contacts[0].LastName)
	assert.Equal(t, "Cole", contacts[1].LastName)
}

// TestSortInvalidMode executes a POST request with an unknown sort
// mode. It expects the BAD REQUEST status code and an unchanged
// order.
func TestSortInvalidMode(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Cole", "(111) 111-1111")
	seedContact(book, "Bob", "Baker", "(222) 222-2222")

	recorder := runTest(router, "POST", "/contacts/sort?mode=birthday", nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Equal(t, "Cole", book.Contacts()[0].LastName)
}

// TestBatch executes a batch add followed by a batch delete of the
// same rows and expects the phonebook to return to its previous size.
func TestBatch(t *testing.T) {
	book, router := initializePhonebookService()

	rows := `{"rows": [
		["Ann", "Baker", "(111) 111-1111"],
		["Bob", "Cole", "(222) 222-2222", "bob@example.com", "Oak Lane 3"],
		["too", "short"]
	]}`
	recorder := runTest(router, "POST", "/contacts/batch", strings.NewReader(rows))
	assert.Equal(t, http.StatusOK, recorder.Code)

	var result phonebook.BatchResult
	json.Unmarshal(recorder.Body.Bytes(), &result)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, 2, book.Len())

	recorder = runTest(router, "POST", "/contacts/batch-delete", strings.NewReader(rows))
	assert.Equal(t, http.StatusOK, recorder.Code)
	json.Unmarshal(recorder.Body.Bytes(), &result)
	assert.Equal(t, 2, result.Applied)
	assert.Equal(t, 0, book.Len())
}

// TestExport executes a GET request on the export endpoint and
// expects all contacts as rows in the import column order.
func TestExport(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "GET", "/contacts/export", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var exportBody struct {
		Rows [][]string `json:"rows"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &exportBody)
	require.Equal(t, 1, len(exportBody.Rows))
	assert.Equal(t, []string{"Ann", "Baker", "(111) 111-1111", "", ""}, exportBody.Rows[0])
}

// TestAuditLog adds a contact, reads the audit trail over HTTP and
// clears it.
func TestAuditLog(t *testing.T) {
	book, router := initializePhonebookService()
	seedContact(book, "Ann", "Baker", "(111) 111-1111")

	recorder := runTest(router, "GET", "/audit", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var auditBody struct {
		Lines []string `json:"lines"`
	}
	json.Unmarshal(recorder.Body.Bytes(), &auditBody)
	require.Equal(t, 1, len(auditBody.Lines))
	assert.Contains(t, auditBody.Lines[0], "Added contact: Ann Baker")

	recorder = runTest(router, "DELETE", "/audit", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	lines, err := book.AuditLines()
	require.NoError(t, err)
	assert.Empty(t, lines)
}
