// Package service exposes the phonebook through a REST API. It is
// one of the two front ends; all state lives in the phonebook it
// wraps.
package service

import (
	"errors"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"gitlab.com/dirk.krummacker/phonebook/internal/model"
	"gitlab.com/dirk.krummacker/phonebook/internal/phonebook"
)

// Server holds the phonebook behind the REST handlers. The phonebook
// itself is single-threaded, so one mutex serializes all handler
// bodies.
type Server struct {
	mu   sync.Mutex
	book *phonebook.PhoneBook
}

// contactRequest is the body of a contact creation call.
type contactRequest struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	Address   string `json:"address"`
}

// batchRequest is the body of a batch add or batch delete call. Rows
// use the import column order: first, last, phone, email, address.
type batchRequest struct {
	Rows [][]string `json:"rows"`
}

// SetupHttpRouter initializes the REST API router and registers all
// endpoints.
func SetupHttpRouter(book *phonebook.PhoneBook) *gin.Engine {
	var router *gin.Engine
	if strings.EqualFold(os.Getenv("GIN_LOGGING"), "off") {
		router = gin.New()
	} else {
		router = gin.Default()
	}
	s := &Server{book: book}
	router.GET("/health", s.health)
	router.GET("/contacts", s.findContacts)
	router.POST("/contacts", s.createContact)
	router.PUT("/contacts/:num", s.updateContactByNumber)
	router.DELETE("/contacts/:name", s.deleteContactByName)
	router.POST("/contacts/sort", s.sortContacts)
	router.POST("/contacts/batch", s.batchAddContacts)
	// Not a DELETE: the router cannot mix /contacts/batch-delete with
	// the /contacts/:name wildcard on the same method.
	router.POST("/contacts/batch-delete", s.batchDeleteContacts)
	router.GET("/contacts/export", s.exportContacts)
	router.GET("/audit", s.viewAuditLog)
	router.DELETE("/audit", s.clearAuditLog)
	return router
}

// health responds as soon as the service is able to serve requests.
func (s *Server) health(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, gin.H{"status": "up"})
}

// findContacts responds with the contacts matching the search query
// as JSON.
//
// The URL parameter 'q' is matched case-insensitively against the
// first name, last name, full name and phone number of every contact.
// If 'q' is omitted or empty, all contacts match.
//
// The URL parameters 'start' and 'end' are RFC 3339 timestamps and
// must be given together. They restrict the result to contacts
// created within the inclusive range.
//
// REST API calls:
//
//	> curl "http://localhost:8080/contacts"
//	> curl "http://localhost:8080/contacts?q=smith"
//	> curl "http://localhost:8080/contacts?q=&start=2024-01-01T00:00:00Z&end=2024-12-31T23:59:59Z"
func (s *Server) findContacts(c *gin.Context) {
	start, end, ok := parseTimeWindow(c)
	if !ok {
		return
	}
	s.mu.Lock()
	matches := s.book.Search(c.Query("q"), start, end)
	s.mu.Unlock()
	if len(matches) == 0 {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, matches)
}

// parseTimeWindow inspects the URL parameters and determines the
// creation-time window of the search, if any.
func parseTimeWindow(c *gin.Context) (start *time.Time, end *time.Time, success bool) {
	startParam := c.Query("start")
	endParam := c.Query("end")
	if startParam == "" && endParam == "" {
		return nil, nil, true
	}
	if startParam == "" || endParam == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"message": "start and end parameters must be given together"})
		return nil, nil, false
	}
	startTime, err := time.Parse(time.RFC3339, startParam)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid start parameter"})
		return nil, nil, false
	}
	endTime, err := time.Parse(time.RFC3339, endParam)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid end parameter"})
		return nil, nil, false
	}
	return &startTime, &endTime, true
}

// createContact adds the contact specified in the request's JSON to
// the phonebook. The phonebook itself does not validate on add, so
// this front end enforces the format contracts before constructing
// the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts --request "POST" --include --header "Content-Type: application/json" --data '{"firstname": "Hans", "lastname": "Wurst", "phone": "(123) 456-7890"}'
func (s *Server) createContact(c *gin.Context) {
	var req contactRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"message": phonebook.ErrEmptyName.Error()})
		return
	}
	if !phonebook.ValidPhone(req.Phone) {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"message": phonebook.ErrInvalidPhone.Error()})
		return
	}
	if !phonebook.ValidEmail(req.Email) {
		c.AbortWithStatusJSON(http.StatusBadRequest,
			gin.H{"message": phonebook.ErrInvalidEmail.Error()})
		return
	}
	contact := model.New(req.FirstName, req.LastName, req.Phone, req.Email, req.Address)
	s.mu.Lock()
	s.book.Add(contact)
	s.mu.Unlock()
	c.IndentedJSON(http.StatusCreated, contact)
}

// updateContactByNumber updates the contact at the given position in
// the displayed list (starting at 1), changes the values specified in
// the JSON (and only those), and finally responds with the new
// version of the contact.
//
// Example REST API call:
//
//	> curl http://localhost:8080/contacts/2 --request "PUT" --include --header "Content-Type: application/json" --data '{"phone": "(987) 654-3210"}'
func (s *Server) updateContactByNumber(c *gin.Context) {
	num, errConv := strconv.Atoi(c.Param("num"))
	if errConv != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "invalid number parameter"})
		return
	}

	var update model.Update
	if errBind := c.BindJSON(&update); errBind != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}

	// It only makes sense to continue if we have at least one value to update.
	if update.Empty() {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "no values to be updated"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	contacts := s.book.Contacts()
	if num < 1 || num > len(contacts) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	contact := contacts[num-1]
	if err := s.book.Update(contact, update); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, contact)
}

// deleteContactByName removes the first contact whose full name
// matches the name parameter of the request URL, case-insensitively.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/John%20Smith" --request "DELETE"
func (s *Server) deleteContactByName(c *gin.Context) {
	s.mu.Lock()
	err := s.book.Delete(c.Param("name"))
	s.mu.Unlock()
	if errors.Is(err, phonebook.ErrNotFound) {
		c.IndentedJSON(http.StatusNotFound, gin.H{"message": "contact not found"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "contact deleted"})
}

// sortContacts reorders the phonebook. The URL parameter 'mode' is
// either 'alphabetical' or 'group'.
//
// Example REST API call:
//
//	> curl "http://localhost:8080/contacts/sort?mode=alphabetical" --request "POST"
func (s *Server) sortContacts(c *gin.Context) {
	mode := c.Query("mode")
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.book.Sort(mode); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}
	c.IndentedJSON(http.StatusOK, s.book.Contacts())
}

// batchAddContacts appends one contact per row in the request body.
// Malformed rows are skipped and reported in the response.
func (s *Server) batchAddContacts(c *gin.Context) {
	var req batchRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	s.mu.Lock()
	result := s.book.BatchAdd(req.Rows)
	s.mu.Unlock()
	c.IndentedJSON(http.StatusOK, result)
}

// batchDeleteContacts removes one structurally matching contact per
// row in the request body. Rows without a match are reported in the
// response and do not stop the batch.
func (s *Server) batchDeleteContacts(c *gin.Context) {
	var req batchRequest
	if err := c.BindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "invalid JSON"})
		return
	}
	s.mu.Lock()
	result := s.book.BatchDelete(req.Rows)
	s.mu.Unlock()
	c.IndentedJSON(http.StatusOK, result)
}

// exportContacts responds with all contacts as rows in the import
// column order.
func (s *Server) exportContacts(c *gin.Context) {
	s.mu.Lock()
	rows := s.book.ExportRows()
	s.mu.Unlock()
	c.IndentedJSON(http.StatusOK, gin.H{"rows": rows})
}

// viewAuditLog responds with the whole audit trail, oldest line
// first.
func (s *Server) viewAuditLog(c *gin.Context) {
	s.mu.Lock()
	lines, err := s.book.AuditLines()
	s.mu.Unlock()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"message": "could not read audit log"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"lines": lines})
}

// clearAuditLog truncates the audit trail.
func (s *Server) clearAuditLog(c *gin.Context) {
	s.mu.Lock()
	err := s.book.ClearAuditLog()
	s.mu.Unlock()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError,
			gin.H{"message": "could not clear audit log"})
		return
	}
	c.IndentedJSON(http.StatusOK, gin.H{"message": "audit log cleared"})
}
