// Package forms validates user input before it is submitted to the library API.
package forms

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"

	"librarian/internal/models"
)

// ErrInvalid is matched by every validation failure
var ErrInvalid = errors.New("invalid form")

// FieldErrors maps a field name to a human-readable problem
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+e[f])
	}
	return ErrInvalid.Error() + ": " + strings.Join(parts, "; ")
}

func (e FieldErrors) Unwrap() error {
	return ErrInvalid
}

var (
	bookSchema    = mustSchema(bookSchemaJSON)
	readerSchema  = mustSchema(readerSchemaJSON)
	borrowSchema  = mustSchema(borrowSchemaJSON)
	prolongSchema = mustSchema(prolongSchemaJSON)
	loginSchema   = mustSchema(loginSchemaJSON)
)

func mustSchema(src string) *gojsonschema.Schema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("invalid form schema: %v", err))
	}
	return s
}

// validate checks doc against schema. It returns nil or a non-empty FieldErrors.
func validate(schema *gojsonschema.Schema, doc map[string]any) FieldErrors {
	res, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return FieldErrors{"(form)": err.Error()}
	}
	if res.Valid() {
		return nil
	}

	errs := FieldErrors{}
	for _, e := range res.Errors() {
		field := e.Field()
		if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
			if p, ok := e.Details()["property"].(string); ok {
				field = p
			}
		}
		if _, seen := errs[field]; seen {
			continue
		}
		errs[field] = message(e)
	}
	return errs
}

func message(e gojsonschema.ResultError) string {
	switch e.Type() {
	case "required", "string_gte":
		return "is required"
	case "format":
		return fmt.Sprintf("must be a valid %v", e.Details()["format"])
	case "pattern":
		return "has an invalid format"
	case "string_lte":
		return "is too long"
	default:
		return e.Description()
	}
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// BookForm is the raw input of the create and edit book dialogs
type BookForm struct {
	Title           string
	Author          string
	PublicationDate string
	ISBN            string
	Description     string
	CoverImage      string
}

// Validate returns the book to submit
func (f BookForm) Validate() (models.Book, error) {
	doc := map[string]any{
		"title":           trim(f.Title),
		"author":          trim(f.Author),
		"publicationDate": trim(f.PublicationDate),
		"isbn":            trim(f.ISBN),
	}
	if errs := validate(bookSchema, doc); errs != nil {
		return models.Book{}, errs
	}

	published, err := models.ParseDate(f.PublicationDate)
	if err != nil {
		return models.Book{}, FieldErrors{"publicationDate": "must be a valid date"}
	}
	return models.Book{
		Title:           trim(f.Title),
		Author:          trim(f.Author),
		PublicationDate: published,
		ISBN:            trim(f.ISBN),
		Description:     trim(f.Description),
		CoverImage:      trim(f.CoverImage),
	}, nil
}

// ReaderForm is the raw input of the edit reader dialog
type ReaderForm struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
}

// Validate returns the reader to submit, keeping id and picture of the original
func (f ReaderForm) Validate(original models.Reader) (models.Reader, error) {
	doc := map[string]any{
		"firstName":   trim(f.FirstName),
		"lastName":    trim(f.LastName),
		"email":       trim(f.Email),
		"phoneNumber": trim(f.PhoneNumber),
	}
	if errs := validate(readerSchema, doc); errs != nil {
		return models.Reader{}, errs
	}

	r := original
	r.FirstName = trim(f.FirstName)
	r.LastName = trim(f.LastName)
	r.Email = trim(f.Email)
	r.PhoneNumber = trim(f.PhoneNumber)
	return r, nil
}

// BorrowForm is the raw input of the add borrowing dialog
type BorrowForm struct {
	BookID  string
	DueDate string
}

// Validate returns the borrowing to create, lent on today's date
func (f BorrowForm) Validate(today time.Time) (models.BorrowRequest, error) {
	doc := map[string]any{
		"bookId":  trim(f.BookID),
		"dueDate": trim(f.DueDate),
	}
	if errs := validate(borrowSchema, doc); errs != nil {
		return models.BorrowRequest{}, errs
	}

	bookID, err := strconv.ParseInt(trim(f.BookID), 10, 64)
	if err != nil || bookID <= 0 {
		return models.BorrowRequest{}, FieldErrors{"bookId": "must be a positive number"}
	}
	due, err := models.ParseDate(f.DueDate)
	if err != nil {
		return models.BorrowRequest{}, FieldErrors{"dueDate": "must be a valid date"}
	}
	borrowed := models.NewDate(today)
	if due.Before(borrowed.Time) {
		return models.BorrowRequest{}, FieldErrors{"dueDate": "must not be before today"}
	}
	return models.BorrowRequest{BookID: bookID, BorrowDate: borrowed, DueDate: due}, nil
}

// ProlongForm is the raw input of the prolong dialog
type ProlongForm struct {
	DueDate string
}

// Validate returns the new due date, which must be later than the current one
func (f ProlongForm) Validate(current models.Date) (models.ProlongRequest, error) {
	if errs := validate(prolongSchema, map[string]any{"dueDate": trim(f.DueDate)}); errs != nil {
		return models.ProlongRequest{}, errs
	}

	due, err := models.ParseDate(f.DueDate)
	if err != nil {
		return models.ProlongRequest{}, FieldErrors{"dueDate": "must be a valid date"}
	}
	if !current.IsZero() && !due.After(current.Time) {
		return models.ProlongRequest{}, FieldErrors{"dueDate": "must be after the current due date"}
	}
	return models.ProlongRequest{DueDate: due}, nil
}

// LoginForm is the raw input of the login screen
type LoginForm struct {
	Email    string
	Password string
}

// Validate returns the credentials to send
func (f LoginForm) Validate() (models.Credentials, error) {
	doc := map[string]any{
		"email":    trim(f.Email),
		"password": f.Password,
	}
	if errs := validate(loginSchema, doc); errs != nil {
		return models.Credentials{}, errs
	}
	return models.Credentials{Email: trim(f.Email), Password: f.Password}, nil
}
