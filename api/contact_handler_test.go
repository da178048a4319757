package api

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/greenshan/portfolio-backend/database"
	"github.com/greenshan/portfolio-backend/models"
)

func newContactTestHandler(t *testing.T) (contactHandler, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.ContactRequest{}))
	return newContactHandler(database.NewContactRequestRepo(db)), db
}

func submitContact(t *testing.T, h contactHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.submitContactRequest().ServeHTTP(rec, req)
	return rec
}

func TestSubmitContactRequest(t *testing.T) {
	h, db := newContactTestHandler(t)

	rec := submitContact(t, h, `{
		"name": "Jordan Reyes",
		"email": "jordan@example.com",
		"subject": "Collaboration",
		"message": "I would like to discuss a project."
	}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var saved models.ContactRequest
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, "Jordan Reyes", saved.Name)
	assert.Equal(t, "jordan@example.com", saved.Email)
	assert.False(t, saved.Handled)
}

func TestSubmitContactRequestTrimsWhitespace(t *testing.T) {
	h, db := newContactTestHandler(t)

	rec := submitContact(t, h, `{
		"name": "  Jordan  ",
		"email": " jordan@example.com ",
		"message": "  hello  "
	}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	var saved models.ContactRequest
	require.NoError(t, db.First(&saved).Error)
	assert.Equal(t, "Jordan", saved.Name)
	assert.Equal(t, "hello", saved.Message)
}

func TestSubmitContactRequestMalformedBody(t *testing.T) {
	h, _ := newContactTestHandler(t)
	rec := submitContact(t, h, `{not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitContactRequestMissingFields(t *testing.T) {
	h, _ := newContactTestHandler(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing name", `{"email": "a@example.com", "message": "hi"}`},
		{"missing email", `{"name": "A", "message": "hi"}`},
		{"missing message", `{"name": "A", "email": "a@example.com"}`},
		{"blank message", `{"name": "A", "email": "a@example.com", "message": "   "}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := submitContact(t, h, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSubmitContactRequestInvalidEmail(t *testing.T) {
	h, _ := newContactTestHandler(t)
	rec := submitContact(t, h, `{"name": "A", "email": "not-an-email", "message": "hi"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitContactRequestMessageTooLong(t *testing.T) {
	h, db := newContactTestHandler(t)

	long := strings.Repeat("a", maxContactMessageLength+1)
	rec := submitContact(t, h, fmt.Sprintf(`{"name": "A", "email": "a@example.com", "message": %q}`, long))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var count int64
	require.NoError(t, db.Model(&models.ContactRequest{}).Count(&count).Error)
	assert.Zero(t, count)
}

// The length cap counts characters, so a multibyte message under the limit
// must pass even though its byte length exceeds it.
func TestSubmitContactRequestMultibyteMessageAtLimit(t *testing.T) {
	h, _ := newContactTestHandler(t)

	exact := strings.Repeat("é", maxContactMessageLength)
	rec := submitContact(t, h, fmt.Sprintf(`{"name": "A", "email": "a@example.com", "message": %q}`, exact))
	assert.Equal(t, http.StatusCreated, rec.Code)

	over := strings.Repeat("é", maxContactMessageLength+1)
	rec = submitContact(t, h, fmt.Sprintf(`{"name": "A", "email": "a@example.com", "message": %q}`, over))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitContactRequestMessageAtLimit(t *testing.T) {
	h, _ := newContactTestHandler(t)

	exact := strings.Repeat("a", maxContactMessageLength)
	rec := submitContact(t, h, fmt.Sprintf(`{"name": "A", "email": "a@example.com", "message": %q}`, exact))
	assert.Equal(t, http.StatusCreated, rec.Code)
}
