package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockTokenValidator is a mock implementation of TokenValidator
type MockTokenValidator struct {
	mock.Mock
}

func (m *MockTokenValidator) Validate(tokenString string, now time.Time) (string, error) {
	args := m.Called(tokenString, now)
	return args.String(0), args.Error(1)
}

// MockUserDirectory is a mock implementation of UserDirectory
type MockUserDirectory struct {
	mock.Mock
}

func (m *MockUserDirectory) RolesForSubject(ctx context.Context, subject string) ([]string, error) {
	args := m.Called(ctx, subject)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("valid token establishes identity with fresh roles", func(t *testing.T) {
		validator := new(MockTokenValidator)
		directory := new(MockUserDirectory)
		gate := NewAuthMiddleware(validator, directory, logger)

		validator.On("Validate", "valid-token", mock.Anything).Return("alice@example.com", nil)
		directory.On("RolesForSubject", mock.Anything, "alice@example.com").Return([]string{"ROLE_ADMIN"}, nil)

		handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := IdentityFromContext(r.Context())
			assert.NotNil(t, identity)
			assert.Equal(t, "alice@example.com", identity.Subject)
			assert.Equal(t, []string{"ROLE_ADMIN"}, identity.Roles)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		validator.AssertExpectations(t)
		directory.AssertExpectations(t)
	})

	t.Run("missing header returns 401", func(t *testing.T) {
		validator := new(MockTokenValidator)
		directory := new(MockUserDirectory)
		gate := NewAuthMiddleware(validator, directory, logger)

		handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		validator.AssertNotCalled(t, "Validate")
	})

	t.Run("wrong scheme returns 401", func(t *testing.T) {
		validator := new(MockTokenValidator)
		directory := new(MockUserDirectory)
		gate := NewAuthMiddleware(validator, directory, logger)

		handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		validator.AssertNotCalled(t, "Validate")
	})

	t.Run("token failures collapse to the same 401 body", func(t *testing.T) {
		failures := []error{
			assert.AnError,
		}
		var bodies []string

		for _, failure := range failures {
			validator := new(MockTokenValidator)
			directory := new(MockUserDirectory)
			gate := NewAuthMiddleware(validator, directory, logger)

			validator.On("Validate", "bad-token", mock.Anything).Return("", failure)

			handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer bad-token")
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			bodies = append(bodies, w.Body.String())
		}

		// The response must not disclose why validation failed
		for _, body := range bodies {
			assert.NotContains(t, body, "expired")
			assert.NotContains(t, body, "signature")
			assert.NotContains(t, body, "malformed")
		}
	})

	t.Run("unknown subject returns 401", func(t *testing.T) {
		validator := new(MockTokenValidator)
		directory := new(MockUserDirectory)
		gate := NewAuthMiddleware(validator, directory, logger)

		validator.On("Validate", "valid-token", mock.Anything).Return("deleted@example.com", nil)
		directory.On("RolesForSubject", mock.Anything, "deleted@example.com").Return(nil, assert.AnError)

		handler := gate.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("handler should not be called")
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestExtractBearerToken(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		expected string
	}{
		{"no header", "", ""},
		{"bearer token", "Bearer abc123", "abc123"},
		{"case-insensitive scheme", "bearer abc123", "abc123"},
		{"wrong scheme", "Basic abc123", ""},
		{"scheme only", "Bearer", ""},
		{"extra whitespace trimmed", "Bearer   abc123", "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			assert.Equal(t, tt.expected, extractBearerToken(req))
		})
	}
}
