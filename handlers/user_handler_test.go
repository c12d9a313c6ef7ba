package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/ngaland/user-service/auth"
	"github.com/ngaland/user-service/models"
	"github.com/ngaland/user-service/repositories"
	"github.com/ngaland/user-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// newUserRouter mounts a UserHandler the way routes.Setup does so that chi
// URL parameters resolve in tests.
func newUserRouter(repo *MockUserRepository) chi.Router {
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	svc := services.NewUserService(repo, hasher, zap.NewNop())
	handler := NewUserHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/api/users", handler.HandleCreate)
	r.Get("/api/users", handler.HandleList)
	r.Get("/api/users/{id}", handler.HandleGet)
	r.Put("/api/users/{id}", handler.HandleUpdate)
	r.Delete("/api/users/{id}", handler.HandleDelete)
	return r
}

func TestHandleCreate(t *testing.T) {
	t.Run("valid request creates user and omits password", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)

		repo.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(false, nil)
		repo.On("Create", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		body := `{"name":"Alice","email":"alice@example.com","password":"s3cret-pass"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "password")

		var resp struct {
			Data UserResponse `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Alice", resp.Data.Name)
		assert.Equal(t, []string{models.RoleUser}, resp.Data.Roles)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate email returns 409", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)

		repo.On("ExistsByEmail", mock.Anything, "alice@example.com").Return(true, nil)

		body := `{"name":"Alice","email":"alice@example.com","password":"s3cret-pass"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		repo.AssertNotCalled(t, "Create")
	})

	t.Run("short password returns 400", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)

		body := `{"name":"Alice","email":"alice@example.com","password":"short"}`
		req := httptest.NewRequest(http.MethodPost, "/api/users", strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "ExistsByEmail")
	})
}

func TestHandleGet(t *testing.T) {
	alice := &models.User{
		ID:    uuid.New(),
		Name:  "Alice",
		Email: "alice@example.com",
		Roles: []string{models.RoleUser},
	}

	t.Run("existing user is returned", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)
		repo.On("GetByID", mock.Anything, alice.ID).Return(alice, nil)

		req := httptest.NewRequest(http.MethodGet, "/api/users/"+alice.ID.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data UserResponse `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, alice.ID, resp.Data.ID)
		assert.Equal(t, alice.Email, resp.Data.Email)
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

		req := httptest.NewRequest(http.MethodGet, "/api/users/"+id.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("non-uuid id returns 400", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)

		req := httptest.NewRequest(http.MethodGet, "/api/users/not-a-uuid", nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "GetByID")
	})
}

func TestHandleList(t *testing.T) {
	repo := new(MockUserRepository)
	router := newUserRouter(repo)

	users := []*models.User{
		{ID: uuid.New(), Name: "Alice", Email: "alice@example.com", Roles: []string{models.RoleUser}},
		{ID: uuid.New(), Name: "Bob", Email: "bob@example.com", Roles: []string{models.RoleAdmin}},
	}
	repo.On("List", mock.Anything).Return(users, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data []UserResponse `json:"data"`
	}
	assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Len(t, resp.Data, 2)
}

func TestHandleUpdate(t *testing.T) {
	alice := func() *models.User {
		return &models.User{
			ID:    uuid.New(),
			Name:  "Alice",
			Email: "alice@example.com",
			Roles: []string{models.RoleUser},
		}
	}

	t.Run("name change is persisted", func(t *testing.T) {
		user := alice()
		repo := new(MockUserRepository)
		router := newUserRouter(repo)

		repo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
		repo.On("Update", mock.Anything, mock.AnythingOfType("*models.User")).Return(nil)

		body := `{"name":"Alice Cooper"}`
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+user.ID.String(), strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Data UserResponse `json:"data"`
		}
		assert.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
		assert.Equal(t, "Alice Cooper", resp.Data.Name)
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)
		id := uuid.New()
		repo.On("GetByID", mock.Anything, id).Return(nil, repositories.ErrNotFound)

		body := `{"name":"Nobody"}`
		req := httptest.NewRequest(http.MethodPut, "/api/users/"+id.String(), strings.NewReader(body))
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleDelete(t *testing.T) {
	t.Run("existing user returns 204", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)
		id := uuid.New()
		repo.On("Delete", mock.Anything, id).Return(nil)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/"+id.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNoContent, w.Code)
		assert.Empty(t, w.Body.String())
	})

	t.Run("unknown user returns 404", func(t *testing.T) {
		repo := new(MockUserRepository)
		router := newUserRouter(repo)
		id := uuid.New()
		repo.On("Delete", mock.Anything, id).Return(repositories.ErrNotFound)

		req := httptest.NewRequest(http.MethodDelete, "/api/users/"+id.String(), nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
