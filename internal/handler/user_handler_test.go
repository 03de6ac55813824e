package handler_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"userhub/internal/auth"
	apperrors "userhub/internal/errors"
	"userhub/internal/handler"
	"userhub/internal/model"
	"userhub/internal/router"
	"userhub/internal/service"
)

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Create(ctx context.Context, in service.UserInput) (*model.User, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Get(ctx context.Context, callerID, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, callerID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Update(ctx context.Context, callerID, id uuid.UUID, upd service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, callerID, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Patch(ctx context.Context, callerID, id uuid.UUID, upd service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, callerID, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	args := m.Called(ctx, callerID, id)
	return args.Error(0)
}

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, tokenID string, expires time.Time) error {
	args := m.Called(ctx, tokenID, expires)
	return args.Error(0)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = router.NewValidator(`^[A-Za-z0-9@#$%^&+=!*._-]{8,64}$`)
	return e
}

func newContext(e *echo.Echo, method, body string) (echo.Context, *httptest.ResponseRecorder) {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, "/", reader)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func authenticate(c echo.Context, callerID uuid.UUID) {
	c.Set("user", &auth.Claims{
		UserID: callerID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected *echo.HTTPError, got %T: %v", err, err)
	}
	return he.Code
}

func TestUserHandler_CreateUser(t *testing.T) {
	userID := uuid.New()

	t.Run("created", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Create", mock.Anything, mock.AnythingOfType("service.UserInput")).Return(&model.User{
			ID:     userID,
			Name:   "Pedro Picapiedra",
			Email:  "pedro@picapiedra.org",
			Token:  "fake-jwt-token",
			Active: true,
		}, nil)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		body := `{"name":"Pedro Picapiedra","email":"pedro@picapiedra.org","password":"Password1","phones":[{"number":"987654321","citycode":"2","countrycode":"56"}]}`
		c, rec := newContext(e, http.MethodPost, body)

		assert.NoError(t, h.CreateUser(c))
		assert.Equal(t, http.StatusCreated, rec.Code)

		var got model.User
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, userID, got.ID)
		assert.Equal(t, "fake-jwt-token", got.Token)
	})

	t.Run("duplicate email maps to 400", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Create", mock.Anything, mock.Anything).Return(nil, apperrors.ErrEmailTaken)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		body := `{"name":"Pedro","email":"pedro@picapiedra.org","password":"Password1"}`
		c, _ := newContext(e, http.MethodPost, body)

		err := h.CreateUser(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})

	t.Run("invalid payload never reaches the service", func(t *testing.T) {
		mockSvc := new(MockUserService)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		body := `{"name":"Pedro","password":"Password1"}` // email missing
		c, _ := newContext(e, http.MethodPost, body)

		err := h.CreateUser(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
		mockSvc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestUserHandler_GetUser(t *testing.T) {
	callerID := uuid.New()
	targetID := uuid.New()

	t.Run("ok", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Get", mock.Anything, callerID, targetID).Return(&model.User{ID: targetID}, nil)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		c, rec := newContext(e, http.MethodGet, "")
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, callerID)

		assert.NoError(t, h.GetUser(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("not found maps to 404", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Get", mock.Anything, callerID, targetID).Return(nil, apperrors.ErrUserNotFound)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		c, _ := newContext(e, http.MethodGet, "")
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, callerID)

		err := h.GetUser(c)
		assert.Equal(t, http.StatusNotFound, httpStatus(t, err))
	})

	t.Run("malformed id maps to 400", func(t *testing.T) {
		h := handler.NewUserHandler(new(MockUserService), new(MockAuthService))

		e := newEcho()
		c, _ := newContext(e, http.MethodGet, "")
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")
		authenticate(c, callerID)

		err := h.GetUser(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})
}

func TestUserHandler_UpdateUser(t *testing.T) {
	callerID := uuid.New()
	targetID := uuid.New()

	t.Run("not owner maps to 403", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Update", mock.Anything, callerID, targetID, mock.Anything).Return(nil, apperrors.ErrNotOwner)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		body := `{"name":"New","email":"new@example.com","password":"Password1"}`
		c, _ := newContext(e, http.MethodPut, body)
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, callerID)

		err := h.UpdateUser(c)
		assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	})

	t.Run("ok with phone replacement", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Update", mock.Anything, targetID, targetID, mock.MatchedBy(func(upd service.UserUpdate) bool {
			return upd.Phones != nil && len(*upd.Phones) == 0
		})).Return(&model.User{ID: targetID, Phones: []model.Phone{}}, nil)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		body := `{"name":"New","email":"new@example.com","password":"Password1","phones":[]}`
		c, rec := newContext(e, http.MethodPut, body)
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, targetID)

		assert.NoError(t, h.UpdateUser(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestUserHandler_PatchUser(t *testing.T) {
	targetID := uuid.New()

	t.Run("subset of fields only", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Patch", mock.Anything, targetID, targetID, mock.MatchedBy(func(upd service.UserUpdate) bool {
			return upd.Name != nil && upd.Email == nil && upd.Password == nil && upd.Phones == nil
		})).Return(&model.User{ID: targetID, Name: "Renamed"}, nil)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		c, rec := newContext(e, http.MethodPatch, `{"name":"Renamed"}`)
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, targetID)

		assert.NoError(t, h.PatchUser(c))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate email maps to 400", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Patch", mock.Anything, targetID, targetID, mock.Anything).Return(nil, apperrors.ErrEmailTaken)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		c, _ := newContext(e, http.MethodPatch, `{"email":"other@example.com"}`)
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, targetID)

		err := h.PatchUser(c)
		assert.Equal(t, http.StatusBadRequest, httpStatus(t, err))
	})
}

func TestUserHandler_DeleteUser(t *testing.T) {
	targetID := uuid.New()

	t.Run("no content and token revoked", func(t *testing.T) {
		mockSvc := new(MockUserService)
		mockSvc.On("Delete", mock.Anything, targetID, targetID).Return(nil)
		mockAuth := new(MockAuthService)
		mockAuth.On("Logout", mock.Anything, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).Return(nil)
		h := handler.NewUserHandler(mockSvc, mockAuth)

		e := newEcho()
		c, rec := newContext(e, http.MethodDelete, "")
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, targetID)

		assert.NoError(t, h.DeleteUser(c))
		assert.Equal(t, http.StatusNoContent, rec.Code)
		mockAuth.AssertExpectations(t)
	})

	t.Run("not owner maps to 403", func(t *testing.T) {
		callerID := uuid.New()
		mockSvc := new(MockUserService)
		mockSvc.On("Delete", mock.Anything, callerID, targetID).Return(apperrors.ErrNotOwner)
		h := handler.NewUserHandler(mockSvc, new(MockAuthService))

		e := newEcho()
		c, _ := newContext(e, http.MethodDelete, "")
		c.SetParamNames("id")
		c.SetParamValues(targetID.String())
		authenticate(c, callerID)

		err := h.DeleteUser(c)
		assert.Equal(t, http.StatusForbidden, httpStatus(t, err))
	})
}
