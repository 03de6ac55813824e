package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"userhub/internal/auth"
	apperrors "userhub/internal/errors"
	"userhub/internal/service"
)

// UserHandler bundles the user CRUD endpoints.
type UserHandler struct {
	svc     service.UserService
	authSvc service.AuthService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService, authSvc service.AuthService) *UserHandler {
	return &UserHandler{svc: svc, authSvc: authSvc}
}

// CreateUserRequest represents a user registration payload.
type CreateUserRequest struct {
	Name     string               `json:"name" validate:"required"`
	Email    string               `json:"email" validate:"required,email"`
	Password string               `json:"password" validate:"required,user_password"`
	Phones   []service.PhoneInput `json:"phones" validate:"omitempty,dive"`
}

// UpdateUserRequest represents a full-replace payload. Every scalar field
// is required; the phone list is optional and, when present, replaces the
// stored collection wholesale (present-empty clears it).
type UpdateUserRequest struct {
	Name     string                `json:"name" validate:"required"`
	Email    string                `json:"email" validate:"required,email"`
	Password string                `json:"password" validate:"required,user_password"`
	Phones   *[]service.PhoneInput `json:"phones" validate:"omitempty,dive"`
}

// PatchUserRequest represents a partial-update payload: any subset of
// fields, absent ones untouched.
type PatchUserRequest struct {
	Name     *string               `json:"name" validate:"omitempty,min=1"`
	Email    *string               `json:"email" validate:"omitempty,email"`
	Password *string               `json:"password" validate:"omitempty,user_password"`
	Phones   *[]service.PhoneInput `json:"phones" validate:"omitempty,dive"`
}

func domainError(err error) *echo.HTTPError {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid user id",
			Code:  "INVALID_UUID",
		})
	}
	return id, nil
}

func callerID(c echo.Context) (uuid.UUID, error) {
	id, ok := auth.CallerID(c)
	if !ok {
		return uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "missing authentication",
			Code:  "UNAUTHENTICATED",
		})
	}
	return id, nil
}

// CreateUser godoc
// @Summary Register a new user
// @Tags users
// @Accept json
// @Produce json
// @Param user body CreateUserRequest true "User payload"
// @Success 201 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /user [post]
func (h *UserHandler) CreateUser(c echo.Context) error {
	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Create(c.Request().Context(), service.UserInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phones:   req.Phones,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetUser godoc
// @Summary Get user by id
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [get]
func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	user, err := h.svc.Get(c.Request().Context(), caller, id)
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateUser godoc
// @Summary Replace a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body UpdateUserRequest true "User payload"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [put]
func (h *UserHandler) UpdateUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Update(c.Request().Context(), caller, id, service.UserUpdate{
		Name:     &req.Name,
		Email:    &req.Email,
		Password: &req.Password,
		Phones:   req.Phones,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// PatchUser godoc
// @Summary Partially update a user
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param user body PatchUserRequest true "Fields to update"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [patch]
func (h *UserHandler) PatchUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	var req PatchUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.svc.Patch(c.Request().Context(), caller, id, service.UserUpdate{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Phones:   req.Phones,
	})
	if err != nil {
		return domainError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// DeleteUser godoc
// @Summary Delete a user
// @Tags users
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /user/{id} [delete]
func (h *UserHandler) DeleteUser(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	caller, err := callerID(c)
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Request().Context(), caller, id); err != nil {
		return domainError(err)
	}

	// The deleted account's bearer token is useless now; revoke it so it
	// cannot authenticate further requests. Best-effort.
	if claims, ok := auth.TokenClaims(c); ok && claims.ExpiresAt != nil {
		_ = h.authSvc.Logout(c.Request().Context(), claims.ID, claims.ExpiresAt.Time)
	}

	return c.NoContent(http.StatusNoContent)
}
