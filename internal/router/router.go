package router

import (
	"net/http"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"userhub/internal/auth"
	"userhub/internal/config"
	"userhub/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	jwtService *auth.JWTService,
	revocations auth.RevocationStoreInterface,
	userHandler *handler.UserHandler,
	authHandler *handler.AuthHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.Validator = NewValidator(cfg.PasswordPattern)

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// Public routes: registration hands out the first token, login a fresh one.
	e.POST("/user", userHandler.CreateUser)
	e.POST("/login", authHandler.Login)

	// Secured routes (require a live, unrevoked bearer token)
	secured := e.Group("", auth.Middleware(jwtService, revocations))

	secured.POST("/logout", authHandler.Logout)

	secured.GET("/user/:id", userHandler.GetUser)
	secured.PUT("/user/:id", userHandler.UpdateUser)
	secured.PATCH("/user/:id", userHandler.PatchUser)
	secured.DELETE("/user/:id", userHandler.DeleteUser)
}

// CustomValidator wraps validator for Echo, adding the configurable
// user_password rule.
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator builds the echo validator. An unparseable password pattern
// falls back to accepting any non-empty password rather than rejecting all
// registrations.
func NewValidator(passwordPattern string) *CustomValidator {
	v := validator.New()

	pattern, err := regexp.Compile(passwordPattern)
	_ = v.RegisterValidation("user_password", func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		if err != nil {
			return value != ""
		}
		return pattern.MatchString(value)
	})

	return &CustomValidator{validator: v}
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
