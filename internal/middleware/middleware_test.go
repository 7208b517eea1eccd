package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/kku-mis/course-registration/internal/config"
	"github.com/kku-mis/course-registration/internal/models"
	"github.com/kku-mis/course-registration/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withUser(user *models.User) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if user != nil {
			session.SetUser(c, user)
		}
		return c.Next()
	}
}

func statusFor(t *testing.T, app *fiber.App, req *http.Request) int {
	t.Helper()
	resp, err := app.Test(req)
	require.NoError(t, err)
	return resp.StatusCode
}

func TestRequireRole(t *testing.T) {
	cfg := &config.Config{AdminEmails: "Dean@kku.edu.sa, registrar@kku.edu.sa"}

	tests := []struct {
		name string
		user *models.User
		want int
	}{
		{"no session", nil, http.StatusUnauthorized},
		{"student", &models.User{Email: "s@kku.edu.sa", Role: models.RoleStudent}, http.StatusForbidden},
		{"admin role", &models.User{Email: "a@kku.edu.sa", Role: models.RoleAdmin}, http.StatusOK},
		{"admin by email", &models.User{Email: "dean@kku.edu.sa", Role: models.RoleAdvisor}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			app.Get("/", withUser(tt.user), RequireRole(cfg, models.RoleAdmin), func(c *fiber.Ctx) error {
				return c.SendStatus(http.StatusOK)
			})
			assert.Equal(t, tt.want, statusFor(t, app, httptest.NewRequest(http.MethodGet, "/", nil)))
		})
	}
}

func TestLanguage(t *testing.T) {
	app := fiber.New()
	app.Get("/", Language("ar"), func(c *fiber.Ctx) error {
		return c.SendString(session.Language(c))
	})

	read := func(req *http.Request) string {
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		buf := make([]byte, 8)
		n, _ := resp.Body.Read(buf)
		return string(buf[:n])
	}

	assert.Equal(t, "ar", read(httptest.NewRequest(http.MethodGet, "/", nil)))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	assert.Equal(t, "en", read(req))

	assert.Equal(t, "en", read(httptest.NewRequest(http.MethodGet, "/?lang=en", nil)))
}
