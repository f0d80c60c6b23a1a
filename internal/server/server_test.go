package server

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"

	"github.com/yourusername/auth-starter/internal/auth"
	"github.com/yourusername/auth-starter/internal/config"
	"github.com/yourusername/auth-starter/internal/models"
	"github.com/yourusername/auth-starter/internal/storage/memory"
)

const testSecret = "test-signing-secret"

func testConfig() config.Config {
	return config.Config{
		Port:           "8080",
		Environment:    "test",
		JWTSecret:      testSecret,
		JWTIssuer:      "auth-starter",
		JWTTTL:         time.Hour,
		CORSOrigins:    []string{"http://localhost:5173"},
		CookieSameSite: http.SameSiteStrictMode,
	}
}

func newHandler(store *memory.Store) http.Handler {
	return Handler(testConfig(), store, zerolog.Nop())
}

// seedUser creates a user directly in the store and returns it alongside a
// valid token, bypassing the HTTP registration path.
func seedUser(t *testing.T, store *memory.Store, name, email, password string) (models.User, string) {
	t.Helper()
	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user, err := store.Create(context.Background(), models.User{Name: name, Email: email, PasswordHash: hash})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	token, err := auth.NewTokenManager(testSecret, "auth-starter", time.Hour).Generate(user.ID)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return user, token
}

func TestHealth(t *testing.T) {
	apitest.New().
		Handler(newHandler(memory.NewUserStore())).
		Get("/api/health").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.data.status`, "ok")).
		Assert(jsonpath.Present(`$.data.timestamp`)).
		End()
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	apitest.New().
		Handler(newHandler(memory.NewUserStore())).
		Get("/api/nope").
		Expect(t).
		Status(http.StatusNotFound).
		Assert(jsonpath.Equal(`$.success`, false)).
		End()
}

func TestRegisterSuccess(t *testing.T) {
	handler := newHandler(memory.NewUserStore())

	apitest.New().
		Handler(handler).
		Post("/api/auth/register").
		JSON(`{"name":"Ada Lovelace","email":"ADA@EXAMPLE.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Equal(`$.data.user.email`, "ada@example.com")).
		Assert(jsonpath.Equal(`$.data.user.name`, "Ada Lovelace")).
		Assert(jsonpath.Present(`$.data.token`)).
		Assert(jsonpath.NotPresent(`$.data.user.password_hash`)).
		CookiePresent(auth.CookieName).
		End()
}

func TestRegisterTokenVerifiesToUser(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)

	var token string
	apitest.New().
		Handler(handler).
		Post("/api/auth/register").
		JSON(`{"name":"Ada Lovelace","email":"ada@example.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present(`$.data.token`)).
		Assert(func(res *http.Response, _ *http.Request) error {
			for _, c := range res.Cookies() {
				if c.Name == auth.CookieName {
					token = c.Value
					return nil
				}
			}
			return errors.New("session cookie missing")
		}).
		End()

	userID, err := auth.NewTokenManager(testSecret, "auth-starter", time.Hour).Verify(token)
	if err != nil {
		t.Fatalf("verify minted token: %v", err)
	}
	user, err := store.FindByID(context.Background(), userID)
	if err != nil {
		t.Fatalf("token subject not in store: %v", err)
	}
	if user.Email != "ada@example.com" {
		t.Fatalf("token resolved to wrong user: %q", user.Email)
	}
}

func TestRegisterValidation(t *testing.T) {
	handler := newHandler(memory.NewUserStore())

	cases := []struct {
		name string
		body string
	}{
		{"short name", `{"name":"A","email":"a@example.com","password":"secret1"}`},
		{"bad email", `{"name":"Ada","email":"not-an-email","password":"secret1"}`},
		{"short password", `{"name":"Ada","email":"a@example.com","password":"12345"}`},
		{"missing fields", `{}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apitest.New().
				Handler(handler).
				Post("/api/auth/register").
				JSON(tc.body).
				Expect(t).
				Status(http.StatusBadRequest).
				Assert(jsonpath.Equal(`$.message`, "validation failed")).
				Assert(jsonpath.Present(`$.errors`)).
				End()
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	// Same address in different case is still a duplicate.
	apitest.New().
		Handler(handler).
		Post("/api/auth/register").
		JSON(`{"name":"Imposter","email":"ADA@example.com","password":"another1"}`).
		Expect(t).
		Status(http.StatusConflict).
		End()
}

func TestLogin(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	seedUser(t, store, "Ada Lovelace", "ADA@EXAMPLE.com", "secret1")

	apitest.New().
		Handler(handler).
		Post("/api/auth/login").
		JSON(`{"email":"ada@example.com","password":"secret1"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Present(`$.data.token`)).
		Assert(jsonpath.Equal(`$.data.user.email`, "ada@example.com")).
		CookiePresent(auth.CookieName).
		End()
}

// Wrong password and unknown email must be indistinguishable to the client.
func TestLoginInvalidCredentialsUniform(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	for name, body := range map[string]string{
		"wrong password": `{"email":"ada@example.com","password":"wrong1"}`,
		"unknown email":  `{"email":"ghost@example.com","password":"secret1"}`,
	} {
		t.Run(name, func(t *testing.T) {
			apitest.New().
				Handler(handler).
				Post("/api/auth/login").
				JSON(body).
				Expect(t).
				Status(http.StatusUnauthorized).
				Assert(jsonpath.Equal(`$.message`, "invalid credentials")).
				End()
		})
	}
}

func TestProfileWithCookie(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	user, token := seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	apitest.New().
		Handler(handler).
		Get("/api/auth/profile").
		Cookies(apitest.NewCookie(auth.CookieName).Value(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.data.user.id`, user.ID)).
		Assert(jsonpath.Equal(`$.data.user.email`, "ada@example.com")).
		End()
}

func TestProfileWithBearerHeader(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	_, token := seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	apitest.New().
		Handler(handler).
		Get("/api/auth/profile").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal(`$.data.user.email`, "ada@example.com")).
		End()
}

func TestProfileUnauthorized(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	_, token := seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	expired, err := auth.NewTokenManager(testSecret, "auth-starter", -time.Minute).Generate("some-id")
	if err != nil {
		t.Fatalf("mint expired token: %v", err)
	}
	orphan, err := auth.NewTokenManager(testSecret, "auth-starter", time.Hour).Generate("deleted-user-id")
	if err != nil {
		t.Fatalf("mint orphan token: %v", err)
	}

	cases := []struct {
		name  string
		token string
	}{
		{"no token", ""},
		{"tampered signature", token[:len(token)-2] + "xx"},
		{"expired token", expired},
		{"subject no longer exists", orphan},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := apitest.New().
				Handler(handler).
				Get("/api/auth/profile")
			if tc.token != "" {
				req.Cookies(apitest.NewCookie(auth.CookieName).Value(tc.token))
			}
			req.Expect(t).
				Status(http.StatusUnauthorized).
				Assert(jsonpath.Equal(`$.message`, "not authorized")).
				End()
		})
	}
}

func TestLogoutClearsCookie(t *testing.T) {
	store := memory.NewUserStore()
	handler := newHandler(store)
	_, token := seedUser(t, store, "Ada Lovelace", "ada@example.com", "secret1")

	apitest.New().
		Handler(handler).
		Post("/api/auth/logout").
		Cookies(apitest.NewCookie(auth.CookieName).Value(token)).
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			for _, c := range res.Cookies() {
				if c.Name == auth.CookieName {
					if c.Value != "" || c.MaxAge >= 0 {
						return errors.New("session cookie was not cleared")
					}
					return nil
				}
			}
			return errors.New("clearing Set-Cookie missing")
		}).
		End()

	// A client that honored the cleared cookie has nothing left to send.
	apitest.New().
		Handler(handler).
		Get("/api/auth/profile").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestLogoutRequiresAuth(t *testing.T) {
	apitest.New().
		Handler(newHandler(memory.NewUserStore())).
		Post("/api/auth/logout").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}
