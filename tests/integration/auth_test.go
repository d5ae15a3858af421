package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestAuthFlow_RegisterVerifyLoginRefresh(t *testing.T) {
	app := setupApp(t)

	// Register creates an unverified account.
	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"budi","name":"Budi","email":"budi@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}

	// Login is rejected until the email is verified.
	rec = app.request("POST", "/api/v1/auth/login",
		`{"input":"budi","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 before verification, got %d", rec.Code)
	}

	// Verify using the token from the captured email.
	rec = app.request("GET", "/api/v1/auth/verify?token="+app.Mailer.lastVerificationToken, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify failed: %d %s", rec.Code, rec.Body.String())
	}

	// Login by username and by email both work now.
	access, refresh := app.login(t, "budi", "password123")
	if access == "" || refresh == "" {
		t.Fatal("expected non-empty tokens from login")
	}
	app.login(t, "budi@test.com", "password123")

	// Access the profile with the token.
	rec = app.request("GET", "/api/v1/users/me", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseEnvelope(t, rec)
	user := data["user"].(map[string]interface{})
	if user["email"] != "budi@test.com" {
		t.Errorf("expected email budi@test.com, got %v", user["email"])
	}

	// Refresh rotates the token pair.
	body := fmt.Sprintf(`{"refresh_token":%q}`, refresh)
	rec = app.request("POST", "/api/v1/auth/refresh", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh failed: %d %s", rec.Code, rec.Body.String())
	}
	refreshed := parseEnvelope(t, rec)
	if refreshed["access_token"].(string) == "" {
		t.Fatal("expected a new access token after refresh")
	}
}

func TestAuthFlow_RegistrationSeedsCategories(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerAndLogin(t, "seeded", "seeded@test.com", "password123")

	rec := app.request("GET", "/api/v1/categories", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	data := parseEnvelope(t, rec)
	categories := data["categories"].([]interface{})
	if len(categories) == 0 {
		t.Fatal("expected seeded categories for a new account")
	}
}

func TestAuthFlow_ResendVerification(t *testing.T) {
	app := setupApp(t)

	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"slowpoke","name":"Slow","email":"slow@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	firstToken := app.Mailer.lastVerificationToken

	rec = app.request("POST", "/api/v1/auth/resend-verification",
		`{"email":"slow@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("resend failed: %d %s", rec.Code, rec.Body.String())
	}
	if app.Mailer.lastVerificationToken == firstToken {
		t.Fatal("expected a fresh verification token after resend")
	}

	// The superseded token no longer verifies; the new one does.
	rec = app.request("GET", "/api/v1/auth/verify?token="+firstToken, "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for the superseded token, got %d", rec.Code)
	}
	rec = app.request("GET", "/api/v1/auth/verify?token="+app.Mailer.lastVerificationToken, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("verify with new token failed: %d %s", rec.Code, rec.Body.String())
	}
	app.login(t, "slowpoke", "password123")

	// Verified accounts cannot request another verification email.
	rec = app.request("POST", "/api/v1/auth/resend-verification",
		`{"email":"slow@test.com"}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an already verified account, got %d", rec.Code)
	}
}

func TestAuthFlow_DuplicateUsername(t *testing.T) {
	app := setupApp(t)
	app.registerAndLogin(t, "taken", "first@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/register",
		`{"username":"taken","name":"Second","email":"second@test.com","password":"password123"}`, "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestAuthFlow_PasswordReset(t *testing.T) {
	app := setupApp(t)
	app.registerAndLogin(t, "resetme", "resetme@test.com", "password123")

	rec := app.request("POST", "/api/v1/auth/forgot-password",
		`{"email":"resetme@test.com"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forgot-password failed: %d %s", rec.Code, rec.Body.String())
	}
	if app.Mailer.lastResetToken == "" {
		t.Fatal("expected a reset token to be mailed")
	}

	body := fmt.Sprintf(`{"token":%q,"password":"newpassword1"}`, app.Mailer.lastResetToken)
	rec = app.request("POST", "/api/v1/auth/reset-password", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("reset-password failed: %d %s", rec.Code, rec.Body.String())
	}

	// Old password no longer works, new one does.
	rec = app.request("POST", "/api/v1/auth/login",
		`{"input":"resetme","password":"password123"}`, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with old password, got %d", rec.Code)
	}
	app.login(t, "resetme", "newpassword1")
}

func TestAuthFlow_AdminRouteForbiddenForUsers(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerAndLogin(t, "plain", "plain@test.com", "password123")

	rec := app.request("GET", "/api/v1/admin/users", "", access)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
}
