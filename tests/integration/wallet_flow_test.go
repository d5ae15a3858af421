package integration

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWalletFlow_OpeningBalanceAndAdjustment(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerAndLogin(t, "walletuser", "wallet@test.com", "password123")

	// Create a wallet with an opening balance.
	rec := app.request("POST", "/api/v1/wallets",
		`{"name":"Cash","emoji":"💵","bg_color":"#27B427","balance":100}`, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	data := parseEnvelope(t, rec)
	wallet := data["wallet"].(map[string]interface{})
	walletID := wallet["id"].(string)

	// The opening balance is materialized as a transaction.
	rec = app.request("GET", "/api/v1/wallets/"+walletID+"/transactions", "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("list wallet transactions failed: %d %s", rec.Code, rec.Body.String())
	}
	data = parseEnvelope(t, rec)
	list := data["transactions"].(map[string]interface{})
	groups := list["listGroup"].([]interface{})
	if len(groups) != 1 {
		t.Fatalf("expected one day group, got %d", len(groups))
	}

	// Editing the balance books an adjustment.
	rec = app.request("PATCH", "/api/v1/wallets/"+walletID, `{"balance":"70"}`, access)
	if rec.Code != http.StatusOK {
		t.Fatalf("update wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	data = parseEnvelope(t, rec)
	updated := data["wallet"].(map[string]interface{})
	if fmt.Sprintf("%v", updated["balance"]) != "70" {
		t.Errorf("expected balance 70, got %v", updated["balance"])
	}

	rec = app.request("GET", "/api/v1/wallets/"+walletID+"/transactions", "", access)
	data = parseEnvelope(t, rec)
	list = data["transactions"].(map[string]interface{})
	if fmt.Sprintf("%v", list["totalIncome"]) != "100" {
		t.Errorf("expected total income 100, got %v", list["totalIncome"])
	}
	if fmt.Sprintf("%v", list["totalExpense"]) != "30" {
		t.Errorf("expected total expense 30 (the adjustment), got %v", list["totalExpense"])
	}
}

func TestWalletFlow_TransactionsDriveBalance(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerAndLogin(t, "balances", "balances@test.com", "password123")

	rec := app.request("POST", "/api/v1/wallets", `{"name":"Cash"}`, access)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	wallet := parseEnvelope(t, rec)["wallet"].(map[string]interface{})
	walletID := wallet["id"].(string)

	// Pick seeded categories of each type.
	rec = app.request("GET", "/api/v1/categories", "", access)
	categories := parseEnvelope(t, rec)["categories"].([]interface{})
	var incomeID, expenseID string
	for _, raw := range categories {
		c := raw.(map[string]interface{})
		if c["type"] == "income" && incomeID == "" {
			incomeID = c["id"].(string)
		}
		if c["type"] == "expense" && expenseID == "" {
			expenseID = c["id"].(string)
		}
	}
	if incomeID == "" || expenseID == "" {
		t.Fatal("expected seeded categories of both types")
	}

	post := func(body string) {
		t.Helper()
		rec := app.request("POST", "/api/v1/transactions", body, access)
		if rec.Code != http.StatusCreated {
			t.Fatalf("create transaction failed: %d %s", rec.Code, rec.Body.String())
		}
	}
	post(fmt.Sprintf(`{"amount":100,"category_id":%q,"wallet_id":%q,"description":"salary","date":"2026-04-01T09:00:00Z"}`, incomeID, walletID))
	post(fmt.Sprintf(`{"amount":30,"category_id":%q,"wallet_id":%q,"description":"groceries","date":"2026-04-02T09:00:00Z"}`, expenseID, walletID))
	post(fmt.Sprintf(`{"amount":50,"category_id":%q,"wallet_id":%q,"description":"bonus","date":"2026-04-03T09:00:00Z"}`, incomeID, walletID))

	rec = app.request("GET", "/api/v1/wallets/"+walletID, "", access)
	wallet = parseEnvelope(t, rec)["wallet"].(map[string]interface{})
	if fmt.Sprintf("%v", wallet["balance"]) != "120" {
		t.Errorf("expected balance 120, got %v", wallet["balance"])
	}

	// Deleting the wallet removes its transactions.
	rec = app.request("DELETE", "/api/v1/wallets/"+walletID, "", access)
	if rec.Code != http.StatusOK {
		t.Fatalf("delete wallet failed: %d %s", rec.Code, rec.Body.String())
	}
	rec = app.request("GET", "/api/v1/transactions", "", access)
	data := parseEnvelope(t, rec)
	if fmt.Sprintf("%v", data["totalIncome"]) != "0" {
		t.Errorf("expected no surviving income, got %v", data["totalIncome"])
	}
}

func TestTransactionFlow_RequiresDescriptionAndDate(t *testing.T) {
	app := setupApp(t)
	access, _ := app.registerAndLogin(t, "strict", "strict@test.com", "password123")

	rec := app.request("POST", "/api/v1/wallets", `{"name":"Cash"}`, access)
	wallet := parseEnvelope(t, rec)["wallet"].(map[string]interface{})
	walletID := wallet["id"].(string)

	rec = app.request("GET", "/api/v1/categories", "", access)
	categories := parseEnvelope(t, rec)["categories"].([]interface{})
	categoryID := categories[0].(map[string]interface{})["id"].(string)

	// Missing date.
	body := fmt.Sprintf(`{"amount":10,"description":"coffee","category_id":%q,"wallet_id":%q}`, categoryID, walletID)
	rec = app.request("POST", "/api/v1/transactions", body, access)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing date, got %d: %s", rec.Code, rec.Body.String())
	}

	// Whitespace-only description.
	body = fmt.Sprintf(`{"amount":10,"description":"   ","category_id":%q,"wallet_id":%q,"date":"2026-04-01T09:00:00Z"}`, categoryID, walletID)
	rec = app.request("POST", "/api/v1/transactions", body, access)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank description, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestWalletFlow_IsolationBetweenUsers(t *testing.T) {
	app := setupApp(t)
	ownerAccess, _ := app.registerAndLogin(t, "owner", "owner@test.com", "password123")
	otherAccess, _ := app.registerAndLogin(t, "other", "other@test.com", "password123")

	rec := app.request("POST", "/api/v1/wallets", `{"name":"Private"}`, ownerAccess)
	wallet := parseEnvelope(t, rec)["wallet"].(map[string]interface{})
	walletID := wallet["id"].(string)

	rec = app.request("GET", "/api/v1/wallets/"+walletID, "", otherAccess)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for foreign wallet, got %d", rec.Code)
	}
	rec = app.request("DELETE", "/api/v1/wallets/"+walletID, "", otherAccess)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 deleting foreign wallet, got %d", rec.Code)
	}
}
