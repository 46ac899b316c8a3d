//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListProducts(t *testing.T) {
	resp := doGet(t, "/api/products")
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)

	products := decodeJSON[[]productResponse](t, resp)
	if len(products) != 6 {
		t.Fatalf("got %d products, want 6 seeded", len(products))
	}

	byID := make(map[string]productResponse, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	rose, ok := byID["rose-bouquet-red"]
	if !ok {
		t.Fatal("rose-bouquet-red missing from catalog")
	}
	if rose.Price != 899 {
		t.Errorf("rose price: got %v, want 899", rose.Price)
	}
	if rose.DurationHours != 3 {
		t.Errorf("rose duration: got %d, want 3", rose.DurationHours)
	}
}

func TestCreateAndDeleteProduct(t *testing.T) {
	body := map[string]any{
		"title":         "Tulip Bunch",
		"price":         549.0,
		"durationHours": 2,
		"images":        []string{"/images/tulip.jpg"},
	}

	// Customers may not manage the catalog.
	resp := doReq(t, http.MethodPost, "/api/products", body, asAlice)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("create as customer: got %d, want 403", resp.StatusCode)
	}

	resp = doReq(t, http.MethodPost, "/api/products", body, asAdmin)
	wantStatus(t, resp, http.StatusCreated)
	created := decodeJSON[productResponse](t, resp)
	resp.Body.Close()

	resp = doReq(t, http.MethodDelete, "/api/products/"+created.ID, nil, asAdmin)
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusNoContent)
}

func TestContactSettings(t *testing.T) {
	resp := doGet(t, "/api/settings/contact")
	wantStatus(t, resp, http.StatusOK)
	before := decodeJSON[contactResponse](t, resp)
	resp.Body.Close()
	if len(before.Phone) != 10 {
		t.Errorf("contact phone %q is not 10 digits", before.Phone)
	}

	resp = doReq(t, http.MethodPut, "/api/settings/contact",
		map[string]string{"phone": "9123456780"}, asAdmin)
	wantStatus(t, resp, http.StatusOK)
	resp.Body.Close()

	resp = doGet(t, "/api/settings/contact")
	defer resp.Body.Close()
	wantStatus(t, resp, http.StatusOK)
	after := decodeJSON[contactResponse](t, resp)
	if after.Phone != "9123456780" {
		t.Errorf("contact after update: got %q, want 9123456780", after.Phone)
	}
}
