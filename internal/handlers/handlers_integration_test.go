package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"giftlist/internal/database"
	"giftlist/internal/handlers"
	"giftlist/internal/models"
	"giftlist/internal/repositories"
	"giftlist/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupApp sets up a Fiber app for testing with in-memory SQLite and all handlers/services.
func setupApp(t *testing.T) (*fiber.App, *services.CatalogService) {
	t.Helper()

	db, err := database.Open(database.Options{Driver: database.DriverSQLite, DSN: "file::memory:", Silent: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	store := repositories.NewGORMStore(db)
	catalog := services.NewCatalogService(store, nil)
	registry := services.NewRegistryService(store, catalog, nil)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	handlers.NewProductHandler(catalog).RegisterRoutes(apiV1)
	handlers.NewWeddingListHandler(registry).RegisterRoutes(apiV1)

	return app, catalog
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := app.Test(req, -1) // -1 for no timeout
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func TestProductEndpoints(t *testing.T) {
	app, _ := setupApp(t)

	resp, data := doJSON(t, app, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Toaster", "brand": "Acme", "price": 2500, "in_stock_quantity": 3,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var created models.Product
	require.NoError(t, json.Unmarshal(data, &created))
	assert.Equal(t, "Toaster", created.Name)
	assert.EqualValues(t, 2500, created.Price)

	resp, data = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", created.ID), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var fetched models.Product
	require.NoError(t, json.Unmarshal(data, &fetched))
	assert.Equal(t, created, fetched)

	resp, data = doJSON(t, app, http.MethodGet, "/api/v1/products", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var products []models.Product
	require.NoError(t, json.Unmarshal(data, &products))
	assert.Len(t, products, 1)

	resp, data = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/products/%d/stock", created.ID), map[string]int{"delta": -5})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, string(data))

	resp, data = doJSON(t, app, http.MethodPost, fmt.Sprintf("/api/v1/products/%d/restock", created.ID), map[string]int{"quantity": 2})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var stock map[string]any
	require.NoError(t, json.Unmarshal(data, &stock))
	assert.EqualValues(t, 5, stock["in_stock_quantity"])

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", created.ID), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/products/%d", created.ID), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreateProductValidation(t *testing.T) {
	app, _ := setupApp(t)

	cases := map[string]map[string]any{
		"missing price":  {"name": "Toaster", "brand": "Acme", "in_stock_quantity": 1},
		"empty brand":    {"name": "Toaster", "brand": "", "price": 1, "in_stock_quantity": 1},
		"negative price": {"name": "Toaster", "brand": "Acme", "price": -1, "in_stock_quantity": 1},
		"missing name":   {"brand": "Acme", "price": 1, "in_stock_quantity": 1},
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			resp, data := doJSON(t, app, http.MethodPost, "/api/v1/products", body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode, string(data))
		})
	}

	resp, _ := doJSON(t, app, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWeddingListFlow(t *testing.T) {
	app, catalog := setupApp(t)
	ctx := t.Context()

	productID, err := catalog.AddProduct(ctx, "Toaster", "Acme", 2500, 3)
	require.NoError(t, err)

	resp, data := doJSON(t, app, http.MethodPut, "/api/v1/wedding-list", map[string]uint{"product_id": productID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var added map[string]uint
	require.NoError(t, json.Unmarshal(data, &added))
	giftID := added["gift_id"]
	require.NotZero(t, giftID)

	resp, data = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/wedding-list/%d", giftID), map[string]bool{"purchase": true})
	assert.Equal(t, http.StatusOK, resp.StatusCode, string(data))

	resp, _ = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/wedding-list/%d", giftID), map[string]bool{"purchase": true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	product, err := catalog.GetProduct(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, 2, product.InStockQuantity)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/wedding-list/%d", giftID), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp, data = doJSON(t, app, http.MethodGet, "/api/v1/wedding-list", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	var gifts []models.Gift
	require.NoError(t, json.Unmarshal(data, &gifts))
	require.Len(t, gifts, 1)
	assert.True(t, gifts[0].Purchased)
	require.NotNil(t, gifts[0].Product)
	assert.Equal(t, "Toaster", gifts[0].Product.Name)
}

func TestWeddingListPlaceholderAndReport(t *testing.T) {
	app, catalog := setupApp(t)
	ctx := t.Context()

	productID, err := catalog.AddProduct(ctx, "Kettle", "Acme", 3000, 0)
	require.NoError(t, err)

	resp, data := doJSON(t, app, http.MethodPut, "/api/v1/wedding-list", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))

	resp, data = doJSON(t, app, http.MethodPut, "/api/v1/wedding-list", map[string]uint{"product_id": productID})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var added map[string]uint
	require.NoError(t, json.Unmarshal(data, &added))

	resp, _ = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/wedding-list/%d", added["gift_id"]), map[string]bool{"purchase": true})
	assert.Equal(t, http.StatusConflict, resp.StatusCode, "out of stock")

	resp, data = doJSON(t, app, http.MethodGet, "/api/v1/wedding-list/report", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var report models.WeddingListReport
	require.NoError(t, json.Unmarshal(data, &report))
	assert.Empty(t, report.PurchasedGifts)
	assert.Len(t, report.NotPurchasedGifts, 2)

	resp, _ = doJSON(t, app, http.MethodPut, "/api/v1/wedding-list", map[string]uint{"product_id": 999})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodPatch, fmt.Sprintf("/api/v1/wedding-list/%d", added["gift_id"]), map[string]bool{"purchase": false})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, app, http.MethodDelete, fmt.Sprintf("/api/v1/wedding-list/%d", added["gift_id"]), nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp, _ = doJSON(t, app, http.MethodGet, fmt.Sprintf("/api/v1/wedding-list/%d", added["gift_id"]), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
