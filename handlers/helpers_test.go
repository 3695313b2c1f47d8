package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"Pedalize/config"
	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, config.Migrate(db))
	return db
}

// 建立p01..pNN，價格為序號乘100
func seedProducts(t *testing.T, db *gorm.DB, n int) []models.Product {
	products := make([]models.Product, 0, n)
	for i := 1; i <= n; i++ {
		products = append(products, models.Product{
			ID:    fmt.Sprintf("p%02d", i),
			Name:  fmt.Sprintf("Bike %d", i),
			Price: uint64(i * 100),
		})
	}
	require.NoError(t, db.Create(&products).Error)
	return products
}

func seedClient(t *testing.T, db *gorm.DB, username, role string) models.Client {
	client := models.Client{
		ID:       uuid.NewString(),
		Username: username,
		Email:    username + "@pedalize.test",
		Password: "-",
		Role:     role,
	}
	require.NoError(t, db.Create(&client).Error)
	return client
}

// 模擬AuthMiddleware驗證成功後的狀態
func asClient(clientID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ClientIDKey, clientID)
		c.Set(middleware.RoleKey, role)
		c.Next()
	}
}

func newTestRouter(extra ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestIDMiddleware())
	router.Use(extra...)
	return router
}

func performRequest(router http.Handler, method, target string, body io.Reader, contentType string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	request := httptest.NewRequest(method, target, body)
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	for _, cookie := range cookies {
		request.AddCookie(cookie)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func performForm(router http.Handler, method, target string, values url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return performRequest(router, method, target, strings.NewReader(values.Encode()), "application/x-www-form-urlencoded", cookies...)
}

func performJSON(router http.Handler, method, target string, payload any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	return performRequest(router, method, target, strings.NewReader(string(body)), "application/json", cookies...)
}

func decodeBody(t *testing.T, recorder *httptest.ResponseRecorder, v any) {
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), v))
}

func decodeApiError(t *testing.T, recorder *httptest.ResponseRecorder) models.ApiError {
	var apiError models.ApiError
	decodeBody(t, recorder, &apiError)
	return apiError
}

type okResponse struct {
	Code    uint16 `json:"code"`
	Message string `json:"message"`
}

func decodeOK(t *testing.T, recorder *httptest.ResponseRecorder) okResponse {
	var response okResponse
	decodeBody(t, recorder, &response)
	return response
}

func findCookie(recorder *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, cookie := range recorder.Result().Cookies() {
		if cookie.Name == name {
			return cookie
		}
	}
	return nil
}

func mustField(t *testing.T, body []byte, field string) json.RawMessage {
	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(body, &fields))
	return fields[field]
}
