package handlers

import (
	"bytes"
	"crypto/rand"
	"crypto/rsa"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"Pedalize/jwt"
	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Sup3r-Secret"

func newTestKeys(t *testing.T) *jwt.Keys {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return jwt.NewKeys(privateKey)
}

func newClientRouter(db *gorm.DB, keys *jwt.Keys) *gin.Engine {
	router := newTestRouter(middleware.AuthMiddleware(keys, db))
	group := router.Group("/clients")
	group.POST("/register", func(c *gin.Context) { RegisterHandler(c, db) })
	group.POST("/login", func(c *gin.Context) { LoginHandler(c, db, keys, time.Hour) })
	group.POST("/logout", middleware.CheckLoginMiddleware(), func(c *gin.Context) { LogoutHandler(c, db) })
	group.GET("/profile", middleware.CheckLoginMiddleware(), func(c *gin.Context) { GetProfileHandler(c, db) })
	group.PATCH("/profile", middleware.CheckLoginMiddleware(), func(c *gin.Context) { UpdateProfileHandler(c, db) })
	return router
}

func register(t *testing.T, router *gin.Engine, username string) {
	recorder := performJSON(router, http.MethodPost, "/clients/register", map[string]string{
		"username": username,
		"email":    username + "@pedalize.test",
		"password": testPassword,
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
}

func login(t *testing.T, router *gin.Engine, username string) string {
	recorder := performJSON(router, http.MethodPost, "/clients/login", map[string]string{
		"username": username,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	var response struct {
		Token string `json:"token"`
	}
	decodeBody(t, recorder, &response)
	return response.Token
}

func performWithToken(router *gin.Engine, method, target, token string) *httptest.ResponseRecorder {
	return performJSONWithToken(router, method, target, token, nil)
}

func performJSONWithToken(router *gin.Engine, method, target, token string, payload any) *httptest.ResponseRecorder {
	var body io.Reader
	if payload != nil {
		data, _ := json.Marshal(payload)
		body = bytes.NewReader(data)
	}
	request := httptest.NewRequest(method, target, body)
	if payload != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	request.Header.Set("Authorization", "Bearer "+token)
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)
	return recorder
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		username string
		want     bool
	}{
		{"rider_one", true},
		{"Rider-2024", true},
		{"short", false},
		{"this_username_is_far_too_long", false},
		{"with space", false},
		{"émile_rider", false},
	}

	for _, tt := range tests {
		t.Run(tt.username, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateUsername(tt.username))
		})
	}
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("rider.one+shop@pedalize.test"))
	assert.False(t, ValidateEmail("rider.one"))
	assert.False(t, ValidateEmail("@pedalize.test"))
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "valid", password: testPassword, want: true},
		{name: "too short", password: "Ab1-", want: false},
		{name: "no upper", password: "sup3r-secret", want: false},
		{name: "no lower", password: "SUP3R-SECRET", want: false},
		{name: "no digit", password: "Super-Secret", want: false},
		{name: "no symbol", password: "Sup3rSecret", want: false},
		{name: "whitespace", password: "Sup3r Secret-", want: false},
		{name: "tab", password: "Sup3r\tSecret-", want: false},
		{name: "symbol only class", password: "Sup3r$ecret", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidatePassword(tt.password))
		})
	}
}

func TestRegister(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))

	recorder := performJSON(router, http.MethodPost, "/clients/register", map[string]string{
		"username": "rider_one",
		"email":    "rider_one@pedalize.test",
		"password": testPassword,
	})

	require.Equal(t, http.StatusCreated, recorder.Code)
	assert.JSONEq(t, `{"message":"Client registered","code":6100,"username":"rider_one"}`, recorder.Body.String())

	var client models.Client
	require.NoError(t, db.Where("username = ?", "rider_one").First(&client).Error)
	assert.Equal(t, models.RoleUser, client.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(testPassword)))
}

func TestRegister_Rejects(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))
	register(t, router, "rider_one")

	tests := []struct {
		name    string
		payload map[string]string
		code    uint16
	}{
		{
			name:    "missing fields",
			payload: map[string]string{"username": "rider_two"},
			code:    codeClientBadRequest,
		},
		{
			name:    "invalid username",
			payload: map[string]string{"username": "r2", "email": "r2@pedalize.test", "password": testPassword},
			code:    codeClientBadRequest,
		},
		{
			name:    "invalid email",
			payload: map[string]string{"username": "rider_two", "email": "nope", "password": testPassword},
			code:    codeClientBadRequest,
		},
		{
			name:    "weak password",
			payload: map[string]string{"username": "rider_two", "email": "r2@pedalize.test", "password": "password"},
			code:    codeClientBadRequest,
		},
		{
			name:    "username taken",
			payload: map[string]string{"username": "rider_one", "email": "other@pedalize.test", "password": testPassword},
			code:    codeClientTaken,
		},
		{
			name:    "email taken",
			payload: map[string]string{"username": "rider_two", "email": "rider_one@pedalize.test", "password": testPassword},
			code:    codeClientTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := performJSON(router, http.MethodPost, "/clients/register", tt.payload)

			assert.Equal(t, http.StatusBadRequest, recorder.Code)
			assert.Equal(t, tt.code, decodeApiError(t, recorder).Code)
		})
	}
}

func TestLogin(t *testing.T) {
	db := setupTestDB(t)
	keys := newTestKeys(t)
	router := newClientRouter(db, keys)
	register(t, router, "rider_one")

	recorder := performJSON(router, http.MethodPost, "/clients/login", map[string]string{
		"username": "rider_one",
		"password": testPassword,
	})

	require.Equal(t, http.StatusOK, recorder.Code)
	var response struct {
		Message string `json:"message"`
		Code    uint16 `json:"code"`
		Token   string `json:"token"`
	}
	decodeBody(t, recorder, &response)
	assert.Equal(t, uint16(codeLoggedIn), response.Code)
	assert.Equal(t, "Bearer "+response.Token, recorder.Header().Get("Authorization"))

	clientID, role, err := keys.VerifyToken(response.Token, db)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, role)

	var client models.Client
	require.NoError(t, db.Where("username = ?", "rider_one").First(&client).Error)
	assert.Equal(t, client.ID, clientID)
}

func TestLogin_StoresOnlyTokenHash(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))
	register(t, router, "rider_one")
	token := login(t, router, "rider_one")

	var stored models.LoginToken
	require.NoError(t, db.First(&stored).Error)
	assert.Equal(t, models.HashToken(token), stored.TokenHash)
	assert.Len(t, stored.TokenHash, 64)

	var count int64
	require.NoError(t, db.Model(&models.LoginToken{}).Where("token_hash = ?", token).Count(&count).Error)
	assert.Zero(t, count)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))
	register(t, router, "rider_one")

	tests := []struct {
		name     string
		username string
		password string
	}{
		{name: "wrong password", username: "rider_one", password: "Wr0ng-Password"},
		{name: "unknown username", username: "rider_two", password: testPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := performJSON(router, http.MethodPost, "/clients/login", map[string]string{
				"username": tt.username,
				"password": tt.password,
			})

			assert.Equal(t, http.StatusUnauthorized, recorder.Code)
			assert.Equal(t, uint16(codeInvalidCredentials), decodeApiError(t, recorder).Code)
		})
	}
}

func TestLogout_RevokesToken(t *testing.T) {
	db := setupTestDB(t)
	keys := newTestKeys(t)
	router := newClientRouter(db, keys)
	register(t, router, "rider_one")
	token := login(t, router, "rider_one")

	recorder := performWithToken(router, http.MethodPost, "/clients/logout", token)
	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, uint16(codeLoggedOut), decodeOK(t, recorder).Code)

	_, _, err := keys.VerifyToken(token, db)
	assert.ErrorIs(t, err, jwt.ErrTokenRevoked)

	recorder = performWithToken(router, http.MethodGet, "/clients/profile", token)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestGetProfile(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))
	register(t, router, "rider_one")
	token := login(t, router, "rider_one")

	recorder := performWithToken(router, http.MethodGet, "/clients/profile", token)

	require.Equal(t, http.StatusOK, recorder.Code)
	var profile map[string]string
	decodeBody(t, recorder, &profile)
	assert.Equal(t, "rider_one", profile["username"])
	assert.Equal(t, "rider_one@pedalize.test", profile["email"])
	assert.Equal(t, models.RoleUser, profile["role"])
	assert.NotEmpty(t, profile["id"])
	assert.NotContains(t, profile, "password")
}

func TestUpdateProfile_ChangesEmailAndPassword(t *testing.T) {
	db := setupTestDB(t)
	keys := newTestKeys(t)
	router := newClientRouter(db, keys)
	register(t, router, "rider_one")
	token := login(t, router, "rider_one")
	otherSession := login(t, router, "rider_one")
	require.NotEqual(t, token, otherSession)

	recorder := performJSONWithToken(router, http.MethodPatch, "/clients/profile", token, map[string]string{
		"email":       "new_rider@pedalize.test",
		"oldPassword": testPassword,
		"newPassword": "N3w-Password",
	})

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Equal(t, okResponse{Code: codeProfileUpdated, Message: "Profile updated"}, decodeOK(t, recorder))

	var client models.Client
	require.NoError(t, db.Where("username = ?", "rider_one").First(&client).Error)
	assert.Equal(t, "new_rider@pedalize.test", client.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(client.Password), []byte("N3w-Password")))

	//目前的Token仍有效，其他登入被撤銷
	_, _, err := keys.VerifyToken(token, db)
	assert.NoError(t, err)
	_, _, err = keys.VerifyToken(otherSession, db)
	assert.ErrorIs(t, err, jwt.ErrTokenRevoked)

	recorder = performJSON(router, http.MethodPost, "/clients/login", map[string]string{
		"username": "rider_one",
		"password": testPassword,
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestUpdateProfile_EmailOnlyKeepsSessions(t *testing.T) {
	db := setupTestDB(t)
	keys := newTestKeys(t)
	router := newClientRouter(db, keys)
	register(t, router, "rider_one")
	token := login(t, router, "rider_one")
	otherSession := login(t, router, "rider_one")

	recorder := performJSONWithToken(router, http.MethodPatch, "/clients/profile", token, map[string]string{
		"email":       "new_rider@pedalize.test",
		"oldPassword": testPassword,
	})

	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	_, _, err := keys.VerifyToken(otherSession, db)
	assert.NoError(t, err)
}

func TestUpdateProfile_Rejects(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))
	register(t, router, "rider_one")
	register(t, router, "rider_two")
	token := login(t, router, "rider_one")

	tests := []struct {
		name    string
		payload map[string]string
		status  int
		code    uint16
	}{
		{
			name:    "missing old password",
			payload: map[string]string{"email": "x_rider@pedalize.test"},
			status:  http.StatusBadRequest,
			code:    codeClientBadRequest,
		},
		{
			name:    "nothing to update",
			payload: map[string]string{"oldPassword": testPassword},
			status:  http.StatusBadRequest,
			code:    codeClientBadRequest,
		},
		{
			name:    "wrong old password",
			payload: map[string]string{"oldPassword": "Wr0ng-Password", "newPassword": "N3w-Password"},
			status:  http.StatusUnauthorized,
			code:    codeInvalidCredentials,
		},
		{
			name:    "invalid email",
			payload: map[string]string{"oldPassword": testPassword, "email": "nope"},
			status:  http.StatusBadRequest,
			code:    codeClientBadRequest,
		},
		{
			name:    "email taken",
			payload: map[string]string{"oldPassword": testPassword, "email": "rider_two@pedalize.test"},
			status:  http.StatusBadRequest,
			code:    codeClientTaken,
		},
		{
			name:    "weak new password",
			payload: map[string]string{"oldPassword": testPassword, "newPassword": "password"},
			status:  http.StatusBadRequest,
			code:    codeClientBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := performJSONWithToken(router, http.MethodPatch, "/clients/profile", token, tt.payload)

			assert.Equal(t, tt.status, recorder.Code)
			assert.Equal(t, tt.code, decodeApiError(t, recorder).Code)
		})
	}

	var client models.Client
	require.NoError(t, db.Where("username = ?", "rider_one").First(&client).Error)
	assert.Equal(t, "rider_one@pedalize.test", client.Email)
}

func TestUpdateProfile_RequiresLogin(t *testing.T) {
	db := setupTestDB(t)
	router := newClientRouter(db, newTestKeys(t))

	recorder := performJSON(router, http.MethodPatch, "/clients/profile", map[string]string{"oldPassword": testPassword})

	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}
