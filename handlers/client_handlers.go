package handlers

import (
	"errors"
	"net/http"
	"regexp"
	"strings"
	"time"
	"unicode"

	"Pedalize/jwt"
	"Pedalize/middleware"
	"Pedalize/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
)

// 檢查使用者名稱是否合法
func ValidateUsername(username string) bool {
	if len(username) < 8 || len(username) > 20 {
		return false
	}
	return usernamePattern.MatchString(username)
}

// 檢查信箱是否合法
func ValidateEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// 大寫、小寫、數字、符號各需至少一個
var passwordClasses = []func(rune) bool{
	unicode.IsUpper,
	unicode.IsLower,
	unicode.IsDigit,
	func(r rune) bool { return unicode.IsPunct(r) || unicode.IsSymbol(r) },
}

// 檢查密碼是否合法：8到50字元且不含空白
func ValidatePassword(password string) bool {
	if len(password) < 8 || len(password) > 50 || strings.IndexFunc(password, unicode.IsSpace) >= 0 {
		return false
	}
	for _, class := range passwordClasses {
		if strings.IndexFunc(password, class) < 0 {
			return false
		}
	}
	return true
}

// 檢查欄位值是否已被使用
func isClientFieldTaken(db *gorm.DB, column, value string) (bool, error) {
	var count int64
	err := db.Model(&models.Client{}).Where(column+" = ?", value).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// 註冊會員帳戶
func RegisterHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())

	var registerReq struct {
		Username string `json:"username" binding:"required"`
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&registerReq); err != nil {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Username, email and password are required")
		return
	}

	if !ValidateUsername(registerReq.Username) {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Invalid username")
		return
	}
	if !ValidateEmail(registerReq.Email) {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Invalid email")
		return
	}
	if !ValidatePassword(registerReq.Password) {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Invalid password")
		return
	}

	for _, field := range []struct{ column, value, message string }{
		{"username", registerReq.Username, "Username already taken"},
		{"email", registerReq.Email, "Email already taken"},
	} {
		taken, err := isClientFieldTaken(db, field.column, field.value)
		if err != nil {
			logError(c, "Register", "cannot check the %s: %v", field.column, err)
			respondError(c, http.StatusInternalServerError, codeRegisterFailed, "Cannot register the client")
			return
		}
		if taken {
			respondError(c, http.StatusBadRequest, codeClientTaken, field.message)
			return
		}
	}

	//將密碼Hash
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(registerReq.Password), bcrypt.DefaultCost)
	if err != nil {
		logError(c, "Register", "cannot hash the password: %v", err)
		respondError(c, http.StatusInternalServerError, codeRegisterFailed, "Cannot register the client")
		return
	}

	client := models.Client{
		ID:       uuid.NewString(),
		Username: registerReq.Username,
		Email:    registerReq.Email,
		Password: string(hashedPassword),
		Role:     models.RoleUser,
	}
	if err := db.Create(&client).Error; err != nil {
		logError(c, "Register", "cannot save the client: %v", err)
		respondError(c, http.StatusInternalServerError, codeRegisterFailed, "Cannot register the client")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":  "Client registered",
		"code":     codeRegistered,
		"username": client.Username,
	})
}

func LoginHandler(c *gin.Context, db *gorm.DB, keys *jwt.Keys, tokenTTL time.Duration) {
	db = db.WithContext(c.Request.Context())

	var loginReq struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&loginReq); err != nil {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Username and password are required")
		return
	}

	var client models.Client
	err := db.Where("username = ?", loginReq.Username).First(&client).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "Invalid username or password")
			return
		}
		logError(c, "Login", "cannot fetch the client: %v", err)
		respondError(c, http.StatusInternalServerError, codeLoginFailed, "Cannot log in")
		return
	}

	//檢查密碼是否正確
	if err := bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(loginReq.Password)); err != nil {
		respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "Invalid username or password")
		return
	}

	expiration := time.Now().Add(tokenTTL)
	token, err := keys.GenerateToken(client.ID, client.Role, expiration)
	if err != nil {
		logError(c, "Login", "cannot generate the token: %v", err)
		respondError(c, http.StatusInternalServerError, codeLoginFailed, "Cannot log in")
		return
	}

	//儲存LoginToken，登出時刪除
	loginToken := models.LoginToken{
		TokenHash:      models.HashToken(token),
		ExpirationTime: expiration,
		ClientID:       client.ID,
		Role:           client.Role,
	}
	if err := db.Create(&loginToken).Error; err != nil {
		logError(c, "Login", "cannot save the login token: %v", err)
		respondError(c, http.StatusInternalServerError, codeLoginFailed, "Cannot log in")
		return
	}

	c.Header("Authorization", "Bearer "+token)
	c.JSON(http.StatusOK, gin.H{
		"message": "Logged in",
		"code":    codeLoggedIn,
		"token":   token,
	})
}

func LogoutHandler(c *gin.Context, db *gorm.DB) {
	token := c.GetString(middleware.TokenKey)

	result := db.WithContext(c.Request.Context()).Where("token_hash = ?", models.HashToken(token)).Delete(&models.LoginToken{})
	if result.Error != nil {
		logError(c, "Logout", "cannot delete the login token: %v", result.Error)
		respondError(c, http.StatusInternalServerError, codeLogoutFailed, "Cannot log out")
		return
	}

	c.Header("Authorization", "")
	respondOK(c, codeLoggedOut, "Logged out")
}

// 查詢會員資料
func GetProfileHandler(c *gin.Context, db *gorm.DB) {
	clientID, _ := middleware.CurrentClientID(c)

	var client models.Client
	err := db.WithContext(c.Request.Context()).Where("id = ?", clientID).First(&client).Error
	if err != nil {
		logError(c, "GetProfile", "cannot fetch the client %s: %v", clientID, err)
		respondError(c, http.StatusInternalServerError, codeProfileFailed, "Cannot get the profile")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":       client.ID,
		"username": client.Username,
		"email":    client.Email,
		"role":     client.Role,
	})
}

// 修改信箱或密碼，需提供舊密碼；改密碼後其他登入Token一併失效
func UpdateProfileHandler(c *gin.Context, db *gorm.DB) {
	db = db.WithContext(c.Request.Context())
	clientID, _ := middleware.CurrentClientID(c)

	var updateReq struct {
		Email       string `json:"email"`
		OldPassword string `json:"oldPassword" binding:"required"`
		NewPassword string `json:"newPassword"`
	}
	if err := c.ShouldBindJSON(&updateReq); err != nil {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "The old password is required")
		return
	}
	if updateReq.Email == "" && updateReq.NewPassword == "" {
		respondError(c, http.StatusBadRequest, codeClientBadRequest, "Nothing to update")
		return
	}

	var client models.Client
	if err := db.Where("id = ?", clientID).First(&client).Error; err != nil {
		logError(c, "UpdateProfile", "cannot fetch the client %s: %v", clientID, err)
		respondError(c, http.StatusInternalServerError, codeUpdateProfile, "Cannot update the profile")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(client.Password), []byte(updateReq.OldPassword)); err != nil {
		respondError(c, http.StatusUnauthorized, codeInvalidCredentials, "Wrong password")
		return
	}

	updates := map[string]any{}
	if updateReq.Email != "" && updateReq.Email != client.Email {
		if !ValidateEmail(updateReq.Email) {
			respondError(c, http.StatusBadRequest, codeClientBadRequest, "Invalid email")
			return
		}
		taken, err := isClientFieldTaken(db, "email", updateReq.Email)
		if err != nil {
			logError(c, "UpdateProfile", "cannot check the email: %v", err)
			respondError(c, http.StatusInternalServerError, codeUpdateProfile, "Cannot update the profile")
			return
		}
		if taken {
			respondError(c, http.StatusBadRequest, codeClientTaken, "Email already taken")
			return
		}
		updates["email"] = updateReq.Email
	}

	if updateReq.NewPassword != "" {
		if !ValidatePassword(updateReq.NewPassword) {
			respondError(c, http.StatusBadRequest, codeClientBadRequest, "Invalid password")
			return
		}
		//將密碼Hash
		hashedPassword, err := bcrypt.GenerateFromPassword([]byte(updateReq.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			logError(c, "UpdateProfile", "cannot hash the password: %v", err)
			respondError(c, http.StatusInternalServerError, codeUpdateProfile, "Cannot update the profile")
			return
		}
		updates["password"] = string(hashedPassword)
	}

	if len(updates) > 0 {
		currentToken := models.HashToken(c.GetString(middleware.TokenKey))
		err := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&client).Updates(updates).Error; err != nil {
				return err
			}
			if _, ok := updates["password"]; !ok {
				return nil
			}
			return tx.Where("client_id = ? AND token_hash <> ?", client.ID, currentToken).Delete(&models.LoginToken{}).Error
		})
		if err != nil {
			logError(c, "UpdateProfile", "cannot update the client %s: %v", clientID, err)
			respondError(c, http.StatusInternalServerError, codeUpdateProfile, "Cannot update the profile")
			return
		}
	}

	respondOK(c, codeProfileUpdated, "Profile updated")
}
