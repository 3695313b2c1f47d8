package jwt

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"os"
	"time"

	"Pedalize/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrTokenRevoked = errors.New("token revoked")

// 以RSA金鑰對簽署與驗證登入Token
type Keys struct {
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
}

func NewKeys(privateKey *rsa.PrivateKey) *Keys {
	return &Keys{
		privateKey: privateKey,
		publicKey:  &privateKey.PublicKey,
	}
}

// 讀取私鑰與公鑰
func LoadKeys(privateKeyPath, publicKeyPath string) (*Keys, error) {
	keyBytes, err := os.ReadFile(privateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	privateKey, err := jwt.ParseRSAPrivateKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	keyBytes, err = os.ReadFile(publicKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read public key: %w", err)
	}
	publicKey, err := jwt.ParseRSAPublicKeyFromPEM(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}

	return &Keys{privateKey: privateKey, publicKey: publicKey}, nil
}

// 生成JWT Token
func (k *Keys) GenerateToken(clientID string, role string, expTime time.Time) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, jwt.MapClaims{
		"clientID": clientID,
		"role":     role,
		"exp":      expTime.Unix(),
		"jti":      uuid.NewString(),
	})

	tokenString, err := token.SignedString(k.privateKey)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return tokenString, nil
}

// 驗證JWT Token並回傳ClientID與Role
func (k *Keys) VerifyToken(tokenString string, db *gorm.DB) (string, string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return k.publicKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}))
	if err != nil {
		return "", "", err
	}

	if !token.Valid {
		return "", "", jwt.ErrTokenSignatureInvalid
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	clientID, ok := claims["clientID"].(string)
	if !ok || clientID == "" {
		return "", "", jwt.ErrTokenInvalidClaims
	}
	role, ok := claims["role"].(string)
	if !ok {
		return "", "", jwt.ErrTokenInvalidClaims
	}

	//從資料庫檢查Token是否刪除
	var loginToken models.LoginToken
	err = db.Where("token_hash = ?", models.HashToken(tokenString)).First(&loginToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", ErrTokenRevoked
		}
		return "", "", fmt.Errorf("lookup login token: %w", err)
	}

	return clientID, role, nil
}
