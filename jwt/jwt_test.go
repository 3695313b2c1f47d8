package jwt

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"Pedalize/models"

	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.LoginToken{}))
	return db
}

func newTestKeys(t *testing.T) (*Keys, *rsa.PrivateKey) {
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	return NewKeys(privateKey), privateKey
}

func storeToken(t *testing.T, db *gorm.DB, token, clientID string) {
	require.NoError(t, db.Create(&models.LoginToken{
		TokenHash:      models.HashToken(token),
		ExpirationTime: time.Now().Add(time.Hour),
		ClientID:       clientID,
		Role:           models.RoleUser,
	}).Error)
}

func TestGenerateAndVerifyToken(t *testing.T) {
	db := setupTestDB(t)
	keys, _ := newTestKeys(t)
	clientID := uuid.NewString()

	token, err := keys.GenerateToken(clientID, models.RoleAdmin, time.Now().Add(time.Hour))
	require.NoError(t, err)
	storeToken(t, db, token, clientID)

	gotID, gotRole, err := keys.VerifyToken(token, db)
	require.NoError(t, err)
	assert.Equal(t, clientID, gotID)
	assert.Equal(t, models.RoleAdmin, gotRole)
}

func TestGenerateToken_UniquePerLogin(t *testing.T) {
	keys, _ := newTestKeys(t)
	clientID := uuid.NewString()
	expiration := time.Now().Add(time.Hour)

	first, err := keys.GenerateToken(clientID, models.RoleUser, expiration)
	require.NoError(t, err)
	second, err := keys.GenerateToken(clientID, models.RoleUser, expiration)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyToken_Revoked(t *testing.T) {
	db := setupTestDB(t)
	keys, _ := newTestKeys(t)

	token, err := keys.GenerateToken(uuid.NewString(), models.RoleUser, time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, _, err = keys.VerifyToken(token, db)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestVerifyToken_Expired(t *testing.T) {
	db := setupTestDB(t)
	keys, _ := newTestKeys(t)
	clientID := uuid.NewString()

	token, err := keys.GenerateToken(clientID, models.RoleUser, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	storeToken(t, db, token, clientID)

	_, _, err = keys.VerifyToken(token, db)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestVerifyToken_WrongKey(t *testing.T) {
	db := setupTestDB(t)
	signer, _ := newTestKeys(t)
	verifier, _ := newTestKeys(t)
	clientID := uuid.NewString()

	token, err := signer.GenerateToken(clientID, models.RoleUser, time.Now().Add(time.Hour))
	require.NoError(t, err)
	storeToken(t, db, token, clientID)

	_, _, err = verifier.VerifyToken(token, db)
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestVerifyToken_Garbage(t *testing.T) {
	db := setupTestDB(t)
	keys, _ := newTestKeys(t)

	_, _, err := keys.VerifyToken("not-a-token", db)
	assert.ErrorIs(t, err, jwt.ErrTokenMalformed)
}

func TestLoadKeys(t *testing.T) {
	_, privateKey := newTestKeys(t)
	dir := t.TempDir()

	privatePath := filepath.Join(dir, "private_key.pem")
	privatePEM := pem.EncodeToMemory(&pem.Block{
		Type:  "RSA PRIVATE KEY",
		Bytes: x509.MarshalPKCS1PrivateKey(privateKey),
	})
	require.NoError(t, os.WriteFile(privatePath, privatePEM, 0o600))

	publicDER, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	require.NoError(t, err)
	publicPath := filepath.Join(dir, "public_key.pem")
	publicPEM := pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: publicDER})
	require.NoError(t, os.WriteFile(publicPath, publicPEM, 0o600))

	keys, err := LoadKeys(privatePath, publicPath)
	require.NoError(t, err)
	assert.True(t, keys.publicKey.Equal(&privateKey.PublicKey))
}

func TestLoadKeys_MissingFile(t *testing.T) {
	_, err := LoadKeys(filepath.Join(t.TempDir(), "missing.pem"), "x")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
