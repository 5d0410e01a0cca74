package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/booknest/bookshelf-api/config"
)

// Issuer identifies locally minted development tokens. Production tokens
// come from the Auth0 tenant and never pass through this package.
const Issuer = "https://bookshelf.dev/"

// CreateToken mints an HS256 bearer token for local development and tests,
// carrying the subject plus the audience-namespaced profile claims the
// identity provider would supply.
func CreateToken(subject, email, name string) (string, error) {
	secretKeyStr := config.Env.JWTSecretKey
	if secretKeyStr == "" {
		return "", fmt.Errorf("auth.go: JWT_SECRET_KEY not set")
	}

	audience := config.Env.Auth0Audience
	secretKey := []byte(secretKeyStr)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256,
		jwt.MapClaims{
			"iss":               Issuer,
			"aud":               audience,
			"sub":               subject,
			audience + "/email": email,
			audience + "/name":  name,
			"iat":               time.Now().Unix(),
			"exp":               time.Now().Add(time.Hour * 24).Unix(),
		})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// VerifyToken checks a development token's signature and expiry.
func VerifyToken(tokenString string) error {
	secretKeyStr := config.Env.JWTSecretKey
	if secretKeyStr == "" {
		return fmt.Errorf("auth.go: JWT secret key not set")
	}

	secretKey := []byte(secretKeyStr)
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return secretKey, nil
	})

	if err != nil {
		return err
	}

	if !token.Valid {
		return fmt.Errorf("invalid token")
	}

	return nil
}
