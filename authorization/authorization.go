package authorization

import (
	"errors"
	"log"
	"os"
	"time"

	"github.com/cristalhq/jwt/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/swastisunder/Nivaas/domain"
)

var (
	jwtKey      = []byte(os.Getenv("SECRET_KEY"))
	verifier, _ = jwt.NewVerifierHS(jwt.HS256, jwtKey)
)

type Claims struct {
	UserID    primitive.ObjectID `json:"user_id"`
	Username  string             `json:"username"`
	Role      string             `json:"role"`
	ExpiresAt time.Time          `json:"expires_at"`
}

// GenerateToken issues the session token placed in the Authorization
// header by clients.
func GenerateToken(user *domain.User) (string, error) {
	signer, err := jwt.NewSignerHS(jwt.HS256, jwtKey)
	if err != nil {
		log.Println(err)
		return "", err
	}

	builder := jwt.NewBuilder(signer)

	claims := &Claims{
		UserID:    user.ID,
		Username:  user.Username,
		Role:      "user",
		ExpiresAt: time.Now().Add(time.Minute * 60),
	}

	token, err := builder.Build(claims)
	if err != nil {
		log.Println(err)
		return "", err
	}

	return token.String(), nil
}

// VerifyToken checks the signature and expiry and returns the embedded
// claims.
func VerifyToken(tokenString string) (*Claims, error) {
	var claims Claims
	err := jwt.ParseClaims([]byte(tokenString), verifier, &claims)
	if err != nil {
		return nil, err
	}
	if time.Now().After(claims.ExpiresAt) {
		return nil, errors.New("token has expired")
	}
	return &claims, nil
}
