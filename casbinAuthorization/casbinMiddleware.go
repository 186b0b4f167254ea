package casbinAuthorization

import (
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/casbin/casbin"
	"github.com/cristalhq/jwt/v4"
)

var jwtKey = []byte(os.Getenv("SECRET_KEY"))

var verifier, _ = jwt.NewVerifierHS(jwt.HS256, jwtKey)

func parseToken(tokenString string) (*jwt.Token, error) {
	token, err := jwt.Parse([]byte(tokenString), verifier)
	if err != nil {
		log.Println(err)
		return nil, err
	}
	return token, nil
}

// extractRole reads the role claim off the bearer token. Callers without
// a usable token enforce as Unauthenticated; the login gate behind the
// enforcer is what turns them away with the proper response.
func extractRole(r *http.Request) string {
	bearer := r.Header.Get("Authorization")
	if bearer == "" {
		return "Unauthenticated"
	}

	bearerToken := strings.Split(bearer, "Bearer ")
	if len(bearerToken) != 2 {
		return "Unauthenticated"
	}

	tokenString := bearerToken[1]
	token, err := parseToken(tokenString)
	if err != nil {
		log.Println("Error parsing token:", err)
		return "Unauthenticated"
	}

	claims := extractClaims(token)
	role, ok := claims["role"]
	if !ok {
		log.Println("role claim not found in token")
		return "Unauthenticated"
	}

	return role
}

func extractClaims(token *jwt.Token) map[string]string {
	var claims map[string]string

	err := jwt.ParseClaims(token.Bytes(), verifier, &claims)
	if err != nil {
		log.Println(err)
	}

	return claims
}

func CasbinMiddleware(e *casbin.Enforcer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			userRole := extractRole(r)

			res, err := e.EnforceSafe(userRole, r.URL.Path, r.Method)
			if err != nil {
				log.Println("enforce error:", err)
				http.Error(w, "unauthorized user", http.StatusUnauthorized)
				return
			}

			if res {
				next.ServeHTTP(w, r)
			} else {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
		}

		return http.HandlerFunc(fn)
	}
}
