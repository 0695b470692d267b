package token

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const defaultTTL = time.Hour

var (
	ErrNoSigningKey = errors.New("signing key is not set")
	ErrBadUserEntry = errors.New("user entry must look like name:bcrypt-hash")
)

type contextKey struct{}

type User struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Authenticator issues HS256 tokens to known users and checks them on protected routes.
type Authenticator struct {
	signingKey []byte
	users      map[string]string
	ttl        time.Duration
	now        func() time.Time
	log        *zap.Logger
}

// ParseUsers reads "name:bcrypt-hash" entries.
func ParseUsers(entries []string) (map[string]string, error) {
	users := make(map[string]string, len(entries))
	for _, entry := range entries {
		name, hash, ok := strings.Cut(strings.TrimSpace(entry), ":")
		if !ok || name == "" || hash == "" {
			return nil, errors.Wrapf(ErrBadUserEntry, "%q", entry)
		}
		users[name] = hash
	}
	return users, nil
}

func NewAuthenticator(signingKey []byte, users map[string]string, log *zap.Logger) (*Authenticator, error) {
	if len(signingKey) == 0 {
		return nil, ErrNoSigningKey
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Authenticator{
		signingKey: signingKey,
		users:      users,
		ttl:        defaultTTL,
		now:        time.Now,
		log:        log,
	}, nil
}

func (a *Authenticator) GetToken(w http.ResponseWriter, r *http.Request) {
	var user User
	if err := json.NewDecoder(r.Body).Decode(&user); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	storedPassword, ok := a.users[user.Username]
	if !ok || !checkPasswordHash(user.Password, storedPassword) {
		http.Error(w, "Invalid username or password", http.StatusUnauthorized)
		return
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": user.Username,
		"exp":      a.now().Add(a.ttl).Unix(),
	})

	tokenString, err := token.SignedString(a.signingKey)
	if err != nil {
		a.log.Error("signing token", zap.Error(err))
		http.Error(w, "Could not issue token", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]string{"token": tokenString}); err != nil {
		a.log.Warn("writing token response", zap.Error(err))
	}
}

func checkPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func (a *Authenticator) JwtMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return a.signingKey, nil
		})
		if err != nil || !token.Valid {
			a.log.Debug("rejected token", zap.Error(err))
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			http.Error(w, "Forbidden", http.StatusUnauthorized)
			return
		}
		username, _ := claims["username"].(string)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKey{}, username)))
	})
}

// Username returns the user a request was authenticated as.
func Username(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(contextKey{}).(string)
	return name, ok && name != ""
}
