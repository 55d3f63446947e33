package auth

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"inkwell/domain"
)

// CookieName is the cookie carrying the signed session token.
const CookieName = "Authorization"

const sessionTTL = 7 * 24 * time.Hour

// Cookie builds the session cookie for a freshly authenticated account.
func (s *Service) Cookie(a domain.Account) (*http.Cookie, error) {
	exp := time.Now().Add(sessionTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(a.ID, 10),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(exp),
	})
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return nil, err
	}

	cookie := new(http.Cookie)
	cookie.Name = CookieName
	cookie.Value = signed
	cookie.Expires = exp
	cookie.Path = "/"

	return cookie, nil
}

// ClearCookie expires the session cookie. Logging out without a session is
// a no-op, so this is idempotent.
func ClearCookie() *http.Cookie {
	cookie := new(http.Cookie)
	cookie.Name = CookieName
	cookie.Value = ""
	cookie.Path = "/"
	cookie.Expires = time.Now().Add(-1 * time.Second)
	return cookie
}

// SessionAccountID extracts the account id from the request's session
// cookie. Missing, malformed, expired or tampered cookies all come back as
// domain.ErrNotAuthenticated.
func (s *Service) SessionAccountID(r *http.Request) (int64, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil {
		return 0, domain.ErrNotAuthenticated
	}
	token, err := jwt.ParseWithClaims(cookie.Value, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		// SigningMethodHMAC implements the HMAC-SHA family of signing methods.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.secret), nil
	})
	if err != nil || !token.Valid {
		return 0, domain.ErrNotAuthenticated
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return 0, domain.ErrNotAuthenticated
	}
	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, domain.ErrNotAuthenticated
	}
	return id, nil
}
