package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// tokenCookie is the cookie the editor stores its session token in.
const tokenCookie = "token"

var (
	// ErrForbidden is returned when a store-scoped token names another store.
	ErrForbidden = errors.New("forbidden")

	errNoSecret = errors.New("jwt secret not configured")
)

// Claims is the payload of an editor session token. StoreID, when set,
// pins every request made with the token to that store.
type Claims struct {
	StoreID string `json:"storeId,omitempty"`
	User    any    `json:"user,omitempty"`
	jwt.RegisteredClaims
}

type claimsKey struct{}

// ClaimsFrom returns the verified token claims of the request, if any.
// Requests authenticated with a static token carry none.
func ClaimsFrom(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(claimsKey{}).(*Claims)
	return c, ok && c != nil
}

// authenticator accepts HS256 tokens signed with secret and, as a fallback,
// any of the static tokens.
type authenticator struct {
	secret []byte
	tokens []string
}

func newAuthenticator(secret string, tokens []string) authenticator {
	a := authenticator{tokens: tokens}
	if secret != "" {
		a.secret = []byte(secret)
	}
	return a
}

func (a authenticator) enabled() bool {
	return len(a.secret) > 0 || len(a.tokens) > 0
}

// parse verifies a signed token. Expiry is checked when the token has one.
func (a authenticator) parse(token string) (*Claims, error) {
	if len(a.secret) == 0 {
		return nil, errNoSecret
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

// verify returns nil claims for a static token.
func (a authenticator) verify(token string) (*Claims, error) {
	if token == "" {
		return nil, jwt.ErrTokenMalformed
	}
	for _, t := range a.tokens {
		if subtle.ConstantTimeCompare([]byte(t), []byte(token)) == 1 {
			return nil, nil
		}
	}
	return a.parse(token)
}

// middleware requires a valid token from "Authorization: Bearer" or the
// token cookie and stores its claims in the request context.
func (a authenticator) middleware(next http.Handler) http.Handler {
	if !a.enabled() {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := a.verify(requestToken(r))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="sitebuilder"`)
			writeError(w, http.StatusUnauthorized, "missing or invalid token")
			return
		}
		if claims != nil {
			r = r.WithContext(context.WithValue(r.Context(), claimsKey{}, claims))
		}
		next.ServeHTTP(w, r)
	})
}

func requestToken(r *http.Request) string {
	if tok, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(tok)
	}
	if c, err := r.Cookie(tokenCookie); err == nil {
		return c.Value
	}
	return ""
}

// scopedStore checks requested against the token's store. An empty
// requested store resolves to the token's store, then to fallback.
func scopedStore(ctx context.Context, requested, fallback string) (string, error) {
	if c, ok := ClaimsFrom(ctx); ok && c.StoreID != "" {
		if requested != "" && requested != c.StoreID {
			return "", fmt.Errorf("%w: token is scoped to store %s", ErrForbidden, c.StoreID)
		}
		return c.StoreID, nil
	}
	if requested == "" {
		return fallback, nil
	}
	return requested, nil
}

// requireStore rejects tokens scoped to a store other than store. The MCP
// endpoint and the approval queue only act on the default store.
func requireStore(store string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := scopedStore(r.Context(), store, store); err != nil {
				writeError(w, http.StatusForbidden, err.Error())
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

type verifyRequest struct {
	Token string `json:"token"`
}

type verifyResponse struct {
	Valid   bool    `json:"valid"`
	Claims  *Claims `json:"user,omitempty"`
	Message string  `json:"message"`
}

// verifyToken checks a signed token without requiring authentication.
func (h *handler) verifyToken(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := decode(r, &req); err != nil || req.Token == "" {
		writeJSON(w, http.StatusBadRequest, verifyResponse{Message: "token not provided"})
		return
	}
	claims, err := h.auth.parse(req.Token)
	switch {
	case errors.Is(err, errNoSecret):
		h.logger.Error("verify-token called without jwt_secret")
		writeJSON(w, http.StatusInternalServerError, verifyResponse{Message: "server misconfiguration"})
	case err != nil:
		writeJSON(w, http.StatusUnauthorized, verifyResponse{Message: "invalid or expired token"})
	default:
		writeJSON(w, http.StatusOK, verifyResponse{Valid: true, Claims: claims, Message: "token verified"})
	}
}
