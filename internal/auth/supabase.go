package auth

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type ctxKeyUser struct{}

// User is the identity extracted from a platform access token.
type User struct {
	ID    string
	Email string
}

// Verifier checks Supabase-issued access tokens. Keys come from a
// static PEM/JWKS blob or are fetched by kid from the JWKS URL.
type Verifier struct {
	PublicKeyPEMOrJWKS string
	JWKSURL            string
	Audience           string
	Issuer             string

	parsedKey *rsa.PublicKey
	cache     jwksCache
}

func (v *Verifier) lazyParse() error {
	if v.parsedKey != nil {
		return nil
	}
	str := strings.TrimSpace(v.PublicKeyPEMOrJWKS)
	if str == "" {
		return nil
	}
	// A JSON blob is a JWKS; take the first key as the static fallback.
	if strings.HasPrefix(str, "{") {
		var set jwks
		if err := json.Unmarshal([]byte(str), &set); err != nil {
			return err
		}
		if len(set.Keys) == 0 {
			return errors.New("jwks empty")
		}
		k, err := decodeJWKToRSA(set.Keys[0])
		if err != nil {
			return err
		}
		v.parsedKey = k
		return nil
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM([]byte(str))
	if err != nil {
		return err
	}
	v.parsedKey = key
	return nil
}

func (v *Verifier) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
		return nil, fmt.Errorf("unexpected method: %v", token.Header["alg"])
	}
	if err := v.lazyParse(); err == nil && v.parsedKey != nil {
		return v.parsedKey, nil
	}
	if v.JWKSURL != "" {
		kid, _ := token.Header["kid"].(string)
		if kid != "" {
			if k, ok := v.cache.get(kid); ok {
				return k, nil
			}
			set, err := fetchJWKS(v.JWKSURL)
			if err != nil {
				return nil, err
			}
			for _, j := range set.Keys {
				if j.Kid == kid {
					k, err := decodeJWKToRSA(j)
					if err != nil {
						return nil, err
					}
					v.cache.set(kid, k)
					return k, nil
				}
			}
		}
	}
	return nil, errors.New("no verification key")
}

// Middleware rejects requests without a valid token. The token is read
// from the Authorization header, or from the access_token cookie: the
// browser EventSource API cannot set headers, so the SSE endpoint
// depends on the cookie path.
func (v *Verifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var tok string

		authz := r.Header.Get("Authorization")
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			tok = strings.TrimSpace(authz[len("bearer "):])
		} else if cookie, err := r.Cookie("access_token"); err == nil {
			tok = cookie.Value
		}

		if tok == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		parsed, err := jwt.Parse(tok, v.keyFunc, jwt.WithAudience(v.Audience), jwt.WithIssuer(v.Issuer))
		if err != nil || !parsed.Valid {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		u := User{}
		if claims, ok := parsed.Claims.(jwt.MapClaims); ok {
			u.ID, _ = claims["sub"].(string)
			u.Email, _ = claims["email"].(string)
		}
		if u.ID == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyUser{}, u)))
	})
}

// UserID returns the authenticated subject, or "" outside the middleware.
func UserID(ctx context.Context) string {
	return FromContext(ctx).ID
}

func FromContext(ctx context.Context) User {
	if u, ok := ctx.Value(ctxKeyUser{}).(User); ok {
		return u
	}
	return User{}
}

// WithUser is used by tests to fake an authenticated request.
func WithUser(ctx context.Context, u User) context.Context {
	return context.WithValue(ctx, ctxKeyUser{}, u)
}
