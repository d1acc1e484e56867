package session

import (
	"context"
	"errors"
	"kycflow/bizerror"
	"os"
	"strings"
	"time"

	"github.com/fundwit/go-commons/types"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
)

const TokenExpiration = 24 * time.Hour

// TokenCache maps cookie tokens issued by the identity subsystem to the staff identity
var TokenCache = cache.New(TokenExpiration, 1*time.Minute)

const KeySecCtx = "SecCtx"
const KeySecToken = "sec_token"

// PrincipalLoader reloads roles and branch of a staff member, it is invoked on every request
type PrincipalLoader func(ctx context.Context, uid types.ID) (*Principal, error)

type TokenVerifier struct {
	Secret []byte
	Issuer string
}

// NewTokenVerifierFromEnv JWT_SECRET, JWT_ISSUER
func NewTokenVerifierFromEnv() *TokenVerifier {
	return &TokenVerifier{Secret: []byte(os.Getenv("JWT_SECRET")), Issuer: os.Getenv("JWT_ISSUER")}
}

// Verify checks a HS256 bearer token and returns the staff id carried in the subject claim
func (v *TokenVerifier) Verify(tokenString string) (types.ID, error) {
	if v == nil || len(v.Secret) == 0 {
		return 0, errors.New("bearer token verification is not configured")
	}
	opts := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if v.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.Issuer))
	}
	claims := jwt.RegisteredClaims{}
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return v.Secret, nil
	}, opts...)
	if err != nil {
		return 0, err
	}
	if !token.Valid {
		return 0, errors.New("invalid token")
	}
	uid, err := types.ParseID(claims.Subject)
	if err != nil || uid == 0 {
		return 0, errors.New("invalid subject claim")
	}
	return uid, nil
}

func ExtractSessionFromGinContext(ctx *gin.Context) *Session {
	value, found := ctx.Get(KeySecCtx)
	if !found {
		return &Session{Context: ctx.Request.Context()}
	}
	s0, ok := value.(*Session)
	if !ok || s0.Token == "" {
		return &Session{Context: ctx.Request.Context()}
	}
	s := s0.Clone()
	s.Context = ctx.Request.Context() // trace context
	return &s
}

func SimpleAuthFilter(verifier *TokenVerifier, loader PrincipalLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, uid := authenticate(ctx, verifier)
		if uid == 0 {
			panic(bizerror.ErrUnauthenticated)
		}
		principal, err := loader(ctx.Request.Context(), uid)
		if err != nil {
			if errors.Is(err, bizerror.ErrNotFound) {
				panic(bizerror.ErrUnauthenticated)
			}
			panic(err)
		}
		InjectSessionIntoGinContext(ctx, &Session{Token: token,
			Identity: principal.Identity, Perms: principal.Perms, BranchID: principal.BranchID})
		ctx.Next()
	}
}

func authenticate(ctx *gin.Context, verifier *TokenVerifier) (string, types.ID) {
	authHeader := ctx.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return "", 0
		}
		token := strings.TrimSpace(parts[1])
		uid, err := verifier.Verify(token)
		if err != nil {
			return "", 0
		}
		return token, uid
	}

	token, err := ctx.Cookie(KeySecToken)
	if err != nil || token == "" {
		return "", 0
	}
	value, found := TokenCache.Get(token)
	if !found {
		return "", 0
	}
	identity, ok := value.(Identity)
	if !ok {
		return "", 0
	}
	return token, identity.ID
}

func InjectSessionIntoGinContext(ctx *gin.Context, secCtx *Session) {
	if secCtx != nil && secCtx.Token != "" {
		ctx.Set(KeySecCtx, secCtx)
	}
}
