package httpapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/uaesivakumar/authority-kernel/internal/kernel/domain"
)

// Claims is the bearer-token shape kernel operators carry, narrowed from
// the teacher's RSA service-to-service ServiceClaims (which authenticates
// one microservice to another) to a single HS256 shared-secret token: the
// kernel has no service mesh to authenticate across, only individual
// human/automation callers identified by actor id, role, and enterprise.
type Claims struct {
	ActorID      string           `json:"actor_id"`
	ActorRole    domain.ActorRole `json:"actor_role"`
	EnterpriseID string           `json:"enterprise_id,omitempty"`
	jwt.RegisteredClaims
}

// TokenIssuer mints bearer tokens for kernel operators.
type TokenIssuer struct {
	secret []byte
	expiry time.Duration
}

func NewTokenIssuer(secret []byte, expiry time.Duration) *TokenIssuer {
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &TokenIssuer{secret: secret, expiry: expiry}
}

func (i *TokenIssuer) Issue(actorID string, role domain.ActorRole, enterpriseID string) (string, error) {
	now := time.Now()
	claims := &Claims{
		ActorID:      actorID,
		ActorRole:    role,
		EnterpriseID: enterpriseID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.expiry)),
			Issuer:    "authority-kernel",
			Subject:   actorID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(i.secret)
}

// TokenVerifier validates bearer tokens minted by a TokenIssuer holding
// the same secret.
type TokenVerifier struct {
	secret []byte
}

func NewTokenVerifier(secret []byte) *TokenVerifier {
	return &TokenVerifier{secret: secret}
}

func (v *TokenVerifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, err
	}
	return claims, nil
}

type actorContextKey struct{}

// Actor is the authenticated caller identity, threaded through context by
// the Authenticate middleware so role checks, rate limiting, and handlers
// can identify who is calling.
type Actor struct {
	ActorID      string
	ActorRole    domain.ActorRole
	EnterpriseID string
}

func actorFrom(ctx context.Context) (Actor, bool) {
	a, ok := ctx.Value(actorContextKey{}).(Actor)
	return a, ok
}

func withActor(ctx context.Context, a Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, a)
}

// Authenticate validates the Authorization: Bearer <token> header and
// injects the resulting Actor into the request context. Requests without
// a valid token receive 401 before reaching any handler.
func Authenticate(verifier *TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := strings.TrimSpace(r.Header.Get("Authorization"))
			if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "error": "UNAUTHENTICATED", "message": "bearer token required",
				})
				return
			}
			raw := strings.TrimSpace(header[len("bearer "):])
			claims, err := verifier.Verify(raw)
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "error": "UNAUTHENTICATED", "message": "invalid or expired token",
				})
				return
			}
			ctx := withActor(r.Context(), Actor{ActorID: claims.ActorID, ActorRole: claims.ActorRole, EnterpriseID: claims.EnterpriseID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects requests whose authenticated Actor does not hold
// one of the allowed roles — used for the approve-for-ga command, which
// the spec restricts to CALIBRATION_ADMIN.
func RequireRole(allowed ...domain.ActorRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := actorFrom(r.Context())
			if !ok {
				writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
					"success": false, "error": "UNAUTHENTICATED", "message": "bearer token required",
				})
				return
			}
			for _, role := range allowed {
				if actor.ActorRole == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			writeJSON(w, http.StatusForbidden, map[string]interface{}{
				"success": false, "error": "ROLE_ESCALATION_FORBIDDEN", "message": "actor role not permitted for this action",
			})
		})
	}
}
