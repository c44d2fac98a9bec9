package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"ctchen222/DrawSync/internal/api/models"
	"ctchen222/DrawSync/internal/game"
	"ctchen222/DrawSync/internal/session"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"un"`
	jwt.RegisteredClaims
}

// Issuer signs login tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed HS256 token for the user.
func (i *Issuer) Issue(userID int64, username string) (string, error) {
	now := i.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// UserLookup resolves a user id; a nil user means the account is gone.
type UserLookup interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// Verifier checks tokens issued by Issuer. It satisfies session.TokenVerifier.
type Verifier struct {
	secret []byte
	users  UserLookup
}

var _ session.TokenVerifier = (*Verifier)(nil)

// NewVerifier creates a Verifier. users may be nil, in which case the
// username is taken from the token.
func NewVerifier(secret string, users UserLookup) *Verifier {
	return &Verifier{secret: []byte(secret), users: users}
}

func (v *Verifier) Verify(ctx context.Context, tokenString string) (session.Identity, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return session.Identity{}, fmt.Errorf("%w: %w", game.ErrInvalidToken, err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return session.Identity{}, game.ErrInvalidToken.WithMessage("invalid token subject")
	}
	identity := session.Identity{ID: id, Username: claims.Username}

	if v.users == nil {
		return identity, nil
	}
	user, err := v.users.GetUserByID(ctx, id)
	if err != nil {
		return session.Identity{}, fmt.Errorf("failed to look up user %d: %w", id, err)
	}
	if user == nil {
		return session.Identity{}, errors.Join(game.ErrInvalidToken, fmt.Errorf("user %d no longer exists", id))
	}
	identity.Username = user.Username
	return identity, nil
}
