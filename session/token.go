package session

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrInvalidToken = errors.New("invalid court token")

const (
	claimCourtID = "court_id"
	claimPin     = "pin"
	claimName    = "name"
	claimRole    = "role"
	roleReferee  = "referee"
)

// Codec signs bindings into bearer tokens. Tokens carry no exp claim.
type Codec struct {
	secret []byte
}

func NewCodec(secret string) *Codec {
	return &Codec{secret: []byte(secret)}
}

func (c *Codec) Sign(b Binding) (string, error) {
	claims := jwt.MapClaims{
		claimCourtID: b.CourtID,
		claimPin:     b.Pin,
		claimName:    b.Name,
		claimRole:    roleReferee,
		"iat":        b.BoundAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign court token: %w", err)
	}
	return signed, nil
}

func (c *Codec) Parse(tokenString string) (Binding, error) {
	parser := jwt.Parser{ValidMethods: []string{jwt.SigningMethodHS256.Alg()}}
	claims := jwt.MapClaims{}
	_, err := parser.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return Binding{}, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if role, _ := claims[claimRole].(string); role != roleReferee {
		return Binding{}, fmt.Errorf("%w: wrong role", ErrInvalidToken)
	}

	b := Binding{Token: tokenString}
	b.CourtID, _ = claims[claimCourtID].(string)
	b.Pin, _ = claims[claimPin].(string)
	b.Name, _ = claims[claimName].(string)
	if iat, ok := claims["iat"].(float64); ok {
		b.BoundAt = time.Unix(int64(iat), 0).UTC()
	}
	if b.CourtID == "" || b.Pin == "" {
		return Binding{}, fmt.Errorf("%w: missing court claims", ErrInvalidToken)
	}
	return b, nil
}
