package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/bingo/internal/model"
)

const tokenIssuer = "bingo"

// sessionIDLength はhexエンコード済みセッションIDの長さ。
const sessionIDLength = 64

// sessionClaims はセッションCookieに載せるクレーム。
// 独自クレームはセッションIDのみで、ユーザー情報は含めない。
type sessionClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// TokenCodec はセッションIDをHS256署名付きトークンに変換する。
type TokenCodec struct {
	secret []byte
	now    func() time.Time
}

// NewTokenCodec はTokenCodecを生成する。
func NewTokenCodec(secret string) *TokenCodec {
	return &TokenCodec{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Encode はセッションの有効期限をexpに持つトークンを生成する。
func (c *TokenCodec) Encode(session *model.Session) (string, error) {
	claims := sessionClaims{
		SessionID: session.ID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(c.now()),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// Decode はトークンを検証してセッションIDを返す。
// 署名、アルゴリズム、有効期限、セッションIDの形式のいずれかが不正な場合は
// model.ErrMalformedSessionTokenをラップしたエラーを返す。
func (c *TokenCodec) Decode(token string) (string, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(*jwt.Token) (any, error) {
		return c.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(c.now),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %w", model.ErrMalformedSessionToken, err)
	}

	if !validSessionID(claims.SessionID) {
		return "", fmt.Errorf("%w: invalid session id", model.ErrMalformedSessionToken)
	}
	return claims.SessionID, nil
}

// validSessionID はセッションIDが小文字hex64文字であるかを返す。
func validSessionID(id string) bool {
	if len(id) != sessionIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
