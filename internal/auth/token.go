// Package auth は資格情報（JWT）の発行・検証とアカウント管理を提供する。
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/rentlify/internal/model"
)

// ErrInvalidToken は資格情報の検証失敗を表す。
// 欠落・署名不正・期限切れ・アルゴリズム不一致をすべてこのエラーに畳み込む。
// 失敗理由の区別は呼び出し側に公開しない（fail closed）。
var ErrInvalidToken = errors.New("invalid token")

// Claims はJWTトークンのクレーム（ペイロード）を表す。
// subjectにはユーザーID、roleには検証済みロールを格納する。
type Claims struct {
	jwt.RegisteredClaims
	Role model.Role `json:"role"`
}

// IssueToken は(subject, role)に対するHS256署名付きトークンを発行する。
// nowを基準にiat/expを設定する。
func IssueToken(secret, subject string, role model.Role, ttl time.Duration, now time.Time) (string, error) {
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", err
	}
	return signed, nil
}

// VerifyToken はトークンの署名と有効期限をnow基準で検証し、Identityを返す。
// 純粋関数: (token, secret, now) → (Identity, error)。トランスポート層に依存しない。
// いかなる検証失敗もErrInvalidTokenとして返す。
func VerifyToken(tokenString, secret string, now time.Time) (*model.Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(_ *jwt.Token) (any, error) {
			return []byte(secret), nil
		},
		// HS256以外の署名アルゴリズム（none含む）を拒否する
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return now }),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Subject == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	identity := &model.Identity{
		Subject: claims.Subject,
		Role:    claims.Role,
	}
	if claims.IssuedAt != nil {
		identity.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		identity.ExpireAt = claims.ExpiresAt.Time
	}

	return identity, nil
}
