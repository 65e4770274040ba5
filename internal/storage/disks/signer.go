package disks

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidSignature = errors.New("invalid or expired url signature")

// URLSigner issues and checks the tokens carried by temporary local-disk URLs.
type URLSigner struct {
	secret []byte
}

func NewURLSigner(secret string) *URLSigner {
	return &URLSigner{secret: []byte(secret)}
}

type urlClaims struct {
	Disk string `json:"disk"`
	Path string `json:"path"`
	jwt.RegisteredClaims
}

func (s *URLSigner) Sign(disk, path string, expiresAt time.Time) (string, error) {
	cl := urlClaims{
		Disk: disk,
		Path: path,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, cl).SignedString(s.secret)
}

// Verify checks that token grants access to disk/path right now.
func (s *URLSigner) Verify(disk, path, token string) error {
	var cl urlClaims
	tkn, err := jwt.ParseWithClaims(token, &cl, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil || !tkn.Valid {
		return ErrInvalidSignature
	}
	if cl.Disk != disk || cl.Path != path {
		return ErrInvalidSignature
	}
	return nil
}
