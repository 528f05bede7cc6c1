package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrTokenInvalid covers malformed or tampered download tokens.
	ErrTokenInvalid = errors.New("storage: invalid download token")
	// ErrTokenExpired is returned for well-formed tokens past their expiry.
	ErrTokenExpired = errors.New("storage: download token expired")
)

// SignedLink is the content of a download token.
type SignedLink struct {
	Token     string
	OwnerID   string
	Path      string
	ExpiresAt time.Time
}

// Signer issues HMAC-SHA256 download tokens of the form
// owner.expiry.base64(path).signature.
type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner constructs a signer; ttl defaults to 24h.
func NewSigner(secret string, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// TTL returns the lifetime of issued tokens.
func (s *Signer) TTL() time.Duration {
	return s.ttl
}

// Sign issues a token binding ownerID to path.
func (s *Signer) Sign(ownerID, path string) (SignedLink, error) {
	if ownerID == "" || path == "" {
		return SignedLink{}, fmt.Errorf("owner id and path required")
	}
	if strings.Contains(ownerID, ".") {
		return SignedLink{}, fmt.Errorf("owner id must not contain '.'")
	}
	if len(s.secret) == 0 {
		return SignedLink{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := s.now().Add(s.ttl).UTC().Truncate(time.Second)
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(path))
	token := strings.Join([]string{ownerID, exp, encodedPath, s.sign(ownerID, exp, encodedPath)}, ".")
	return SignedLink{Token: token, OwnerID: ownerID, Path: path, ExpiresAt: expiresAt}, nil
}

// Verify checks the signature and, unless allowExpired is set, the expiry.
func (s *Signer) Verify(token string, allowExpired bool) (SignedLink, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return SignedLink{}, ErrTokenInvalid
	}
	ownerID, exp, encodedPath, signature := parts[0], parts[1], parts[2], parts[3]
	if !hmac.Equal([]byte(s.sign(ownerID, exp, encodedPath)), []byte(signature)) {
		return SignedLink{}, ErrTokenInvalid
	}
	unix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return SignedLink{}, ErrTokenInvalid
	}
	path, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return SignedLink{}, ErrTokenInvalid
	}
	link := SignedLink{Token: token, OwnerID: ownerID, Path: string(path), ExpiresAt: time.Unix(unix, 0).UTC()}
	if !allowExpired && s.now().After(link.ExpiresAt) {
		return link, ErrTokenExpired
	}
	return link, nil
}

func (s *Signer) sign(ownerID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(ownerID + "|" + exp + "|" + encodedPath))
	return hex.EncodeToString(mac.Sum(nil))
}
