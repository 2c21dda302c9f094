package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/charbel0004/Unishelf-sub000/internal/domain"
)

// Obfuscator turns internal primary keys into opaque, URL-safe tokens and
// back. Clients only ever see the token form.
type Obfuscator interface {
	Encode(id uint64) string
	Decode(token string) (uint64, error)
}

type aesObfuscator struct {
	aead      cipher.AEAD // AES-256-GCM
	nonceSize int
}

var _ Obfuscator = (*aesObfuscator)(nil)

func NewObfuscator(key []byte) (Obfuscator, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("id key must be 32 bytes, got %d", len(key))
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("aes.NewCipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("cipher.NewGCM: %w", err)
	}
	return &aesObfuscator{aead: aead, nonceSize: aead.NonceSize()}, nil
}

// Encode seals the big-endian id as nonce || ciphertext. The nonce is
// random, so the same id encodes to a different token every time.
func (o *aesObfuscator) Encode(id uint64) string {
	var pt [8]byte
	binary.BigEndian.PutUint64(pt[:], id)

	out := make([]byte, o.nonceSize, o.nonceSize+len(pt)+o.aead.Overhead())
	if _, err := io.ReadFull(rand.Reader, out); err != nil {
		// crypto/rand does not fail on supported platforms
		panic(fmt.Sprintf("rand nonce: %v", err))
	}
	out = o.aead.Seal(out, out[:o.nonceSize], pt[:], nil)
	return base64.RawURLEncoding.EncodeToString(out)
}

func (o *aesObfuscator) Decode(token string) (uint64, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return 0, fmt.Errorf("%w: bad encoding", domain.ErrInvalidIdentifier)
	}
	if len(raw) != o.nonceSize+8+o.aead.Overhead() {
		return 0, fmt.Errorf("%w: bad length", domain.ErrInvalidIdentifier)
	}
	pt, err := o.aead.Open(nil, raw[:o.nonceSize], raw[o.nonceSize:], nil)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", domain.ErrInvalidIdentifier, err)
	}
	return binary.BigEndian.Uint64(pt), nil
}

// DecodeOptional resolves an optional token; the empty string yields nil.
func DecodeOptional(o Obfuscator, token string) (*uint64, error) {
	if token == "" {
		return nil, nil
	}
	id, err := o.Decode(token)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
