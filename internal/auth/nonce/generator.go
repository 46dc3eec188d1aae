package nonce

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	"github.com/mr-tron/base58"

	"siwf/internal/port"
)

const defaultSize = 16

// Generator produces base58-encoded random nonces. Base58 keeps nonces
// alphanumeric, which sign-in message formats require.
type Generator struct {
	size   int
	random io.Reader
}

// NewGenerator creates a Generator reading 16 bytes from crypto/rand per nonce.
func NewGenerator() *Generator {
	return &Generator{size: defaultSize, random: rand.Reader}
}

// NewGeneratorFrom creates a Generator reading size bytes from r per nonce.
func NewGeneratorFrom(r io.Reader, size int) *Generator {
	if size <= 0 {
		size = defaultSize
	}
	return &Generator{size: size, random: r}
}

func (g *Generator) Generate(_ context.Context) (string, error) {
	buf := make([]byte, g.size)
	if _, err := io.ReadFull(g.random, buf); err != nil {
		return "", fmt.Errorf("reading nonce entropy: %w", err)
	}
	return base58.Encode(buf), nil
}

// Compile-time check.
var _ port.NonceGenerator = (*Generator)(nil)
