package storage

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
	hkdfInfo  = "pmdesk session file v1"
)

var sealedMagic = []byte("PMDESK1\n")

var errSealed = errors.New("session file is sealed")

// sealer encrypts the session file with a key derived from a passphrase.
type sealer struct {
	key [keySize]byte
}

func newSealer(secret string) (*sealer, error) {
	s := &sealer{}
	r := hkdf.New(sha256.New, []byte(secret), nil, []byte(hkdfInfo))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive key: %w", err)
	}
	return s, nil
}

func (s *sealer) seal(plain []byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	out := make([]byte, 0, len(sealedMagic)+nonceSize+len(plain)+secretbox.Overhead)
	out = append(out, sealedMagic...)
	out = append(out, nonce[:]...)
	return secretbox.Seal(out, plain, &nonce, &s.key), nil
}

func (s *sealer) open(data []byte) ([]byte, error) {
	if !isSealed(data) {
		return nil, errors.New("session file is not sealed")
	}
	data = data[len(sealedMagic):]
	if len(data) < nonceSize+secretbox.Overhead {
		return nil, errors.New("sealed session file is truncated")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], data[:nonceSize])
	plain, ok := secretbox.Open(nil, data[nonceSize:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("cannot open sealed session file: wrong secret or corrupted data")
	}
	return plain, nil
}

func isSealed(data []byte) bool {
	return bytes.HasPrefix(data, sealedMagic)
}
