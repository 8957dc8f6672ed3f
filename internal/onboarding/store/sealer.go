package store

import (
	"context"
	"crypto/cipher"
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"

	"kycflow/pkg/platform/sentinel"
)

// Sealer encrypts persisted values with XChaCha20-Poly1305. The session ID
// and key are bound as associated data, so a value copied to another slot
// fails to open.
type Sealer struct {
	aead cipher.AEAD
}

func NewSealer(key []byte) (*Sealer, error) {
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, fmt.Errorf("seal key: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

func (s *Sealer) Seal(sessionID, key string, plaintext []byte) ([]byte, error) {
	nonce := make([]byte, s.aead.NonceSize(), s.aead.NonceSize()+len(plaintext)+s.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("nonce: %w", err)
	}
	return s.aead.Seal(nonce, nonce, plaintext, associated(sessionID, key)), nil
}

func (s *Sealer) Open(sessionID, key string, sealed []byte) ([]byte, error) {
	if len(sealed) < s.aead.NonceSize() {
		return nil, sentinel.ErrCorrupt
	}
	nonce, ciphertext := sealed[:s.aead.NonceSize()], sealed[s.aead.NonceSize():]
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, associated(sessionID, key))
	if err != nil {
		return nil, errors.Join(err, sentinel.ErrCorrupt)
	}
	return plaintext, nil
}

func associated(sessionID, key string) []byte {
	return []byte(sessionID + "\x00" + key)
}

// SealedStore encrypts values on the way into an underlying Store and opens
// them on the way out.
type SealedStore struct {
	inner  Store
	sealer *Sealer
}

func NewSealedStore(inner Store, sealer *Sealer) *SealedStore {
	return &SealedStore{inner: inner, sealer: sealer}
}

func (s *SealedStore) Get(ctx context.Context, sessionID, key string) ([]byte, error) {
	sealed, err := s.inner.Get(ctx, sessionID, key)
	if err != nil {
		return nil, err
	}
	return s.sealer.Open(sessionID, key, sealed)
}

func (s *SealedStore) GetAll(ctx context.Context, sessionID string) (map[string][]byte, error) {
	all, err := s.inner.GetAll(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]byte, len(all))
	for key, sealed := range all {
		plaintext, err := s.sealer.Open(sessionID, key, sealed)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", key, err)
		}
		out[key] = plaintext
	}
	return out, nil
}

func (s *SealedStore) Put(ctx context.Context, sessionID, key string, value []byte) error {
	sealed, err := s.sealer.Seal(sessionID, key, value)
	if err != nil {
		return err
	}
	return s.inner.Put(ctx, sessionID, key, sealed)
}

func (s *SealedStore) Delete(ctx context.Context, sessionID string) error {
	return s.inner.Delete(ctx, sessionID)
}
