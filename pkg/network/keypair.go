package network

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"fmt"
)

// ServerKey is the server's long-lived RSA keypair used for the
// encryption handshake, generated once at startup.
type ServerKey struct {
	Private *rsa.PrivateKey
	PubDER  []byte
}

// NewServerKey generates a fresh 1024-bit RSA keypair, the size
// vanilla 1.7.x clients expect for the EncryptionRequest public key.
func NewServerKey() (*ServerKey, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 1024)
	if err != nil {
		return nil, fmt.Errorf("network: generate server key: %w", err)
	}
	der, err := x509.MarshalPKIXPublicKey(&priv.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("network: marshal server public key: %w", err)
	}
	return &ServerKey{Private: priv, PubDER: der}, nil
}

// Decrypt reverses the client's PKCS#1v1.5 RSA encryption of the
// shared secret or verify token.
func (k *ServerKey) Decrypt(ciphertext []byte) ([]byte, error) {
	return rsa.DecryptPKCS1v15(rand.Reader, k.Private, ciphertext)
}
