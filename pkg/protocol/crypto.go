package protocol

import (
	"crypto/aes"
	"crypto/cipher"
)

// cfb8Stream implements AES-128 in 8-bit cipher-feedback mode: the
// keystream byte for position i is the first byte of
// AES_encrypt(key, shiftRegister), and the shift register then has that
// byte's plaintext (encrypting) or ciphertext (decrypting) appended while
// dropping its oldest byte. This keystream depends on every preceding
// byte on the wire, which is why the two halves of a connection must each
// own an independent stream rather than share one.
//
// crypto/cipher's NewCFBEncrypter/NewCFBDecrypter implement full-block
// (128-bit) feedback, not the 8-bit feedback the Minecraft protocol
// requires; there is no ecosystem package in this pack offering CFB8, so
// it is hand-rolled directly on top of crypto/aes's block primitive.
type cfb8Stream struct {
	block    cipher.Block
	register []byte
	feedback []byte // scratch buffer, reused across calls
}

func newCFB8Stream(key, iv []byte) (*cfb8Stream, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	register := make([]byte, len(iv))
	copy(register, iv)
	return &cfb8Stream{
		block:    block,
		register: register,
		feedback: make([]byte, len(iv)),
	}, nil
}

// encrypt transforms plaintext in place into ciphertext.
func (s *cfb8Stream) encrypt(data []byte) {
	for i, b := range data {
		s.block.Encrypt(s.feedback, s.register)
		c := b ^ s.feedback[0]
		data[i] = c
		s.shift(c)
	}
}

// decrypt transforms ciphertext in place into plaintext.
func (s *cfb8Stream) decrypt(data []byte) {
	for i, c := range data {
		s.block.Encrypt(s.feedback, s.register)
		p := c ^ s.feedback[0]
		data[i] = p
		s.shift(c)
	}
}

func (s *cfb8Stream) shift(fed byte) {
	copy(s.register, s.register[1:])
	s.register[len(s.register)-1] = fed
}
