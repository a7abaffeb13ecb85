package protocol

import "bytes"

// LoginStart is the LOGIN-state, server-bound packet that starts the
// handshake's login branch (id 0x00).
type LoginStart struct {
	Name string
}

const idLoginStart = 0x00

// DecodeLoginStart decodes a LoginStart packet body.
func DecodeLoginStart(data []byte) (*LoginStart, error) {
	r := bytes.NewReader(data)
	name, err := ReadString(r)
	if err != nil {
		return nil, err
	}
	return &LoginStart{Name: name}, nil
}

// EncryptionRequest is the LOGIN-state, client-bound packet that
// initiates the encryption handshake (id 0x01). ServerID is always the
// empty string in this server's auth flow (the session-server join
// mechanism doesn't use it beyond the auth hash).
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte // DER-encoded RSA public key
	VerifyToken []byte // 4 random bytes
}

const idEncryptionRequestResponse = 0x01

// Encode serializes r into a frame-ready Packet.
func (r *EncryptionRequest) Encode() *Packet {
	return MarshalPacket(idEncryptionRequestResponse, func(w *bytes.Buffer) {
		WriteString(w, r.ServerID)
		WriteByteArray(w, 2, true, r.PublicKey)
		WriteByteArray(w, 2, true, r.VerifyToken)
	})
}

// EncryptionResponse is the LOGIN-state, server-bound reply (id 0x01),
// both fields RSA/PKCS#1v1.5-encrypted under the server's public key.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

// DecodeEncryptionResponse decodes an EncryptionResponse packet body.
func DecodeEncryptionResponse(data []byte) (*EncryptionResponse, error) {
	r := bytes.NewReader(data)
	secret, err := ReadByteArray(r, 2, true)
	if err != nil {
		return nil, err
	}
	token, err := ReadByteArray(r, 2, true)
	if err != nil {
		return nil, err
	}
	return &EncryptionResponse{SharedSecret: secret, VerifyToken: token}, nil
}

// LoginDisconnect is the LOGIN-state, client-bound packet used to reject
// a connecting client with a human-readable reason (id 0x00).
type LoginDisconnect struct {
	JSONReason string
}

const idLoginDisconnect = 0x00

// Encode serializes d into a frame-ready Packet.
func (d *LoginDisconnect) Encode() *Packet {
	return MarshalPacket(idLoginDisconnect, func(w *bytes.Buffer) {
		WriteString(w, d.JSONReason)
	})
}

// LoginSuccess is the LOGIN-state, client-bound packet that completes the
// handshake and moves the connection to PLAY (id 0x02).
type LoginSuccess struct {
	UUID     string
	Username string
}

const idLoginSuccess = 0x02

// Encode serializes s into a frame-ready Packet.
func (s *LoginSuccess) Encode() *Packet {
	return MarshalPacket(idLoginSuccess, func(w *bytes.Buffer) {
		WriteString(w, s.UUID)
		WriteString(w, s.Username)
	})
}
