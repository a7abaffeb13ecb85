package protocol

import "bytes"

// StatusRequest is the STATUS-state, server-bound ping packet (id 0x00).
// It carries no fields.
type StatusRequest struct{}

const idStatusRequest = 0x00

// DecodeStatusRequest decodes a (trivially empty) StatusRequest body.
func DecodeStatusRequest(_ []byte) (*StatusRequest, error) {
	return &StatusRequest{}, nil
}

// StatusResponse is the STATUS-state, client-bound reply (id 0x00),
// carrying the server list ping's JSON payload.
type StatusResponse struct {
	JSON string
}

// Encode serializes r into a frame-ready Packet.
func (r *StatusResponse) Encode() *Packet {
	return MarshalPacket(idStatusRequest, func(w *bytes.Buffer) {
		WriteString(w, r.JSON)
	})
}

// StatusPing carries an opaque payload the server must echo back
// unchanged, used on both directions of the STATUS state (id 0x01).
type StatusPing struct {
	Payload int64
}

const idStatusPing = 0x01

// DecodeStatusPing decodes a StatusPing body.
func DecodeStatusPing(data []byte) (*StatusPing, error) {
	r := bytes.NewReader(data)
	payload, err := ReadInt64(r)
	if err != nil {
		return nil, err
	}
	return &StatusPing{Payload: payload}, nil
}

// Encode serializes p into a frame-ready Packet.
func (p *StatusPing) Encode() *Packet {
	return MarshalPacket(idStatusPing, func(w *bytes.Buffer) {
		WriteInt64(w, p.Payload)
	})
}
