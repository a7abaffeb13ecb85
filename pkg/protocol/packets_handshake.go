package protocol

import "bytes"

// NextState is the handshake packet's declared intent for the
// connection's next state.
type NextState int32

const (
	NextStatus NextState = 1
	NextLogin  NextState = 2
)

// Handshake is the sole HANDSHAKE-state, server-bound packet (id 0x00).
// Every connection begins with exactly one of these.
type Handshake struct {
	ProtocolVersion int32
	ServerAddress   string
	ServerPort      uint16
	NextState       NextState
}

const idHandshake = 0x00

// DecodeHandshake decodes a Handshake packet body.
func DecodeHandshake(data []byte) (*Handshake, error) {
	r := bytes.NewReader(data)
	var h Handshake
	var err error
	if h.ProtocolVersion, _, err = ReadVarInt(r); err != nil {
		return nil, err
	}
	if h.ServerAddress, err = ReadString(r); err != nil {
		return nil, err
	}
	if h.ServerPort, err = ReadUint16(r); err != nil {
		return nil, err
	}
	next, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	h.NextState = NextState(next)
	return &h, nil
}

// Encode serializes h into a frame-ready Packet.
func (h *Handshake) Encode() *Packet {
	return MarshalPacket(idHandshake, func(w *bytes.Buffer) {
		WriteVarInt(w, h.ProtocolVersion)
		WriteString(w, h.ServerAddress)
		WriteUint16(w, h.ServerPort)
		WriteVarInt(w, int32(h.NextState))
	})
}
