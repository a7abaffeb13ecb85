package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// ConnState is one of the four protocol states a connection moves
// through. Each state has an independent client-bound and server-bound
// id space; there is no on-the-wire state byte, the state is driven
// purely by which packets have been exchanged.
type ConnState int

const (
	StateHandshake ConnState = iota
	StateStatus
	StateLogin
	StatePlay
)

func (s ConnState) String() string {
	switch s {
	case StateHandshake:
		return "handshake"
	case StateStatus:
		return "status"
	case StateLogin:
		return "login"
	case StatePlay:
		return "play"
	default:
		return fmt.Sprintf("ConnState(%d)", int(s))
	}
}

// Direction distinguishes client-bound (server -> client) from
// server-bound (client -> server) packets, each with its own id space.
type Direction int

const (
	Serverbound Direction = iota
	Clientbound
)

// maxFrameLength bounds a single frame's declared payload length. Vanilla
// 1.7.x clients never send a frame anywhere near this size; it exists to
// reject a corrupt or hostile length prefix before allocating for it.
const maxFrameLength = 2 * 1024 * 1024

// Packet is a decoded frame: a packet id plus its still-encoded body.
// Typed packet values in this package marshal to/from a Packet's Data via
// the codecs in packets_*.go.
type Packet struct {
	ID   int32
	Data []byte
}

// ReadPacket reads one complete, unencrypted frame from r: a VarInt
// length, then that many bytes whose first VarInt is the packet id.
// ReadPacket always consumes exactly the bytes of one frame, or returns
// an error reflecting the underlying reader's error or a malformed
// length.
func ReadPacket(r io.Reader) (*Packet, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 1 {
		return nil, fmt.Errorf("%w: packet length %d too small", ErrMalformed, length)
	}
	if length > maxFrameLength {
		return nil, fmt.Errorf("%w: packet length %d too large", ErrMalformed, length)
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}

	pr := bytes.NewReader(payload)
	packetID, idLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, err
	}

	return &Packet{ID: packetID, Data: payload[idLen:]}, nil
}

// WritePacket serializes p as one length-prefixed frame and writes it to
// w in a single call.
func WritePacket(w io.Writer, p *Packet) error {
	idSize := VarIntSize(p.ID)
	totalLen := int32(idSize + len(p.Data))

	buf := bytes.NewBuffer(make([]byte, 0, VarIntSize(totalLen)+int(totalLen)))
	WriteVarInt(buf, totalLen)
	WriteVarInt(buf, p.ID)
	buf.Write(p.Data)

	_, err := w.Write(buf.Bytes())
	return err
}

// MarshalPacket builds a Packet's Data via builder and tags it with id.
func MarshalPacket(id int32, builder func(w *bytes.Buffer)) *Packet {
	var buf bytes.Buffer
	builder(&buf)
	return &Packet{ID: id, Data: buf.Bytes()}
}
