package protocol

import (
	"bytes"
	"fmt"
)

// Codec is one direction (read or write) of a connection's framed,
// optionally-encrypted byte stream. The two halves of a connection never
// share a Codec: their CFB8 keystreams are independent, so mixing them
// would desynchronize both.
//
// AcceptData/TryReadPacket form the read-side contract: AcceptData
// appends newly-arrived bytes (decrypting them in place if encryption is
// enabled) to an internal buffer, and TryReadPacket pulls one complete
// frame off the front of that buffer if one is present. This lets a
// non-blocking socket reader feed the codec arbitrary, partial chunks and
// still get packets out exactly at frame boundaries.
type Codec struct {
	recvBuf    []byte
	recvCursor int // recvBuf[:recvCursor] is already consumed; recvBuf[recvCursor:] is decrypted but not yet consumed

	encrypted bool
	reader    *cfb8Stream
	writer    *cfb8Stream
}

// NewCodec returns an unencrypted Codec.
func NewCodec() *Codec {
	return &Codec{}
}

// EnableEncryption switches both directions of this codec to AES-128-CFB8
// using secret as both key and iv, per the 1.7.x encryption handshake.
// Only bytes accepted/written after this call are affected.
func (c *Codec) EnableEncryption(secret []byte) error {
	r, err := newCFB8Stream(secret, secret)
	if err != nil {
		return err
	}
	w, err := newCFB8Stream(secret, secret)
	if err != nil {
		return err
	}
	c.reader = r
	c.writer = w
	c.encrypted = true
	return nil
}

// AcceptData appends data to the codec's receive buffer, decrypting it in
// place first if encryption is enabled.
func (c *Codec) AcceptData(data []byte) {
	if len(data) == 0 {
		return
	}
	start := len(c.recvBuf)
	c.recvBuf = append(c.recvBuf, data...)
	if c.encrypted {
		c.reader.decrypt(c.recvBuf[start:])
	}
}

// TryReadPacket returns one decoded packet and true if a full frame is
// present in the receive buffer, consuming exactly that frame's bytes.
// It returns (nil, false, nil) if more data is needed, and a non-nil
// error only for malformed framing (never for "not enough data yet").
func (c *Codec) TryReadPacket() (*Packet, bool, error) {
	buf := c.recvBuf[c.recvCursor:]
	length, lenSize, needMore, err := peekVarInt(buf)
	if err != nil {
		return nil, false, err
	}
	if needMore {
		return nil, false, nil
	}
	if length < 1 {
		return nil, false, fmt.Errorf("%w: packet length %d too small", ErrMalformed, length)
	}
	if length > maxFrameLength {
		return nil, false, fmt.Errorf("%w: packet length %d too large", ErrMalformed, length)
	}
	total := lenSize + int(length)
	if len(buf) < total {
		return nil, false, nil
	}

	payload := buf[lenSize:total]
	pr := bytes.NewReader(payload)
	id, idLen, err := ReadVarInt(pr)
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	data := make([]byte, len(payload)-idLen)
	copy(data, payload[idLen:])

	c.recvCursor += total
	c.compact()

	return &Packet{ID: id, Data: data}, true, nil
}

// compact drops fully-consumed bytes from the front of recvBuf once
// they're no longer needed, bounding the buffer's growth across a long
// connection lifetime.
func (c *Codec) compact() {
	if c.recvCursor == 0 {
		return
	}
	if c.recvCursor == len(c.recvBuf) {
		c.recvBuf = c.recvBuf[:0]
		c.recvCursor = 0
		return
	}
	// Only bother compacting once the consumed prefix reaches 4096 bytes.
	if c.recvCursor < 4096 {
		return
	}
	remaining := len(c.recvBuf) - c.recvCursor
	copy(c.recvBuf, c.recvBuf[c.recvCursor:])
	c.recvBuf = c.recvBuf[:remaining]
	c.recvCursor = 0
}

// WritePacket serializes p into a fresh frame, appends it to out, and
// encrypts the appended range in place if encryption is enabled.
func (c *Codec) WritePacket(p *Packet, out *bytes.Buffer) error {
	idSize := VarIntSize(p.ID)
	totalLen := int32(idSize + len(p.Data))

	start := out.Len()
	WriteVarInt(out, totalLen)
	WriteVarInt(out, p.ID)
	out.Write(p.Data)

	if c.encrypted {
		b := out.Bytes()[start:]
		c.writer.encrypt(b)
	}
	return nil
}

// peekVarInt reads a VarInt from the front of buf without consuming it.
// needMore is true when buf doesn't yet hold enough bytes to tell; err is
// non-nil when buf already holds 5 continuation bytes with no terminator,
// which no amount of further data can fix.
func peekVarInt(buf []byte) (value int32, size int, needMore bool, err error) {
	var result int32
	for i := 0; i < maxVarIntBytes; i++ {
		if i >= len(buf) {
			return 0, 0, true, nil
		}
		b := buf[i]
		result |= int32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return result, i + 1, false, nil
		}
	}
	return 0, 0, false, fmt.Errorf("%w: VarInt longer than %d bytes", ErrMalformed, maxVarIntBytes)
}
