// Package protocol implements the byte-level primitives, frame codec, and
// typed packet schema for the Minecraft 1.7.x wire protocol (protocol
// number 5).
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

// ErrMalformed is returned when a peer-controlled byte sequence cannot be
// decoded as the primitive being read (e.g. an over-long VarInt).
var ErrMalformed = errors.New("protocol: malformed input")

// ProtocolVersion is the wire protocol number this server speaks
// (Minecraft 1.7.6-1.7.10, "1.7.x").
const ProtocolVersion = 5

// maxVarIntBytes is the longest a 32-bit VarInt can legally be.
const maxVarIntBytes = 5

// ReadVarInt reads a variable-length integer from the reader. Minecraft
// VarInts are little-endian base-128 with a continuation bit, at most 5
// bytes for the 32-bit range. More than 5 continuation bytes is malformed
// input, not merely a large value.
func ReadVarInt(r io.Reader) (int32, int, error) {
	var result int32
	var numRead int
	var buf [1]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, numRead, err
		}
		b := buf[0]
		result |= int32(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > maxVarIntBytes {
			return 0, numRead, fmt.Errorf("%w: VarInt longer than %d bytes", ErrMalformed, maxVarIntBytes)
		}
		if b&0x80 == 0 {
			break
		}
	}
	return result, numRead, nil
}

// WriteVarInt writes a variable-length integer to the writer.
func WriteVarInt(w io.Writer, value int32) (int, error) {
	var buf [maxVarIntBytes]byte
	n := PutVarInt(buf[:], value)
	return w.Write(buf[:n])
}

// PutVarInt encodes value into buf and returns the number of bytes
// written. buf must have room for at least VarIntSize(value) bytes.
func PutVarInt(buf []byte, value int32) int {
	uval := uint32(value)
	n := 0
	for {
		if uval&^uint32(0x7F) == 0 {
			buf[n] = byte(uval)
			return n + 1
		}
		buf[n] = byte(uval&0x7F) | 0x80
		n++
		uval >>= 7
	}
}

// VarIntSize returns the number of bytes needed to encode value as a
// VarInt — always the minimum over all valid encodings.
func VarIntSize(value int32) int {
	uval := uint32(value)
	size := 1
	for uval&^uint32(0x7F) != 0 {
		size++
		uval >>= 7
	}
	return size
}

// ReadVarLong reads a variable-length 64-bit integer, at most 10 bytes.
func ReadVarLong(r io.Reader) (int64, int, error) {
	var result int64
	var numRead int
	var buf [1]byte
	for {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, numRead, err
		}
		b := buf[0]
		result |= int64(b&0x7F) << (7 * numRead)
		numRead++
		if numRead > 10 {
			return 0, numRead, fmt.Errorf("%w: VarLong longer than 10 bytes", ErrMalformed)
		}
		if b&0x80 == 0 {
			break
		}
	}
	return result, numRead, nil
}

// WriteVarLong writes a variable-length 64-bit integer to the writer.
func WriteVarLong(w io.Writer, value int64) (int, error) {
	uval := uint64(value)
	var buf [10]byte
	n := 0
	for {
		if uval&^uint64(0x7F) == 0 {
			buf[n] = byte(uval)
			n++
			break
		}
		buf[n] = byte(uval&0x7F) | 0x80
		n++
		uval >>= 7
	}
	return w.Write(buf[:n])
}

// maxStringBytes bounds a VarInt-prefixed string's UTF-8 byte length: 4
// bytes per UTF-16 code unit is the worst case for a 32767-character chat
// string, matching the vanilla client's own limit.
const maxStringBytes = 32767 * 4

// ReadString reads a VarInt-length-prefixed UTF-8 byte sequence.
func ReadString(r io.Reader) (string, error) {
	length, _, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length < 0 || length > maxStringBytes {
		return "", fmt.Errorf("%w: string length %d out of range", ErrMalformed, length)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// WriteString writes a VarInt-length-prefixed UTF-8 byte sequence.
func WriteString(w io.Writer, s string) error {
	b := []byte(s)
	if _, err := WriteVarInt(w, int32(len(b))); err != nil {
		return err
	}
	_, err := w.Write(b)
	return err
}

// ReadByteArray reads a length-prefixed byte array whose count is encoded
// as an integer of countSize bytes (1, 2, or 4), signed or unsigned.
func ReadByteArray(r io.Reader, countSize int, signed bool) ([]byte, error) {
	count, err := readCount(r, countSize, signed)
	if err != nil {
		return nil, err
	}
	if count < 0 {
		return nil, fmt.Errorf("%w: negative array count %d", ErrMalformed, count)
	}
	buf := make([]byte, count)
	if count > 0 {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
	}
	return buf, nil
}

// WriteByteArray writes data prefixed by its length, encoded as described
// for ReadByteArray.
func WriteByteArray(w io.Writer, countSize int, signed bool, data []byte) error {
	if err := writeCount(w, countSize, signed, int64(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readCount(r io.Reader, countSize int, signed bool) (int64, error) {
	switch countSize {
	case 1:
		b, err := ReadByte(r)
		if err != nil {
			return 0, err
		}
		if signed {
			return int64(int8(b)), nil
		}
		return int64(b), nil
	case 2:
		v, err := ReadUint16(r)
		if err != nil {
			return 0, err
		}
		if signed {
			return int64(int16(v)), nil
		}
		return int64(v), nil
	case 4:
		v, err := ReadInt32(r)
		if err != nil {
			return 0, err
		}
		if signed {
			return int64(v), nil
		}
		return int64(uint32(v)), nil
	default:
		return 0, fmt.Errorf("protocol: unsupported count size %d", countSize)
	}
}

func writeCount(w io.Writer, countSize int, _ bool, count int64) error {
	switch countSize {
	case 1:
		return WriteByte(w, byte(count))
	case 2:
		return WriteUint16(w, uint16(count))
	case 4:
		return WriteInt32(w, int32(count))
	default:
		return fmt.Errorf("protocol: unsupported count size %d", countSize)
	}
}

// ReadUint16 reads a big-endian unsigned 16-bit integer.
func ReadUint16(r io.Reader) (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(buf[:]), nil
}

// WriteUint16 writes a big-endian unsigned 16-bit integer.
func WriteUint16(w io.Writer, v uint16) error {
	var buf [2]byte
	binary.BigEndian.PutUint16(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

// ReadInt16 reads a big-endian signed 16-bit integer.
func ReadInt16(r io.Reader) (int16, error) {
	v, err := ReadUint16(r)
	return int16(v), err
}

// WriteInt16 writes a big-endian signed 16-bit integer.
func WriteInt16(w io.Writer, v int16) error {
	return WriteUint16(w, uint16(v))
}

// ReadInt8 reads a signed 8-bit integer.
func ReadInt8(r io.Reader) (int8, error) {
	b, err := ReadByte(r)
	return int8(b), err
}

// WriteInt8 writes a signed 8-bit integer.
func WriteInt8(w io.Writer, v int8) error {
	return WriteByte(w, byte(v))
}

// ReadInt32 reads a big-endian signed 32-bit integer.
func ReadInt32(r io.Reader) (int32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteInt32 writes a big-endian signed 32-bit integer.
func WriteInt32(w io.Writer, v int32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], uint32(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadInt64 reads a big-endian signed 64-bit integer.
func ReadInt64(r io.Reader) (int64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteInt64 writes a big-endian signed 64-bit integer.
func WriteInt64(w io.Writer, v int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadFloat32 reads a big-endian IEEE-754 32-bit float.
func ReadFloat32(r io.Reader) (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(buf[:])), nil
}

// WriteFloat32 writes a big-endian IEEE-754 32-bit float.
func WriteFloat32(w io.Writer, v float32) error {
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], math.Float32bits(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadFloat64 reads a big-endian IEEE-754 64-bit float.
func ReadFloat64(r io.Reader) (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.BigEndian.Uint64(buf[:])), nil
}

// WriteFloat64 writes a big-endian IEEE-754 64-bit float.
func WriteFloat64(w io.Writer, v float64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], math.Float64bits(v))
	_, err := w.Write(buf[:])
	return err
}

// ReadBool reads a boolean byte (0x00/0x01).
func ReadBool(r io.Reader) (bool, error) {
	b, err := ReadByte(r)
	return b != 0, err
}

// WriteBool writes a boolean byte.
func WriteBool(w io.Writer, v bool) error {
	if v {
		return WriteByte(w, 1)
	}
	return WriteByte(w, 0)
}

// ReadByte reads a single byte.
func ReadByte(r io.Reader) (byte, error) {
	var buf [1]byte
	_, err := io.ReadFull(r, buf[:])
	return buf[0], err
}

// WriteByte writes a single byte.
func WriteByte(w io.Writer, v byte) error {
	_, err := w.Write([]byte{v})
	return err
}

// ReadBlockPosition reads a 1.7.x block position: three raw big-endian
// int32 fields. (The packed single-int64 position is an 1.8+ idiom and
// does not apply to protocol v5.)
func ReadBlockPosition(r io.Reader) (x, y, z int32, err error) {
	if x, err = ReadInt32(r); err != nil {
		return
	}
	if y, err = ReadInt32(r); err != nil {
		return
	}
	z, err = ReadInt32(r)
	return
}

// WriteBlockPosition writes a 1.7.x block position.
func WriteBlockPosition(w io.Writer, x, y, z int32) error {
	if err := WriteInt32(w, x); err != nil {
		return err
	}
	if err := WriteInt32(w, y); err != nil {
		return err
	}
	return WriteInt32(w, z)
}

// EncodeFixed converts a float coordinate to the 1.7.x fixed-point wire
// representation: floor(x * 32).
func EncodeFixed(x float64) int32 {
	return int32(math.Floor(x * 32))
}

// DecodeFixed converts a fixed-point wire value back to a float coordinate.
func DecodeFixed(fx int32) float64 {
	return float64(fx) / 32
}

// EncodeAngle converts a degree angle to the wire's single-byte rotation
// fraction: floor(angle * 256 / 360).
func EncodeAngle(angle float32) byte {
	return byte(int32(math.Floor(float64(angle) * 256 / 360)))
}

// DecodeAngle converts a wire rotation fraction back to a degree angle.
func DecodeAngle(rot byte) float32 {
	return float32(rot) * 360 / 256
}

// NibbleVec is a packed array of 4-bit values, two nibbles per byte with
// the low nibble at the even index.
type NibbleVec []byte

// NewNibbleVec allocates a NibbleVec able to hold n nibbles.
func NewNibbleVec(n int) NibbleVec {
	return make(NibbleVec, (n+1)/2)
}

// Get returns the nibble at index i.
func (v NibbleVec) Get(i int) byte {
	b := v[i/2]
	if i%2 == 0 {
		return b & 0x0F
	}
	return b >> 4
}

// Set stores the low 4 bits of value at index i.
func (v NibbleVec) Set(i int, value byte) {
	value &= 0x0F
	if i%2 == 0 {
		v[i/2] = (v[i/2] &^ 0x0F) | value
	} else {
		v[i/2] = (v[i/2] &^ 0xF0) | (value << 4)
	}
}
