package protocol

import "bytes"

// --- Server-bound PLAY packets -------------------------------------------

// KeepAlive is exchanged on both directions of PLAY (id 0x00) as the
// server's sole liveness check.
type KeepAlive struct {
	ID int32
}

const idKeepAlive = 0x00

// DecodeKeepAlive decodes a KeepAlive packet body.
func DecodeKeepAlive(data []byte) (*KeepAlive, error) {
	r := bytes.NewReader(data)
	id, err := ReadInt32(r)
	if err != nil {
		return nil, err
	}
	return &KeepAlive{ID: id}, nil
}

// Encode serializes k into a frame-ready Packet.
func (k *KeepAlive) Encode() *Packet {
	return MarshalPacket(idKeepAlive, func(w *bytes.Buffer) {
		WriteInt32(w, k.ID)
	})
}

// Player is the server-bound ground-state ping (id 0x03).
type Player struct {
	OnGround bool
}

const idPlayer = 0x03

// DecodePlayer decodes a Player packet body.
func DecodePlayer(data []byte) (*Player, error) {
	r := bytes.NewReader(data)
	onGround, err := ReadBool(r)
	if err != nil {
		return nil, err
	}
	return &Player{OnGround: onGround}, nil
}

// PlayerPosition is the server-bound position update (id 0x04). FeetY and
// HeadY both arrive on the wire; only FeetY is the player's true Y — the
// gap is the "stance" the vanilla client sends and this server ignores
// beyond round-tripping it.
type PlayerPosition struct {
	X, FeetY, HeadY, Z float64
	OnGround           bool
}

const idPlayerPosition = 0x04

// DecodePlayerPosition decodes a PlayerPosition packet body.
func DecodePlayerPosition(data []byte) (*PlayerPosition, error) {
	r := bytes.NewReader(data)
	var p PlayerPosition
	var err error
	if p.X, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.FeetY, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.HeadY, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.Z, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.OnGround, err = ReadBool(r); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlayerLook is the server-bound look update (id 0x05).
type PlayerLook struct {
	Yaw, Pitch float32
	OnGround   bool
}

const idPlayerLook = 0x05

// DecodePlayerLook decodes a PlayerLook packet body.
func DecodePlayerLook(data []byte) (*PlayerLook, error) {
	r := bytes.NewReader(data)
	var p PlayerLook
	var err error
	if p.Yaw, err = ReadFloat32(r); err != nil {
		return nil, err
	}
	if p.Pitch, err = ReadFloat32(r); err != nil {
		return nil, err
	}
	if p.OnGround, err = ReadBool(r); err != nil {
		return nil, err
	}
	return &p, nil
}

// PlayerPosAndLook is the server-bound combined update (id 0x06).
type PlayerPosAndLook struct {
	X, FeetY, HeadY, Z float64
	Yaw, Pitch         float32
	OnGround           bool
}

const idPlayerPosAndLookServerbound = 0x06

// DecodePlayerPosAndLook decodes a server-bound PlayerPosAndLook body.
func DecodePlayerPosAndLook(data []byte) (*PlayerPosAndLook, error) {
	r := bytes.NewReader(data)
	var p PlayerPosAndLook
	var err error
	if p.X, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.FeetY, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.HeadY, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.Z, err = ReadFloat64(r); err != nil {
		return nil, err
	}
	if p.Yaw, err = ReadFloat32(r); err != nil {
		return nil, err
	}
	if p.Pitch, err = ReadFloat32(r); err != nil {
		return nil, err
	}
	if p.OnGround, err = ReadBool(r); err != nil {
		return nil, err
	}
	return &p, nil
}

// ClientSettings is the server-bound locale/view-distance announcement
// (id 0x15). Only the locale and view distance are decoded; the rest of
// the vanilla payload (chat flags, chat colours, skin parts) is left
// unread since it's presentation data, not design.
type ClientSettings struct {
	Locale       string
	ViewDistance int8
}

const idClientSettings = 0x15

// DecodeClientSettings decodes a ClientSettings packet body.
func DecodeClientSettings(data []byte) (*ClientSettings, error) {
	r := bytes.NewReader(data)
	var c ClientSettings
	var err error
	if c.Locale, err = ReadString(r); err != nil {
		return nil, err
	}
	if c.ViewDistance, err = ReadInt8(r); err != nil {
		return nil, err
	}
	// chatFlags:i8, chatColors:bool, skinParts:u8 follow; ignored.
	return &c, nil
}

// --- Client-bound PLAY packets --------------------------------------------

// JoinGame is the client-bound packet sent once per connection right
// after login completes (id 0x01).
type JoinGame struct {
	EntityID     int32
	GameMode     byte
	Dimension    int8
	Difficulty   byte
	MaxPlayers   byte
	LevelType    string
}

const idJoinGame = 0x01

// Encode serializes j into a frame-ready Packet.
func (j *JoinGame) Encode() *Packet {
	return MarshalPacket(idJoinGame, func(w *bytes.Buffer) {
		WriteInt32(w, j.EntityID)
		WriteByte(w, j.GameMode)
		WriteInt8(w, j.Dimension)
		WriteByte(w, j.Difficulty)
		WriteByte(w, j.MaxPlayers)
		WriteString(w, j.LevelType)
	})
}

// PlayerPosAndLookClientbound is the client-bound combined position/look
// packet (id 0x08) used both for the initial spawn and for any
// server-authoritative teleport of the receiving player.
type PlayerPosAndLookClientbound struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

const idPlayerPosAndLookClientbound = 0x08

// Encode serializes p into a frame-ready Packet.
func (p *PlayerPosAndLookClientbound) Encode() *Packet {
	return MarshalPacket(idPlayerPosAndLookClientbound, func(w *bytes.Buffer) {
		WriteFloat64(w, p.X)
		WriteFloat64(w, p.Y)
		WriteFloat64(w, p.Z)
		WriteFloat32(w, p.Yaw)
		WriteFloat32(w, p.Pitch)
		WriteBool(w, p.OnGround)
	})
}

// ChunkData is the client-bound packet carrying one column's worth of
// section data (id 0x21). A column with PrimaryBitmask == 0 && AddBitmask
// == 0 && GroundUpContinuous == true and an empty Data is the v5 idiom
// for "unload this column" (used for EntityNoLongerViewsChunks).
type ChunkData struct {
	ChunkX, ChunkZ      int32
	GroundUpContinuous  bool
	PrimaryBitmask      uint16
	AddBitmask          uint16
	Data                []byte // zlib-compressed section concatenation
}

const idChunkData = 0x21

// Encode serializes c into a frame-ready Packet.
func (c *ChunkData) Encode() *Packet {
	return MarshalPacket(idChunkData, func(w *bytes.Buffer) {
		WriteInt32(w, c.ChunkX)
		WriteInt32(w, c.ChunkZ)
		WriteBool(w, c.GroundUpContinuous)
		WriteUint16(w, c.PrimaryBitmask)
		WriteUint16(w, c.AddBitmask)
		WriteInt32(w, int32(len(c.Data)))
		w.Write(c.Data)
	})
}

// UnloadChunkData builds the "unload this column" idiom described above.
func UnloadChunkData(chunkX, chunkZ int32) *ChunkData {
	return &ChunkData{
		ChunkX:             chunkX,
		ChunkZ:             chunkZ,
		GroundUpContinuous: true,
		PrimaryBitmask:     0,
		AddBitmask:         0,
		Data:               nil,
	}
}

// emptyMetadata is the single-byte terminator for an empty 1.7.x entity
// metadata list. Concrete metadata fields are block/item/mob data, out of
// this server's design scope, so every spawn packet below sends an empty
// list.
const emptyMetadata = 0x7F

// SpawnPlayer is the client-bound packet announcing another player
// entering a viewer's view (id 0x0C).
type SpawnPlayer struct {
	EntityID   int32
	UUID       string
	X, Y, Z    float64
	Yaw, Pitch float32
}

const idSpawnPlayer = 0x0C

// Encode serializes s into a frame-ready Packet.
func (s *SpawnPlayer) Encode() *Packet {
	return MarshalPacket(idSpawnPlayer, func(w *bytes.Buffer) {
		WriteVarInt(w, s.EntityID)
		WriteString(w, s.UUID)
		WriteInt32(w, EncodeFixed(s.X))
		WriteInt32(w, EncodeFixed(s.Y))
		WriteInt32(w, EncodeFixed(s.Z))
		WriteByte(w, EncodeAngle(s.Yaw))
		WriteByte(w, EncodeAngle(s.Pitch))
		WriteInt16(w, 0) // current item: none
		WriteByte(w, emptyMetadata)
	})
}

// DestroyEntities is the client-bound packet removing entities from a
// viewer's client-known set (id 0x13).
type DestroyEntities struct {
	EntityIDs []int32
}

const idDestroyEntities = 0x13

// Encode serializes d into a frame-ready Packet.
func (d *DestroyEntities) Encode() *Packet {
	return MarshalPacket(idDestroyEntities, func(w *bytes.Buffer) {
		WriteByte(w, byte(len(d.EntityIDs)))
		for _, id := range d.EntityIDs {
			WriteVarInt(w, id)
		}
	})
}

// EntityTeleport is the client-bound absolute-position broadcast sent to
// every loader that still has the moving entity in view (id 0x18).
type EntityTeleport struct {
	EntityID   int32
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

const idEntityTeleport = 0x18

// Encode serializes t into a frame-ready Packet.
func (t *EntityTeleport) Encode() *Packet {
	return MarshalPacket(idEntityTeleport, func(w *bytes.Buffer) {
		WriteVarInt(w, t.EntityID)
		WriteInt32(w, EncodeFixed(t.X))
		WriteInt32(w, EncodeFixed(t.Y))
		WriteInt32(w, EncodeFixed(t.Z))
		WriteByte(w, EncodeAngle(t.Yaw))
		WriteByte(w, EncodeAngle(t.Pitch))
		WriteBool(w, t.OnGround)
	})
}
