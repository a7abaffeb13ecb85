package protocol

import "fmt"

// DecodeFunc decodes a packet body into a typed value.
type DecodeFunc func(data []byte) (any, error)

type dispatchKey struct {
	state ConnState
	dir   Direction
	id    int32
}

// decodeTable is the per-state id->decoder table described in §4.B,
// keyed by (state, direction, id): each connection state has independent
// id spaces for each direction, driven entirely by the handshake/login
// sequence rather than an on-the-wire state tag. Only server-bound
// packets have decoders registered.
var decodeTable = map[dispatchKey]DecodeFunc{
	{StateHandshake, Serverbound, idHandshake}: func(d []byte) (any, error) { return DecodeHandshake(d) },

	{StateStatus, Serverbound, idStatusRequest}: func(d []byte) (any, error) { return DecodeStatusRequest(d) },
	{StateStatus, Serverbound, idStatusPing}:    func(d []byte) (any, error) { return DecodeStatusPing(d) },

	{StateLogin, Serverbound, idLoginStart}:                 func(d []byte) (any, error) { return DecodeLoginStart(d) },
	{StateLogin, Serverbound, idEncryptionRequestResponse}:  func(d []byte) (any, error) { return DecodeEncryptionResponse(d) },

	{StatePlay, Serverbound, idKeepAlive}:                     func(d []byte) (any, error) { return DecodeKeepAlive(d) },
	{StatePlay, Serverbound, idPlayer}:                        func(d []byte) (any, error) { return DecodePlayer(d) },
	{StatePlay, Serverbound, idPlayerPosition}:                func(d []byte) (any, error) { return DecodePlayerPosition(d) },
	{StatePlay, Serverbound, idPlayerLook}:                    func(d []byte) (any, error) { return DecodePlayerLook(d) },
	{StatePlay, Serverbound, idPlayerPosAndLookServerbound}:    func(d []byte) (any, error) { return DecodePlayerPosAndLook(d) },
	{StatePlay, Serverbound, idClientSettings}:                func(d []byte) (any, error) { return DecodeClientSettings(d) },
}

// Decode looks up and invokes the decoder registered for (state, dir, id).
// It returns an error identifying the state and id for any combination
// with no registered decoder — an unknown packet for the current state is
// a protocol-malformed condition, not a silent no-op.
func Decode(state ConnState, dir Direction, id int32, data []byte) (any, error) {
	fn, ok := decodeTable[dispatchKey{state, dir, id}]
	if !ok {
		return nil, fmt.Errorf("%w: no packet registered for state=%s id=0x%02X", ErrMalformed, state, id)
	}
	return fn(data)
}
