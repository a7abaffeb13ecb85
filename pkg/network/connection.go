// Package network drives one worker per accepted socket through the
// handshake/login/encryption state machine, then hands the connection
// off to the game layer as an established, optionally-encrypted PLAY
// session backed by independent inbound/outbound packet queues.
package network

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/StoreStation/vibecraft/pkg/auth"
	"github.com/StoreStation/vibecraft/pkg/chat"
	"github.com/StoreStation/vibecraft/pkg/protocol"
)

// ProtocolVersion is the only protocol_version this server accepts in
// the handshake's LOGIN branch.
const ProtocolVersion = 5

var (
	ErrWrongProtocol  = errors.New("network: unsupported protocol version")
	ErrVerifyMismatch = errors.New("network: verify token mismatch")
	ErrBadSecretLen   = errors.New("network: shared secret is not 16 bytes")
)

// StatusProvider answers a STATUS-state ping with the current
// server-list JSON body.
type StatusProvider func() StatusInfo

// StatusInfo is the data a server-list ping response carries.
type StatusInfo struct {
	MOTD          string
	MaxPlayers    int
	OnlinePlayers int
}

func (s StatusInfo) json() ([]byte, error) {
	return json.Marshal(map[string]any{
		"version": map[string]any{
			"name":     "1.7.10",
			"protocol": ProtocolVersion,
		},
		"players": map[string]any{
			"max":    s.MaxPlayers,
			"online": s.OnlinePlayers,
			"sample": []any{},
		},
		"description": map[string]any{
			"text": s.MOTD,
		},
	})
}

// Established is a connection that has completed login: its PLAY-state
// queues are live and Profile identifies who's on the other end.
type Established struct {
	Profile auth.Profile
	Conn    net.Conn

	Inbound  *PacketQueue // packets read from the socket, drained by the tick loop
	Outbound *PacketQueue // packets pushed by the tick loop, written to the socket

	readCodec  *protocol.Codec
	writeCodec *protocol.Codec
}

// Close tears down both queues and the socket.
func (e *Established) Close() error {
	e.Inbound.Close()
	e.Outbound.Close()
	return e.Conn.Close()
}

// Listener accepts sockets and runs each through the handshake state
// machine, publishing successfully logged-in connections on Joined.
type Listener struct {
	Key           *ServerKey
	SessionServer auth.SessionServer
	Status        StatusProvider

	Joined chan *Established
}

// NewListener builds a Listener ready to run against an already-open
// net.Listener via Serve.
func NewListener(key *ServerKey, sessionServer auth.SessionServer, status StatusProvider) *Listener {
	return &Listener{
		Key:           key,
		SessionServer: sessionServer,
		Status:        status,
		Joined:        make(chan *Established, 16),
	}
}

// Serve accepts connections from ln until ctx is cancelled or Accept
// fails, spawning one worker goroutine per socket.
func (l *Listener) Serve(ctx context.Context, ln net.Listener) {
	go func() {
		<-ctx.Done()
		ln.Close()
	}()
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("network: accept error: %v", err)
				return
			}
		}
		go l.handle(ctx, conn)
	}
}

func (l *Listener) handle(ctx context.Context, conn net.Conn) {
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	state := protocol.StateHandshake

	hsPkt, err := protocol.ReadPacket(conn)
	if err != nil {
		conn.Close()
		return
	}
	hs, err := protocol.DecodeHandshake(hsPkt.Data)
	if err != nil {
		conn.Close()
		return
	}
	switch hs.NextState {
	case protocol.NextStatus:
		state = protocol.StateStatus
	case protocol.NextLogin:
		state = protocol.StateLogin
	default:
		conn.Close()
		return
	}

	if state == protocol.StateStatus {
		l.serveStatus(conn)
		return
	}

	if hs.ProtocolVersion != ProtocolVersion {
		err := fmt.Errorf("%w: client sent %d, server runs %d", ErrWrongProtocol, hs.ProtocolVersion, ProtocolVersion)
		l.rejectLogin(conn, err.Error())
		conn.Close()
		return
	}

	established, err := l.serveLogin(ctx, conn)
	if err != nil {
		l.rejectLogin(conn, err.Error())
		conn.Close()
		return
	}

	l.Joined <- established
}

func (l *Listener) serveStatus(conn net.Conn) {
	defer conn.Close()
	if _, err := protocol.ReadPacket(conn); err != nil { // StatusRequest, fields unused
		return
	}
	body, err := l.Status().json()
	if err != nil {
		log.Printf("network: marshal status response: %v", err)
		return
	}
	resp := (&protocol.StatusResponse{JSON: string(body)}).Encode()
	if err := protocol.WritePacket(conn, resp); err != nil {
		return
	}

	pingPkt, err := protocol.ReadPacket(conn)
	if err != nil {
		return
	}
	ping, err := protocol.DecodeStatusPing(pingPkt.Data)
	if err != nil {
		return
	}
	protocol.WritePacket(conn, (&protocol.StatusPing{Payload: ping.Payload}).Encode())
}

// serveLogin runs steps 2-5 of the handshake state machine: login
// start, the encryption request/response round trip, Yggdrasil
// verification, and switching both halves to encrypted PLAY.
func (l *Listener) serveLogin(ctx context.Context, conn net.Conn) (*Established, error) {
	loginPkt, err := protocol.ReadPacket(conn)
	if err != nil {
		return nil, err
	}
	loginStart, err := protocol.DecodeLoginStart(loginPkt.Data)
	if err != nil {
		return nil, err
	}

	verifyToken := make([]byte, 4)
	if _, err := rand.Read(verifyToken); err != nil {
		return nil, err
	}
	encReq := &protocol.EncryptionRequest{
		ServerID:    "",
		PublicKey:   l.Key.PubDER,
		VerifyToken: verifyToken,
	}
	if err := protocol.WritePacket(conn, encReq.Encode()); err != nil {
		return nil, err
	}

	encRespPkt, err := protocol.ReadPacket(conn)
	if err != nil {
		return nil, err
	}
	encResp, err := protocol.DecodeEncryptionResponse(encRespPkt.Data)
	if err != nil {
		return nil, err
	}

	decryptedToken, err := l.Key.Decrypt(encResp.VerifyToken)
	if err != nil || !bytes.Equal(decryptedToken, verifyToken) {
		return nil, ErrVerifyMismatch
	}
	sharedSecret, err := l.Key.Decrypt(encResp.SharedSecret)
	if err != nil {
		return nil, err
	}
	if len(sharedSecret) != 16 {
		return nil, ErrBadSecretLen
	}

	authHash := auth.AuthHash("", sharedSecret, l.Key.PubDER)
	clientIP, _, _ := net.SplitHostPort(conn.RemoteAddr().String())
	profile, err := l.SessionServer.HasJoined(ctx, loginStart.Name, authHash, clientIP)
	if err != nil {
		return nil, err
	}
	if profile.Name != loginStart.Name {
		return nil, auth.ErrNameMismatch
	}

	readCodec := protocol.NewCodec()
	writeCodec := protocol.NewCodec()
	if err := readCodec.EnableEncryption(sharedSecret); err != nil {
		return nil, err
	}
	if err := writeCodec.EnableEncryption(sharedSecret); err != nil {
		return nil, err
	}

	success := (&protocol.LoginSuccess{UUID: profile.UUID, Username: profile.Name}).Encode()
	var out bytes.Buffer
	if err := writeCodec.WritePacket(success, &out); err != nil {
		return nil, err
	}
	if _, err := conn.Write(out.Bytes()); err != nil {
		return nil, err
	}

	conn.SetReadDeadline(time.Time{})
	established := &Established{
		Profile:    *profile,
		Conn:       conn,
		Inbound:    NewPacketQueue(),
		Outbound:   NewPacketQueue(),
		readCodec:  readCodec,
		writeCodec: writeCodec,
	}
	go established.readLoop()
	go established.writeLoop()
	return established, nil
}

func (l *Listener) rejectLogin(conn net.Conn, reason string) {
	disconnect := (&protocol.LoginDisconnect{JSONReason: chat.Text(reason).String()}).Encode()
	protocol.WritePacket(conn, disconnect)
}

// readLoop decodes incoming PLAY packets and pushes them to Inbound
// until the socket errors, at which point it closes both queues so
// the writer (and the tick loop's consumer) unwind too.
func (e *Established) readLoop() {
	buf := make([]byte, 4096)
	for {
		n, err := e.Conn.Read(buf)
		if n > 0 {
			e.readCodec.AcceptData(buf[:n])
			for {
				pkt, ok, decodeErr := e.readCodec.TryReadPacket()
				if decodeErr != nil {
					e.Close()
					return
				}
				if !ok {
					break
				}
				e.Inbound.Push(pkt)
			}
		}
		if err != nil {
			e.Close()
			return
		}
	}
}

// writeLoop pulls outbound packets and serializes them to the socket
// until Outbound is closed.
func (e *Established) writeLoop() {
	for {
		pkt, ok := e.Outbound.Pop()
		if !ok {
			return
		}
		var out bytes.Buffer
		if err := e.writeCodec.WritePacket(pkt, &out); err != nil {
			e.Close()
			return
		}
		if _, err := e.Conn.Write(out.Bytes()); err != nil {
			e.Close()
			return
		}
	}
}
