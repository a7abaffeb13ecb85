package network

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"net"
	"testing"
	"time"

	"github.com/StoreStation/vibecraft/pkg/auth"
	"github.com/StoreStation/vibecraft/pkg/protocol"
)

func mustEncryptWithServerKey(t *testing.T, key *ServerKey, plaintext []byte) []byte {
	t.Helper()
	ct, err := rsa.EncryptPKCS1v15(rand.Reader, &key.Private.PublicKey, plaintext)
	if err != nil {
		t.Fatalf("EncryptPKCS1v15: %v", err)
	}
	return ct
}

type fakeSessionServer struct {
	profile *auth.Profile
	err     error
}

func (f *fakeSessionServer) HasJoined(ctx context.Context, username, authHash, clientIP string) (*auth.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	p := *f.profile
	return &p, nil
}

func writePacket(t *testing.T, conn net.Conn, pkt *protocol.Packet) {
	t.Helper()
	if err := protocol.WritePacket(conn, pkt); err != nil {
		t.Fatalf("write packet: %v", err)
	}
}

func TestLoginHandshakeEstablishesEncryptedSession(t *testing.T) {
	key, err := NewServerKey()
	if err != nil {
		t.Fatalf("NewServerKey: %v", err)
	}
	sess := &fakeSessionServer{profile: &auth.Profile{UUID: "abcd", Name: "Steve"}}
	l := NewListener(key, sess, func() StatusInfo { return StatusInfo{MOTD: "test", MaxPlayers: 20} })

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go l.handle(ctx, server)

	// Handshake -> LOGIN
	writePacket(t, client, (&protocol.Handshake{
		ProtocolVersion: ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       protocol.NextLogin,
	}).Encode())
	writePacket(t, client, (&protocol.LoginStart{Name: "Steve"}).Encode())

	encReqPkt, err := protocol.ReadPacket(client)
	if err != nil {
		t.Fatalf("read EncryptionRequest: %v", err)
	}
	// EncryptionRequest has no client-side decoder in this pack (it's
	// client-bound only); decode its fields directly off the packet.
	r := bytes.NewReader(encReqPkt.Data)
	if _, err := protocol.ReadString(r); err != nil {
		t.Fatalf("read server id: %v", err)
	}
	pubDER, err := protocol.ReadByteArray(r, 2, true)
	if err != nil {
		t.Fatalf("read public key: %v", err)
	}
	verifyToken, err := protocol.ReadByteArray(r, 2, true)
	if err != nil {
		t.Fatalf("read verify token: %v", err)
	}
	if !bytes.Equal(pubDER, key.PubDER) {
		t.Error("public key on the wire does not match the server's key")
	}

	sharedSecret := make([]byte, 16)
	for i := range sharedSecret {
		sharedSecret[i] = byte(i)
	}
	encSecret := mustEncryptWithServerKey(t, key, sharedSecret)
	encToken := mustEncryptWithServerKey(t, key, verifyToken)

	var respBuf bytes.Buffer
	protocol.WriteByteArray(&respBuf, 2, true, encSecret)
	protocol.WriteByteArray(&respBuf, 2, true, encToken)
	writePacket(t, client, &protocol.Packet{ID: 0x01, Data: respBuf.Bytes()})

	loginSuccessPkt, err := protocol.ReadPacket(client)
	if err != nil {
		t.Fatalf("read LoginSuccess: %v", err)
	}
	if loginSuccessPkt.ID != 0x02 {
		t.Fatalf("expected LoginSuccess id 0x02, got 0x%02X", loginSuccessPkt.ID)
	}

	select {
	case established := <-l.Joined:
		if established.Profile.Name != "Steve" {
			t.Errorf("joined profile name = %q, want Steve", established.Profile.Name)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Joined connection")
	}
}

func TestStatusPingRoundTrip(t *testing.T) {
	key, err := NewServerKey()
	if err != nil {
		t.Fatalf("NewServerKey: %v", err)
	}
	l := NewListener(key, &fakeSessionServer{}, func() StatusInfo {
		return StatusInfo{MOTD: "hi", MaxPlayers: 5, OnlinePlayers: 1}
	})

	client, server := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.handle(ctx, server)

	writePacket(t, client, (&protocol.Handshake{
		ProtocolVersion: ProtocolVersion,
		ServerAddress:   "localhost",
		ServerPort:      25565,
		NextState:       protocol.NextStatus,
	}).Encode())
	writePacket(t, client, &protocol.Packet{ID: 0x00})

	respPkt, err := protocol.ReadPacket(client)
	if err != nil {
		t.Fatalf("read StatusResponse: %v", err)
	}
	resp, err := decodeStatusResponseBody(respPkt.Data)
	if err != nil {
		t.Fatalf("decode status response: %v", err)
	}
	if resp == "" {
		t.Fatal("expected non-empty status JSON")
	}

	writePacket(t, client, (&protocol.StatusPing{Payload: 42}).Encode())
	pongPkt, err := protocol.ReadPacket(client)
	if err != nil {
		t.Fatalf("read pong: %v", err)
	}
	pong, err := protocol.DecodeStatusPing(pongPkt.Data)
	if err != nil {
		t.Fatalf("decode pong: %v", err)
	}
	if pong.Payload != 42 {
		t.Errorf("pong payload = %d, want 42", pong.Payload)
	}
}

func decodeStatusResponseBody(data []byte) (string, error) {
	r := bytes.NewReader(data)
	return protocol.ReadString(r)
}
