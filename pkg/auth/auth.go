// Package auth computes the Minecraft auth hash and talks to the
// Yggdrasil session service that verifies a connecting client actually
// owns the account it claims.
package auth

import (
	"context"
	"crypto/sha1"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

// ErrAuthDenied is returned when the session service rejects a join
// (HTTP 403): the client never actually joined a session with this
// server_id/auth_hash pair.
var ErrAuthDenied = errors.New("auth: session server denied join")

// ErrNameMismatch is returned when the session service's profile name
// doesn't match the name the client claimed at login.
var ErrNameMismatch = errors.New("auth: profile name does not match claimed username")

// Profile is the authenticated identity returned by the session
// service for a successful join.
type Profile struct {
	UUID       string
	Name       string
	Properties []ProfileProperty
}

// ProfileProperty is an opaque signed property attached to a profile
// (e.g. the "textures" skin property). This server does not interpret
// properties beyond carrying them.
type ProfileProperty struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

// AuthHash computes the Minecraft "server hash": SHA-1 of
// serverID || sharedSecret || publicKeyDER, interpreted as a signed
// big-endian big integer and rendered as hex (leading '-' if negative,
// no zero padding). This is the value both client and session service
// independently derive to agree a join happened.
func AuthHash(serverID string, sharedSecret, publicKeyDER []byte) string {
	h := sha1.New()
	h.Write([]byte(serverID))
	h.Write(sharedSecret)
	h.Write(publicKeyDER)
	digest := h.Sum(nil)

	n := new(big.Int).SetBytes(digest)
	// A SHA-1 digest's high bit set means the two's-complement
	// interpretation is negative: subtract 2^160.
	if digest[0]&0x80 != 0 {
		n.Sub(n, new(big.Int).Lsh(big.NewInt(1), uint(len(digest)*8)))
	}
	return n.Text(16)
}

// SessionServer calls the external Yggdrasil "hasJoined" endpoint that
// verifies a client's join. It is a contract-only collaborator: this
// package defines the interface and an HTTP-backed implementation but
// never reimplements Mojang's account system itself.
type SessionServer interface {
	HasJoined(ctx context.Context, username, authHash, clientIP string) (*Profile, error)
}

// DefaultSessionServerURL is Mojang's production join-verification
// endpoint.
const DefaultSessionServerURL = "https://sessionserver.mojang.com/session/minecraft/hasJoined"

// HTTPSessionServer is a SessionServer backed by a real HTTP round trip
// to a Yggdrasil-compatible session service.
type HTTPSessionServer struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSessionServer returns an HTTPSessionServer pointed at Mojang's
// production endpoint with a bounded-timeout client.
func NewHTTPSessionServer() *HTTPSessionServer {
	return &HTTPSessionServer{
		BaseURL: DefaultSessionServerURL,
		Client:  &http.Client{Timeout: 10 * time.Second},
	}
}

type hasJoinedResponse struct {
	ID         string            `json:"id"`
	Name       string            `json:"name"`
	Properties []ProfileProperty `json:"properties"`
}

// HasJoined performs the GET request and interprets the response per
// the Yggdrasil contract: 200 with a body means success, 204/403 mean
// the join was never recorded.
func (s *HTTPSessionServer) HasJoined(ctx context.Context, username, authHash, clientIP string) (*Profile, error) {
	q := url.Values{}
	q.Set("username", username)
	q.Set("serverId", authHash)
	if clientIP != "" {
		q.Set("ip", clientIP)
	}

	reqURL := s.BaseURL + "?" + q.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("auth: build request: %w", err)
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("auth: session server request: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var body hasJoinedResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
			return nil, fmt.Errorf("auth: decode session response: %w", err)
		}
		if body.ID == "" {
			return nil, ErrAuthDenied
		}
		return &Profile{UUID: normalizeUUID(body.ID), Name: body.Name, Properties: body.Properties}, nil
	case http.StatusNoContent, http.StatusForbidden:
		return nil, ErrAuthDenied
	default:
		return nil, fmt.Errorf("auth: unexpected session server status %d", resp.StatusCode)
	}
}

// normalizeUUID turns the session service's undashed 32-hex id into the
// dashed form the 1.7.x wire protocol expects in SpawnPlayer and the
// player data files on disk. Falls back to the raw id on a malformed
// response rather than failing the join over a cosmetic mismatch.
func normalizeUUID(id string) string {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return id
	}
	return parsed.String()
}
