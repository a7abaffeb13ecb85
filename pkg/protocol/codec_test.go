package protocol

import (
	"bytes"
	"testing"
)

func TestCodecPartialReads(t *testing.T) {
	var wbuf bytes.Buffer
	w := NewCodec()
	pkt := &Packet{ID: 0x01, Data: []byte("hello world")}
	if err := w.WritePacket(pkt, &wbuf); err != nil {
		t.Fatalf("WritePacket error: %v", err)
	}
	frame := wbuf.Bytes()

	r := NewCodec()
	// Feed the frame one byte at a time; only after the last byte should
	// a packet be available.
	for i := 0; i < len(frame)-1; i++ {
		r.AcceptData(frame[i : i+1])
		got, ok, err := r.TryReadPacket()
		if err != nil {
			t.Fatalf("TryReadPacket error at byte %d: %v", i, err)
		}
		if ok {
			t.Fatalf("TryReadPacket returned a packet early at byte %d: %+v", i, got)
		}
	}
	r.AcceptData(frame[len(frame)-1:])
	got, ok, err := r.TryReadPacket()
	if err != nil {
		t.Fatalf("TryReadPacket error: %v", err)
	}
	if !ok {
		t.Fatal("TryReadPacket returned false after full frame delivered")
	}
	if got.ID != pkt.ID || !bytes.Equal(got.Data, pkt.Data) {
		t.Errorf("got %+v, want %+v", got, pkt)
	}
}

func TestCodecMultiplePacketsInOneChunk(t *testing.T) {
	var wbuf bytes.Buffer
	w := NewCodec()
	pkts := []*Packet{
		{ID: 0x00, Data: []byte("a")},
		{ID: 0x01, Data: []byte("bb")},
		{ID: 0x02, Data: []byte("ccc")},
	}
	for _, p := range pkts {
		if err := w.WritePacket(p, &wbuf); err != nil {
			t.Fatalf("WritePacket error: %v", err)
		}
	}

	r := NewCodec()
	r.AcceptData(wbuf.Bytes())
	for i, want := range pkts {
		got, ok, err := r.TryReadPacket()
		if err != nil {
			t.Fatalf("TryReadPacket[%d] error: %v", i, err)
		}
		if !ok {
			t.Fatalf("TryReadPacket[%d] returned false", i)
		}
		if got.ID != want.ID || !bytes.Equal(got.Data, want.Data) {
			t.Errorf("packet %d = %+v, want %+v", i, got, want)
		}
	}
	if _, ok, _ := r.TryReadPacket(); ok {
		t.Error("TryReadPacket returned a 4th packet that was never written")
	}
}

func TestCodecEncryptionRoundTrip(t *testing.T) {
	secret := bytes.Repeat([]byte{0x42}, 16)

	writerCodec := NewCodec()
	if err := writerCodec.EnableEncryption(secret); err != nil {
		t.Fatalf("EnableEncryption error: %v", err)
	}
	readerCodec := NewCodec()
	if err := readerCodec.EnableEncryption(secret); err != nil {
		t.Fatalf("EnableEncryption error: %v", err)
	}

	var wire bytes.Buffer
	for i, data := range [][]byte{[]byte("first"), []byte("second"), []byte("third packet, longer")} {
		pkt := &Packet{ID: int32(i), Data: data}
		if err := writerCodec.WritePacket(pkt, &wire); err != nil {
			t.Fatalf("WritePacket error: %v", err)
		}
	}

	// Feed the ciphertext through the reader in arbitrary-sized chunks.
	raw := wire.Bytes()
	chunkSize := 7
	for off := 0; off < len(raw); off += chunkSize {
		end := off + chunkSize
		if end > len(raw) {
			end = len(raw)
		}
		readerCodec.AcceptData(raw[off:end])
	}

	want := []string{"first", "second", "third packet, longer"}
	for i, w := range want {
		got, ok, err := readerCodec.TryReadPacket()
		if err != nil {
			t.Fatalf("TryReadPacket[%d] error: %v", i, err)
		}
		if !ok {
			t.Fatalf("TryReadPacket[%d] returned false", i)
		}
		if got.ID != int32(i) || string(got.Data) != w {
			t.Errorf("packet %d = %+v, want data %q", i, got, w)
		}
	}
}

func TestCodecMalformedVarIntLength(t *testing.T) {
	r := NewCodec()
	// Five continuation bytes with no terminator: an impossible VarInt.
	r.AcceptData([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	_, _, err := r.TryReadPacket()
	if err == nil {
		t.Fatal("expected malformed VarInt error, got nil")
	}
}
