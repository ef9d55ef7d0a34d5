// ============================================================================
// WEBSOCKET WIRE & FRAME READER VALIDATION SUITE
// ============================================================================
//
// Validates the pre-built upgrade request, masked subscribe frames, and the
// streaming frame reader against a synthetic venue over net.Pipe.

package feed

import (
	"bytes"
	"net"
	"testing"
	"time"

	"tickdb/constants"
)

// serverFrame builds an unmasked server-side data frame around a payload
func serverFrame(opcode byte, payload []byte) []byte {
	f := []byte{0x80 | opcode}
	switch {
	case len(payload) < 126:
		f = append(f, byte(len(payload)))
	case len(payload) < 1<<16:
		f = append(f, 126, byte(len(payload)>>8), byte(len(payload)))
	default:
		f = append(f, 127, 0, 0, 0, 0,
			byte(len(payload)>>24), byte(len(payload)>>16), byte(len(payload)>>8), byte(len(payload)))
	}
	return append(f, payload...)
}

// ============================================================================
// UPGRADE REQUEST CONSTRUCTION
// ============================================================================

// TestUpgradeRequestShape validates the pre-built handshake payload
func TestUpgradeRequestShape(t *testing.T) {
	req := GetUpgradeRequest()

	if !bytes.HasPrefix(req, []byte("GET "+constants.WsPath+" HTTP/1.1\r\n")) {
		t.Fatalf("request line malformed: %q", req[:40])
	}
	for _, header := range []string{
		"Host: " + constants.WsHost,
		"Upgrade: websocket",
		"Connection: Upgrade",
		"Sec-WebSocket-Key: ",
		"Sec-WebSocket-Version: 13",
	} {
		if !bytes.Contains(req, []byte(header)) {
			t.Fatalf("missing header %q", header)
		}
	}
	if !bytes.HasSuffix(req, []byte("\r\n\r\n")) {
		t.Fatal("request not CRLF-CRLF terminated")
	}

	// Pre-built: repeated calls return the identical buffer
	if &req[0] != &GetUpgradeRequest()[0] {
		t.Fatal("upgrade request rebuilt per call")
	}
}

// TestSubscribeFrameMasking validates the masked client frame by unmasking
// it the way a venue would
func TestSubscribeFrameMasking(t *testing.T) {
	frame := BuildSubscribeFrame([]string{"BTC-USD", "ETH-USD"})

	if frame[0] != 0x81 {
		t.Fatalf("frame header = %#x, want FIN|TEXT", frame[0])
	}
	if frame[1]&0x80 == 0 {
		t.Fatal("client frame must be masked")
	}

	plen := int(frame[1] & 0x7F)
	if plen >= 126 {
		t.Fatalf("subscribe payload unexpectedly large: %d", plen)
	}
	mask := frame[2:6]
	unmasked := make([]byte, plen)
	for i := 0; i < plen; i++ {
		unmasked[i] = frame[6+i] ^ mask[i&3]
	}

	want := `{"op":"subscribe","symbols":["BTC-USD","ETH-USD"]}`
	if string(unmasked) != want {
		t.Fatalf("payload = %q, want %q", unmasked, want)
	}
}

// ============================================================================
// HANDSHAKE
// ============================================================================

// TestHandshakeAcceptsSwitchingProtocols validates the happy path
func TestHandshakeAcceptsSwitchingProtocols(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte("HTTP/1.1 101 Switching Protocols\r\nUpgrade: websocket\r\n\r\n"))
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	if err := Handshake(client); err != nil {
		t.Fatalf("Handshake error: %v", err)
	}
}

// TestHandshakeRejectsNon101 validates rejection handling
func TestHandshakeRejectsNon101(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		buf := make([]byte, 1024)
		server.Read(buf)
		server.Write([]byte("HTTP/1.1 403 Forbidden\r\n\r\n"))
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	if err := Handshake(client); err != errHandshakeRejected {
		t.Fatalf("Handshake error = %v, want errHandshakeRejected", err)
	}
}

// ============================================================================
// FRAME READER
// ============================================================================

// TestFrameReaderDataFrames validates sequential payload delivery across
// small and 16-bit extended-length frames
func TestFrameReaderDataFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	big := bytes.Repeat([]byte("x"), 300) // Forces the 126 length form
	go func() {
		server.Write(serverFrame(opText, []byte(`{"e":"q"}`)))
		server.Write(serverFrame(opText, big))
		server.Write(serverFrame(opBinary, []byte{1, 2, 3}))
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := NewFrameReader(client)

	p, err := r.Next()
	if err != nil || string(p) != `{"e":"q"}` {
		t.Fatalf("frame 1 = %q, %v", p, err)
	}
	p, err = r.Next()
	if err != nil || !bytes.Equal(p, big) {
		t.Fatalf("frame 2 length = %d, err %v, want 300", len(p), err)
	}
	p, err = r.Next()
	if err != nil || !bytes.Equal(p, []byte{1, 2, 3}) {
		t.Fatalf("frame 3 = %v, %v", p, err)
	}
}

// TestFrameReaderAnswersPing validates transparent Ping/Pong handling
func TestFrameReaderAnswersPing(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	pong := make(chan []byte, 1)
	go func() {
		server.Write(serverFrame(opPing, nil))

		// The reader must answer with a pong before the data frame flows
		buf := make([]byte, 2)
		server.Read(buf)
		pong <- buf

		server.Write(serverFrame(opText, []byte("tick")))
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := NewFrameReader(client)

	p, err := r.Next()
	if err != nil || string(p) != "tick" {
		t.Fatalf("data after ping = %q, %v", p, err)
	}

	got := <-pong
	if got[0] != 0x8A || got[1] != 0x00 {
		t.Fatalf("pong frame = %#x %#x, want 0x8A 0x00", got[0], got[1])
	}
}

// TestFrameReaderSurfacesClose validates venue-initiated stream termination
func TestFrameReaderSurfacesClose(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		server.Write(serverFrame(opClose, nil))
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := NewFrameReader(client)

	if _, err := r.Next(); err != errFeedClosed {
		t.Fatalf("close error = %v, want errFeedClosed", err)
	}
}

// TestFrameReaderRejectsMaskedServerFrames validates protocol enforcement
func TestFrameReaderRejectsMaskedServerFrames(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	go func() {
		// Masked bit set on a server frame: protocol violation
		server.Write([]byte{0x81, 0x80 | 0x01, 0x00, 0x00, 0x00, 0x00, 'x'})
	}()

	client.SetDeadline(time.Now().Add(2 * time.Second))
	r := NewFrameReader(client)

	if _, err := r.Next(); err != errProtocol {
		t.Fatalf("masked frame error = %v, want errProtocol", err)
	}
}
