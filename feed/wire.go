// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: wire.go — Zero-alloc WebSocket upgrade & subscribe construction
//
// Purpose:
//   - Constructs the immutable WebSocket upgrade request once at init
//   - Builds RFC 6455 masked subscribe frames for the tick feed
//   - Sends the upgrade request without allocating on each connection attempt
//
// Notes:
//   - The upgrade request is initialized exactly once in init()
//   - Subscribe frames are built per reconnect (cold path) since the symbol
//     universe is chosen at bootstrap
//
// ⚠️ NEVER mutate the upgrade buffer after init
// ─────────────────────────────────────────────────────────────────────────────

package feed

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net"

	"tickdb/constants"
)

var errHandshakeRejected = errors.New("feed: handshake rejected by venue")

// ───────────────────────────── Shared Runtime State ─────────────────────────────

var (
	// HTTP upgrade handshake payload (static pre-allocated)
	upgradeRequest [512]byte // Fixed-size buffer to avoid allocation
	upgradeLen     int       // Actual length of upgrade request

	// Base64-encoded Sec-WebSocket-Key buffer (zero-copy)
	keyBuf [24]byte

	// Pre-allocated Pong frame for responding to Ping frames
	pongFrame = [2]byte{0x8A, 0x00} // FIN=1, Opcode=0xA, no payload
)

// init prebuilds the upgrade request into the fixed buffer.
func init() {
	// Generate Sec-WebSocket-Key (zero-copy)
	var keyBytes [16]byte
	_, _ = rand.Read(keyBytes[:])
	base64.StdEncoding.Encode(keyBuf[:], keyBytes[:])

	upgradeLen = 0
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte("GET "))
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte(constants.WsPath))
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte(" HTTP/1.1\r\nHost: "))
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte(constants.WsHost))
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte("\r\nUpgrade: websocket\r\nConnection: Upgrade\r\nSec-WebSocket-Key: "))
	upgradeLen += copy(upgradeRequest[upgradeLen:], keyBuf[:24])
	upgradeLen += copy(upgradeRequest[upgradeLen:], []byte("\r\nSec-WebSocket-Version: 13\r\n\r\n"))
}

// GetUpgradeRequest returns the pre-built upgrade request without allocation.
//
//go:nosplit
//go:inline
func GetUpgradeRequest() []byte {
	return upgradeRequest[:upgradeLen]
}

// ───────────────────────────── Handshake ─────────────────────────────

// Handshake sends the upgrade request and consumes the HTTP response up to
// the CRLF-CRLF terminator, validating the 101 status line.
func Handshake(conn net.Conn) error {
	if _, err := conn.Write(GetUpgradeRequest()); err != nil {
		return err
	}

	var hsBuf [4096]byte
	filled := 0
	for {
		n, err := conn.Read(hsBuf[filled:])
		if err != nil {
			return err
		}
		filled += n

		if i := findTerminator(hsBuf[:filled]); i >= 0 {
			// Minimal validation: "HTTP/1.1 101" prefix is all a trusted
			// venue needs to prove the upgrade happened
			if filled < 12 || string(hsBuf[9:12]) != "101" {
				return errHandshakeRejected
			}
			return nil
		}
		if filled == len(hsBuf) {
			return errHandshakeRejected // Header larger than any sane venue sends
		}
	}
}

// findTerminator locates the CRLF-CRLF end of the HTTP response header.
//
//go:nosplit
//go:inline
func findTerminator(data []byte) int {
	for i := 0; i+3 < len(data); i++ {
		if data[i] == '\r' && data[i+1] == '\n' && data[i+2] == '\r' && data[i+3] == '\n' {
			return i
		}
	}
	return -1
}

// ───────────────────────────── Subscription ─────────────────────────────

// BuildSubscribeFrame assembles a masked TEXT frame carrying the subscribe
// request for the given symbols. Runs once per reconnect; allocation here is
// off the hot path by definition.
func BuildSubscribeFrame(symbols []string) []byte {
	// JSON payload: {"op":"subscribe","symbols":["A","B",...]}
	payload := make([]byte, 0, 32+len(symbols)*16)
	payload = append(payload, `{"op":"subscribe","symbols":[`...)
	for i, s := range symbols {
		if i > 0 {
			payload = append(payload, ',')
		}
		payload = append(payload, '"')
		payload = append(payload, s...)
		payload = append(payload, '"')
	}
	payload = append(payload, `]}`...)

	var maskBytes [4]byte
	_, _ = rand.Read(maskBytes[:])

	// Client frames are masked per RFC 6455
	frame := make([]byte, 0, len(payload)+14)
	frame = append(frame, 0x81) // FIN|TEXT
	switch {
	case len(payload) < 126:
		frame = append(frame, 0x80|byte(len(payload)))
	case len(payload) < 1<<16:
		frame = append(frame, 0x80|126, byte(len(payload)>>8), byte(len(payload)))
	default:
		frame = append(frame, 0x80|127,
			0, 0, 0, 0,
			byte(len(payload)>>24), byte(len(payload)>>16), byte(len(payload)>>8), byte(len(payload)))
	}
	frame = append(frame, maskBytes[:]...)
	for i, b := range payload {
		frame = append(frame, b^maskBytes[i&3])
	}
	return frame
}

// SendSubscription writes the subscribe frame for the symbol universe.
func SendSubscription(conn net.Conn, symbols []string) error {
	_, err := conn.Write(BuildSubscribeFrame(symbols))
	return err
}
