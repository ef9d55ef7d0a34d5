// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: ingest.go — Feed session loop
//
// Purpose:
//   - Drives one WebSocket session: handshake, subscribe, frame pump
//   - Signals global activity so pinned consumers stay hot while ticks flow
//   - Returns on any transport error; the caller owns reconnection policy
// ─────────────────────────────────────────────────────────────────────────────

package feed

import (
	"net"

	"tickdb/control"
)

// Ingest runs one feed session to completion. The symbols slice names the
// subscription universe; every symbol must already be tracked on the
// decoder. The function only returns on transport failure or venue close,
// handing the error to the caller's reconnect loop.
func Ingest(conn net.Conn, d *Decoder, symbols []string) error {
	if err := Handshake(conn); err != nil {
		return err
	}
	if err := SendSubscription(conn, symbols); err != nil {
		return err
	}

	r := NewFrameReader(conn)
	for {
		payload, err := r.Next()
		if err != nil {
			return err
		}

		control.SignalActivity()
		d.HandleFrame(payload)
	}
}
