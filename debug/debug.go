// ─────────────────────────────────────────────────────────────────────────────
// [Filename]: debug.go — Cold-path diagnostic logging helper (no fmt)
//
// Purpose:
//   - Logs infrequent error paths with minimal overhead.
//   - Used only in cold paths: startup phases, dial errors, archive failures.
//
// Notes:
//   - Avoids fmt.Sprintf to minimize footprint and latency; each line is
//     built with one string concatenation, which may allocate.
//   - Writes directly to stderr via utils.PrintWarning.
//
// ⚠️ Never invoke in hot loops — use only in failure diagnostics.
// ─────────────────────────────────────────────────────────────────────────────

package debug

import "tickdb/utils"

// DropError logs error messages without the fmt machinery.
// It writes directly to stderr (file descriptor 2); building the line may allocate.
//
//go:nosplit
//go:inline
func DropError(prefix string, err error) {
	if err != nil {
		msg := prefix + ": " + err.Error() + "\n"
		utils.PrintWarning(msg)
	} else {
		msg := prefix + "\n"
		utils.PrintWarning(msg)
	}
}

// DropMessage logs debug messages to stderr without the fmt machinery.
// Used for cold-path diagnostics, connection state changes, and infrequent events.
//
//go:nosplit
//go:inline
func DropMessage(prefix, message string) {
	msg := prefix + ": " + message + "\n"
	utils.PrintWarning(msg)
}
