package ssh2

// BlockDirections reports which socket directions a would-blocked call needs
// to wait on before it can make progress. The direction is a property of the
// session's internal state machine, not of the failed call: a channel read may
// block on writability during rekeying, so callers must query this after every
// would-block return rather than assuming read-for-read or write-for-write.
type BlockDirections int

const (
	// DirNone means the session reports no pending direction.
	DirNone BlockDirections = 0
	// DirInbound means the session is waiting for the socket to become readable.
	DirInbound BlockDirections = 1 << 0
	// DirOutbound means the session is waiting for the socket to become writable.
	DirOutbound BlockDirections = 1 << 1
	// DirBoth means either direction unblocks the session.
	DirBoth = DirInbound | DirOutbound
)

// String returns the string representation of the directions.
func (d BlockDirections) String() string {
	switch d {
	case DirNone:
		return "none"
	case DirInbound:
		return "inbound"
	case DirOutbound:
		return "outbound"
	case DirBoth:
		return "both"
	default:
		return "unknown"
	}
}
