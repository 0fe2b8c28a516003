package zns

// ZoneType is the zone's addressing type. SEQ_WRITE is the only type the
// ZNS command set currently defines.
type ZoneType uint8

const ZoneTypeSeqWrite ZoneType = 1

// State is a zone's position in the state machine of spec.md §3/§4.3.
type State uint8

const (
	StateEmpty State = iota
	StateImplicitlyOpen
	StateExplicitlyOpen
	StateClosed
	StateFull
	StateReadOnly
	StateOffline
)

var stateNames = [...]string{
	StateEmpty:         "EMPTY",
	StateImplicitlyOpen: "IMPLICITLY_OPEN",
	StateExplicitlyOpen: "EXPLICITLY_OPEN",
	StateClosed:        "CLOSED",
	StateFull:          "FULL",
	StateReadOnly:      "READ_ONLY",
	StateOffline:       "OFFLINE",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "UNKNOWN"
}

// reportCode returns the nibble state code used on the wire (high nibble
// of the zs report-descriptor byte), per the NVMe ZNS command set.
func (s State) reportCode() uint8 {
	switch s {
	case StateEmpty:
		return 0x1
	case StateImplicitlyOpen:
		return 0x2
	case StateExplicitlyOpen:
		return 0x3
	case StateClosed:
		return 0x4
	case StateFull:
		return 0xE
	case StateReadOnly:
		return 0xD
	case StateOffline:
		return 0xF
	default:
		return 0x0
	}
}

// zaExtValid marks bit 0 of a zone's attribute byte: the zone-descriptor
// extension slot holds host-written data.
const zaExtValid uint8 = 1 << 0

// noLink is the sentinel for "not a member of any state list".
const noLink int32 = -1

// zone is a single zone record, per spec.md §3. zslba and zcap never
// change after namespace init. wp is the host-visible write pointer
// (advances at write finalize); wPtr is the internal reserved pointer
// (advances at write submission). See SPEC_FULL.md and spec.md §9 on why
// these are kept distinct.
type zone struct {
	zt    ZoneType
	state State
	zslba uint64
	zcap  uint64
	wp    uint64
	wPtr  uint64
	za    uint8

	// prev/next form the namespace's intrusive per-state doubly linked
	// list this zone belongs to, or noLink/noLink if the zone's state
	// isn't list-backed (EMPTY, READ_ONLY, OFFLINE carry no membership).
	prev, next int32

	// pendingWrites counts writes accepted (w_ptr advanced) but not yet
	// finalized (wp not yet caught up), modeling the suspension point of
	// spec.md §5. Management actions refuse to run against a zone while
	// this is nonzero (StatusZoneBusy), per SPEC_FULL.md's Open Question
	// decision.
	pendingWrites uint32
}

// end is the zone's write/capacity boundary: zslba + zcap.
func (z *zone) end() uint64 { return z.zslba + z.zcap }

// reportWP is the write pointer as it appears in a report descriptor:
// all-ones when the zone's wp isn't meaningful (READ_ONLY, OFFLINE).
func (z *zone) reportWP() uint64 {
	if z.state == StateReadOnly || z.state == StateOffline {
		return ^uint64(0)
	}
	return z.wp
}
