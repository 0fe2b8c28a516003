package zns

// ZoneAction identifies a zone-management action, per spec.md §4.6.
type ZoneAction uint8

const (
	ZoneActionOpen ZoneAction = iota + 1
	ZoneActionClose
	ZoneActionFinish
	ZoneActionReset
	ZoneActionOffline
	ZoneActionSetZDExt
)

// ManagementSendRequest decodes the host's zone-management-send command,
// per spec.md §4.6.
type ManagementSendRequest struct {
	Action ZoneAction
	SLBA   uint64
	All    bool
	// Ext carries the zd_extension_size bytes to stage for SET_ZD_EXT.
	Ext []byte
}

// ManagementSend dispatches a single-zone or bulk zone-management action.
// A zone with an unfinalized write in flight (pendingWrites != 0) refuses
// any management action against it with the transient StatusZoneBusy,
// rather than draining or blocking — the core doesn't own backend
// completion timing (see spec.md §5, SPEC_FULL.md's Open Question
// decision).
func (ns *Namespace) ManagementSend(req ManagementSendRequest) Status {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	op, ok := zoneOps[req.Action]
	if !ok {
		return WithDNR(StatusInvalidField)
	}

	if !req.All {
		idx, ok := ns.exactZoneIndex(req.SLBA)
		if !ok {
			return WithDNR(StatusInvalidField)
		}
		return ns.applyOp(op, idx, req)
	}

	if req.Action == ZoneActionSetZDExt {
		return WithDNR(StatusInvalidField)
	}

	// Per spec.md §4.6, a busy zone (a write still awaiting finalization) is skipped
	// rather than aborting the whole scope: only the first error other
	// than StatusZoneBusy stops processing, matching zns_do_zone_op's
	// `if (status && status != NVME_NO_COMPLETE) goto out;` in the
	// reference implementation.
	busy := false
	for _, idx := range ns.bulkScope(req.Action) {
		st := ns.applyOp(op, idx, req)
		if st == StatusZoneBusy {
			busy = true
			continue
		}
		if !st.OK() {
			return st
		}
	}
	if busy {
		return StatusZoneBusy
	}
	return StatusSuccess
}

type zoneOp func(ns *Namespace, idx uint32, req ManagementSendRequest) Status

var zoneOps = map[ZoneAction]zoneOp{
	ZoneActionOpen:    func(ns *Namespace, idx uint32, _ ManagementSendRequest) Status { return ns.openZone(idx) },
	ZoneActionClose:   func(ns *Namespace, idx uint32, _ ManagementSendRequest) Status { return ns.closeZone(idx) },
	ZoneActionFinish:  func(ns *Namespace, idx uint32, _ ManagementSendRequest) Status { return ns.finishZone(idx) },
	ZoneActionReset:   func(ns *Namespace, idx uint32, _ ManagementSendRequest) Status { return ns.resetZone(idx) },
	ZoneActionOffline: func(ns *Namespace, idx uint32, _ ManagementSendRequest) Status { return ns.offlineZone(idx) },
	ZoneActionSetZDExt: func(ns *Namespace, idx uint32, req ManagementSendRequest) Status {
		return ns.setZDExt(idx, req.Ext)
	},
}

// applyOp runs a single zone through op, first checking that the zone has
// no unfinalized write pending.
func (ns *Namespace) applyOp(op zoneOp, idx uint32, req ManagementSendRequest) Status {
	if ns.zones[idx].pendingWrites != 0 {
		return StatusZoneBusy
	}
	return op(ns, idx, req)
}

// exactZoneIndex resolves slba to a zone only when it is exactly that
// zone's zslba, per spec.md §4.6's all==0 requirement.
func (ns *Namespace) exactZoneIndex(slba uint64) (uint32, bool) {
	if slba >= ns.geometry.NamespaceSizeLBAs {
		return 0, false
	}
	idx := ns.zoneOf(slba)
	if ns.zones[idx].zslba != slba {
		return 0, false
	}
	return idx, true
}

// bulkScope returns the snapshot of zone indices an `all` action applies
// to, per spec.md §4.6's per-action scope table. Snapshotting first keeps
// bulk iteration safe against the very list mutations each transition
// performs (see listSnapshot).
func (ns *Namespace) bulkScope(action ZoneAction) []uint32 {
	switch action {
	case ZoneActionOpen:
		return ns.listSnapshot(listClosed)

	case ZoneActionClose:
		return append(ns.listSnapshot(listExpOpen), ns.listSnapshot(listImpOpen)...)

	case ZoneActionFinish:
		out := append(ns.listSnapshot(listExpOpen), ns.listSnapshot(listImpOpen)...)
		return append(out, ns.listSnapshot(listClosed)...)

	case ZoneActionReset:
		out := append(ns.listSnapshot(listExpOpen), ns.listSnapshot(listImpOpen)...)
		out = append(out, ns.listSnapshot(listClosed)...)
		return append(out, ns.listSnapshot(listFull)...)

	case ZoneActionOffline:
		// READ_ONLY zones carry no list membership (see listForState), so
		// the bulk scope is a direct scan of the zone array rather than a
		// snapshot of a state list — this is also what sidesteps the
		// dangling-pointer bulk-iteration bug spec.md §9 flags for this
		// exact case.
		var out []uint32
		for i := range ns.zones {
			if ns.zones[i].state == StateReadOnly {
				out = append(out, uint32(i))
			}
		}
		return out

	default:
		return nil
	}
}
