package zns

// This file implements the six per-zone management transitions of
// spec.md §4.3: OPEN, CLOSE, FINISH, RESET, OFFLINE, SET_ZD_EXT. Each
// method assumes ns.mu is already held by the caller (ManagementSend
// serializes every transition under the namespace lock).

// openZone implements the OPEN transition. EMPTY and CLOSED pre-states
// call autoEvictIfFull before their own AOR check, per spec.md's transition
// table; EMPTY additionally charges active (rolled back if the open check
// then fails, so a rejected open leaves the zone's state and counters
// exactly as they were — spec.md §8 scenario S4).
func (ns *Namespace) openZone(idx uint32) Status {
	z := &ns.zones[idx]
	switch z.state {
	case StateEmpty:
		ns.autoEvictIfFull()
		if st := ns.aorCheck(1, 0); !st.OK() {
			return st
		}
		ns.incActive()
		if st := ns.aorCheck(0, 1); !st.OK() {
			ns.decActive()
			return st
		}
		ns.incOpen()
		ns.assignState(idx, StateExplicitlyOpen)
		return StatusSuccess

	case StateClosed:
		ns.autoEvictIfFull()
		if st := ns.aorCheck(0, 1); !st.OK() {
			return st
		}
		ns.incOpen()
		ns.assignState(idx, StateExplicitlyOpen)
		return StatusSuccess

	case StateImplicitlyOpen:
		ns.assignState(idx, StateExplicitlyOpen)
		return StatusSuccess

	case StateExplicitlyOpen:
		return StatusSuccess

	default:
		return WithDNR(StatusZoneInvalidTransition)
	}
}

// closeZone implements the CLOSE transition: open zones (implicit or
// explicit) release their open charge and become CLOSED; CLOSED is a
// no-op success.
func (ns *Namespace) closeZone(idx uint32) Status {
	z := &ns.zones[idx]
	switch z.state {
	case StateImplicitlyOpen, StateExplicitlyOpen:
		ns.decOpen()
		ns.assignState(idx, StateClosed)
		return StatusSuccess

	case StateClosed:
		return StatusSuccess

	default:
		return WithDNR(StatusZoneInvalidTransition)
	}
}

// releaseOpenAndActive releases whatever AOR charge a zone in the given
// pre-transition state is holding: open zones release both open and
// active, CLOSED releases only active, EMPTY releases neither. This is
// the shared release ladder behind FINISH and the write path's
// fill-to-FULL transition (see write.go), both of which force a zone to
// FULL regardless of its pre-state.
func (ns *Namespace) releaseOpenAndActive(preState State) {
	switch preState {
	case StateImplicitlyOpen, StateExplicitlyOpen:
		ns.decOpen()
		ns.decActive()
	case StateClosed:
		ns.decActive()
	}
}

// finishZone implements the FINISH transition: the zone is forced to its
// capacity boundary and marked FULL regardless of how much of it was
// actually written, releasing whichever charges it held. Going straight
// from EMPTY releases nothing — a never-activated zone was never charged.
func (ns *Namespace) finishZone(idx uint32) Status {
	z := &ns.zones[idx]
	switch z.state {
	case StateEmpty, StateImplicitlyOpen, StateExplicitlyOpen, StateClosed:
		ns.releaseOpenAndActive(z.state)

	case StateFull:
		return StatusSuccess

	default:
		return WithDNR(StatusZoneInvalidTransition)
	}

	z.wPtr = z.end()
	z.wp = z.end()
	ns.assignState(idx, StateFull)
	return StatusSuccess
}

// resetZone implements the RESET transition: the zone is wiped back to
// EMPTY, releasing whichever charges it held and clearing any staged
// descriptor extension. EMPTY is a no-op success. Resetting a FULL zone
// releases no active charge: the reference's release ladder (open -> dec
// open, closed -> dec active) is never entered when the pre-state is FULL,
// since FULL sits below CLOSED in that chain — not one of the bugs spec.md
// §9 flags, so the asymmetry is preserved rather than "corrected".
func (ns *Namespace) resetZone(idx uint32) Status {
	z := &ns.zones[idx]
	switch z.state {
	case StateEmpty:
		return StatusSuccess

	case StateImplicitlyOpen, StateExplicitlyOpen:
		ns.decOpen()
		ns.decActive()

	case StateClosed:
		ns.decActive()

	case StateFull:
		// no AOR release

	default:
		return WithDNR(StatusZoneInvalidTransition)
	}

	z.za &^= zaExtValid
	ns.clearExtension(idx)
	z.wPtr = z.zslba
	z.wp = z.zslba
	ns.assignState(idx, StateEmpty)
	return StatusSuccess
}

// offlineZone implements the OFFLINE transition: only a READ_ONLY zone may
// be taken offline. READ_ONLY zones hold no AOR charge, so no counter
// changes. OFFLINE zones carry no list membership (see listForState),
// matching EMPTY and READ_ONLY.
func (ns *Namespace) offlineZone(idx uint32) Status {
	z := &ns.zones[idx]
	switch z.state {
	case StateReadOnly:
		ns.assignState(idx, StateOffline)
		return StatusSuccess

	case StateOffline:
		return StatusSuccess

	default:
		return WithDNR(StatusZoneInvalidTransition)
	}
}

// setZDExt implements SET_ZD_EXT: stages ext as the zone's descriptor
// extension while the zone is EMPTY, charging active the same way OPEN
// does from EMPTY. Unlike the reference implementation (spec.md §9), a
// failed admission check here returns its real error status instead of a
// SUCCESS/FAILURE-inverted one, and the zone's state/counters are left
// unchanged on failure.
func (ns *Namespace) setZDExt(idx uint32, ext []byte) Status {
	z := &ns.zones[idx]
	if z.state != StateEmpty {
		return WithDNR(StatusZoneInvalidTransition)
	}

	ns.autoEvictIfFull()
	if st := ns.aorCheck(1, 0); !st.OK() {
		return st
	}
	ns.incActive()
	ns.setExtension(idx, ext)
	z.za |= zaExtValid
	ns.assignState(idx, StateClosed)
	return StatusSuccess
}
