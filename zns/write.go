package zns

// WriteRequest describes a single WRITE or ZONE_APPEND command, per
// spec.md §4.4.
type WriteRequest struct {
	SLBA     uint64
	NLB      uint64 // count of logical blocks, >=1
	IsAppend bool
	Data     []byte
}

// WriteResult is the host-visible response to an accepted write: the
// actual starting LBA, which for ZONE_APPEND differs from the request's
// SLBA.
type WriteResult struct {
	SLBA uint64
}

// pendingWrite is the suspension-point token returned by SubmitWrite and
// consumed by FinalizeWrite, modeling spec.md §5's gap between write
// acceptance (w_ptr, AOR, list membership move) and finalization (wp, the
// possible move to FULL).
type pendingWrite struct {
	zone uint32
	nlb  uint64
}

// SubmitWrite runs the full validation chain of spec.md §4.4 in order,
// first failure short-circuiting with no side effects. On acceptance it
// advances w_ptr, forwards the data to the backend, and conditionally
// moves the zone into IMPLICITLY_OPEN — but does not yet advance wp or
// move a filled zone to FULL; that happens in FinalizeWrite, once the
// backend I/O this call kicked off has completed.
func (ns *Namespace) SubmitWrite(req WriteRequest) (WriteResult, *pendingWrite, Status) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if st := ns.checkMDTS(req.NLB); !st.OK() {
		return WriteResult{}, nil, st
	}

	end, overflow := addOverflows(req.SLBA, req.NLB)
	if overflow || end > ns.geometry.NamespaceSizeLBAs {
		return WriteResult{}, nil, WithDNR(StatusLBARange)
	}

	idx := ns.zoneOf(req.SLBA)
	z := &ns.zones[idx]

	if end > z.end() {
		return WriteResult{}, nil, WithDNR(StatusZoneBoundaryError)
	}

	switch z.state {
	case StateEmpty, StateImplicitlyOpen, StateExplicitlyOpen, StateClosed:
	case StateFull:
		return WriteResult{}, nil, WithDNR(StatusZoneFull)
	case StateReadOnly:
		return WriteResult{}, nil, WithDNR(StatusZoneReadOnly)
	case StateOffline:
		return WriteResult{}, nil, WithDNR(StatusZoneOffline)
	default:
		return WriteResult{}, nil, WithDNR(StatusZoneInvalidTransition)
	}

	if req.IsAppend {
		if req.SLBA != z.zslba {
			return WriteResult{}, nil, WithDNR(StatusInvalidField)
		}
		if req.NLB*uint64(ns.geometry.LBASizeBytes) > ns.geometry.appendLimitBytes() {
			return WriteResult{}, nil, WithDNR(StatusInvalidField)
		}
	} else {
		if req.SLBA != z.wPtr {
			return WriteResult{}, nil, WithDNR(StatusZoneInvalidWrite)
		}
	}

	preState := z.state
	switch preState {
	case StateEmpty:
		ns.autoEvictIfFull()
		if st := ns.aorCheck(1, 1); !st.OK() {
			return WriteResult{}, nil, st
		}
	case StateClosed:
		ns.autoEvictIfFull()
		if st := ns.aorCheck(0, 1); !st.OK() {
			return WriteResult{}, nil, st
		}
	}

	// Acceptance: appends always land at the current reserved pointer.
	slba := req.SLBA
	if req.IsAppend {
		slba = z.wPtr
	}
	resp := WriteResult{SLBA: z.wPtr}
	z.wPtr += req.NLB

	if z.wPtr < z.end() && (preState == StateEmpty || preState == StateClosed) {
		if preState == StateEmpty {
			ns.incActive()
		}
		ns.incOpen()
		ns.assignState(idx, StateImplicitlyOpen)
	}

	z.pendingWrites++

	if ns.backend != nil {
		offset := slba * uint64(ns.geometry.LBASizeBytes)
		if err := ns.backend.RW(offset, req.Data, true); err != nil {
			// The backend rejected the data movement outright; undo the
			// acceptance bookkeeping since nothing was actually written.
			z.pendingWrites--
			z.wPtr -= req.NLB
			if z.state != preState {
				if preState == StateEmpty {
					ns.decActive()
				}
				ns.decOpen()
				ns.assignState(idx, preState)
			}
			return WriteResult{}, nil, WithDNR(StatusInvalidField)
		}
	}

	return resp, &pendingWrite{zone: idx, nlb: req.NLB}, StatusSuccess
}

// FinalizeWrite completes a write accepted by SubmitWrite: advances wp,
// and if it has now reached the zone's capacity boundary, releases
// whatever AOR charge the zone was holding and transitions it to FULL.
func (ns *Namespace) FinalizeWrite(pw *pendingWrite) Status {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	z := &ns.zones[pw.zone]
	z.pendingWrites--
	z.wp += pw.nlb

	if z.wp == z.end() {
		ns.releaseOpenAndActive(z.state)
		ns.assignState(pw.zone, StateFull)
	}
	return StatusSuccess
}

// Write is a synchronous convenience wrapping SubmitWrite immediately
// followed by FinalizeWrite, for callers (and tests) that have no use for
// the suspension point — e.g. an in-memory reference Backend whose RW
// never actually suspends.
func (ns *Namespace) Write(req WriteRequest) (WriteResult, Status) {
	resp, pw, st := ns.SubmitWrite(req)
	if !st.OK() {
		return resp, st
	}
	return resp, ns.FinalizeWrite(pw)
}

func (ns *Namespace) checkMDTS(nlb uint64) Status {
	size := nlb * uint64(ns.geometry.LBASizeBytes)
	if ns.mdtsChecker != nil && !ns.mdtsChecker.Allowed(size) {
		return WithDNR(StatusInvalidField)
	}
	return StatusSuccess
}

// addOverflows reports a+b and whether that addition overflowed uint64.
func addOverflows(a, b uint64) (uint64, bool) {
	sum := a + b
	return sum, sum < a
}
