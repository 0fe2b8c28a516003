package zns

import "testing"

// TestScenarioS1SequentialFill exercises spec.md §8 S1: a single write
// that exactly fills an empty zone goes straight to FULL with zero AOR
// deltas.
func TestScenarioS1SequentialFill(t *testing.T) {
	ns := newScenarioNamespace(t)

	_, st := ns.Write(WriteRequest{SLBA: 0, NLB: 8, Data: make([]byte, 8*4096)})
	if !st.OK() {
		t.Fatalf("write: %v", st)
	}

	snap := ns.Snapshot()
	if snap[0].WP != 8 {
		t.Errorf("zone 0 wp = %d, want 8", snap[0].WP)
	}
	if snap[0].State != StateFull {
		t.Errorf("zone 0 state = %v, want FULL", snap[0].State)
	}
	active, open, _, _ := ns.Counters()
	if active != 0 || open != 0 {
		t.Errorf("active=%d open=%d, want 0,0", active, open)
	}
}

// TestScenarioS2InvalidWritePointer exercises spec.md §8 S2: a write
// that doesn't land on the zone's reserved write pointer is rejected.
func TestScenarioS2InvalidWritePointer(t *testing.T) {
	ns := newScenarioNamespace(t)

	if _, st := ns.Write(WriteRequest{SLBA: 0, NLB: 4, Data: make([]byte, 4*4096)}); !st.OK() {
		t.Fatalf("first write: %v", st)
	}

	_, st := ns.Write(WriteRequest{SLBA: 3, NLB: 4, Data: make([]byte, 4*4096)})
	if st.Code() != StatusZoneInvalidWrite {
		t.Errorf("second write status = %v, want ZONE_INVALID_WRITE", st)
	}
}

// TestScenarioS3AutoEvictImplicit exercises spec.md §8 S3: writing to a
// third zone while the open limit (2) is saturated with implicitly-open
// zones evicts the oldest implicitly-open zone to CLOSED first.
func TestScenarioS3AutoEvictImplicit(t *testing.T) {
	ns := newScenarioNamespace(t)

	for _, zoneIdx := range []uint64{0, 1} {
		slba := zoneIdx * 8
		if _, st := ns.Write(WriteRequest{SLBA: slba, NLB: 1, Data: make([]byte, 4096)}); !st.OK() {
			t.Fatalf("write to zone %d: %v", zoneIdx, st)
		}
	}

	if _, st := ns.Write(WriteRequest{SLBA: 16, NLB: 1, Data: make([]byte, 4096)}); !st.OK() {
		t.Fatalf("write to zone 2: %v", st)
	}

	snap := ns.Snapshot()
	if snap[0].State != StateClosed {
		t.Errorf("zone 0 state = %v, want CLOSED", snap[0].State)
	}
	if snap[1].State != StateImplicitlyOpen {
		t.Errorf("zone 1 state = %v, want IMPLICITLY_OPEN", snap[1].State)
	}
	if snap[2].State != StateImplicitlyOpen {
		t.Errorf("zone 2 state = %v, want IMPLICITLY_OPEN", snap[2].State)
	}
	_, open, _, _ := ns.Counters()
	if open != 2 {
		t.Errorf("nr_open = %d, want 2", open)
	}
}

// TestScenarioS4OpenLimit exercises spec.md §8 S4: a third explicit open
// against a saturated open limit fails with no eviction and no state
// change to the rejected zone.
func TestScenarioS4OpenLimit(t *testing.T) {
	ns := newScenarioNamespace(t)

	for _, idx := range []uint32{0, 1} {
		if st := ns.ManagementSend(ManagementSendRequest{Action: ZoneActionOpen, SLBA: uint64(idx) * 8}); !st.OK() {
			t.Fatalf("open zone %d: %v", idx, st)
		}
	}

	st := ns.ManagementSend(ManagementSendRequest{Action: ZoneActionOpen, SLBA: 16})
	if st.Code() != StatusZoneTooManyOpen {
		t.Fatalf("open zone 2 status = %v, want ZONE_TOO_MANY_OPEN", st)
	}

	snap := ns.Snapshot()
	if snap[2].State != StateEmpty {
		t.Errorf("zone 2 state = %v, want EMPTY (unchanged)", snap[2].State)
	}
	if snap[0].State != StateExplicitlyOpen || snap[1].State != StateExplicitlyOpen {
		t.Errorf("zones 0,1 = %v,%v, want both EXPLICITLY_OPEN (no eviction)", snap[0].State, snap[1].State)
	}
}

// TestScenarioS5Append exercises spec.md §8 S5: successive appends to an
// empty zone land at the current reserved pointer and advance it.
func TestScenarioS5Append(t *testing.T) {
	ns := newScenarioNamespace(t)

	resp, st := ns.Write(WriteRequest{SLBA: 0, NLB: 3, IsAppend: true, Data: make([]byte, 3*4096)})
	if !st.OK() {
		t.Fatalf("first append: %v", st)
	}
	if resp.SLBA != 0 {
		t.Errorf("first append response slba = %d, want 0", resp.SLBA)
	}
	if snap := ns.Snapshot(); snap[0].WP != 3 || snap[0].State != StateImplicitlyOpen {
		t.Errorf("after first append: wp=%d state=%v, want wp=3 IMPLICITLY_OPEN", snap[0].WP, snap[0].State)
	}

	resp, st = ns.Write(WriteRequest{SLBA: 0, NLB: 3, IsAppend: true, Data: make([]byte, 3*4096)})
	if !st.OK() {
		t.Fatalf("second append: %v", st)
	}
	if resp.SLBA != 3 {
		t.Errorf("second append response slba = %d, want 3", resp.SLBA)
	}
	if snap := ns.Snapshot(); snap[0].WP != 6 {
		t.Errorf("after second append: wp=%d, want 6", snap[0].WP)
	}
}

// TestScenarioS6ReportPartial exercises spec.md §8 S6: a partial report
// starting mid-namespace stops at the requested entry count, and the
// header's nr_zones reflects how many actually match from the start
// zone onward regardless of partial.
func TestScenarioS6ReportPartial(t *testing.T) {
	ns := newScenarioNamespace(t)

	headerAndTwo := uint64(reportHeaderSize + 2*reportDescriptorSize)

	report, st := ns.ManagementReceive(ManagementReceiveRequest{
		SLBA: 16, Filter: ReportFilterAll, Partial: true, DataSize: headerAndTwo,
	})
	if !st.OK() {
		t.Fatalf("report: %v", st)
	}
	if report.NrZones != 2 {
		t.Errorf("partial=1 nr_zones = %d, want 2", report.NrZones)
	}
	if len(report.Entries) != 2 || report.Entries[0].ZoneIndex != 2 || report.Entries[1].ZoneIndex != 3 {
		t.Errorf("entries = %+v, want zones 2,3", report.Entries)
	}

	report, st = ns.ManagementReceive(ManagementReceiveRequest{
		SLBA: 16, Filter: ReportFilterAll, Partial: false, DataSize: headerAndTwo,
	})
	if !st.OK() {
		t.Fatalf("report: %v", st)
	}
	if report.NrZones != 2 {
		t.Errorf("partial=0 nr_zones = %d, want 2", report.NrZones)
	}
}

// TestScenarioS7CrossZoneRead exercises spec.md §8 S7.
func TestScenarioS7CrossZoneRead(t *testing.T) {
	ns := newScenarioNamespace(t)

	st := ns.Read(ReadRequest{SLBA: 6, NLB: 4}, make([]byte, 4*4096))
	if st.Code() != StatusZoneBoundaryError {
		t.Fatalf("cross_zone_read=false status = %v, want ZONE_BOUNDARY_ERROR", st)
	}

	ns2, err := NewNamespace(func() Config {
		c := scenarioConfig()
		c.CrossZoneRead = true
		return c
	}(), newFakeBackend(4*8*4096))
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	if st := ns2.Read(ReadRequest{SLBA: 6, NLB: 4}, make([]byte, 4*4096)); !st.OK() {
		t.Fatalf("cross_zone_read=true status = %v, want SUCCESS", st)
	}
}
