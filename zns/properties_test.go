package zns

import (
	"math/rand"
	"testing"
)

// checkListInvariants verifies spec.md §3 invariants 1-5 (P1).
func checkListInvariants(t *testing.T, ns *Namespace) {
	t.Helper()

	var expOpen, impOpen, closed, full int
	for i := range ns.zones {
		switch ns.zones[i].state {
		case StateExplicitlyOpen:
			expOpen++
		case StateImplicitlyOpen:
			impOpen++
		case StateClosed:
			closed++
		case StateFull:
			full++
		}
	}

	active, open, maxActive, maxOpen := ns.Counters()
	if int(open) != expOpen+impOpen {
		t.Errorf("nr_open_zones=%d, want %d (exp_open=%d + imp_open=%d)", open, expOpen+impOpen, expOpen, impOpen)
	}
	if int(active) != expOpen+impOpen+closed {
		t.Errorf("nr_active_zones=%d, want %d", active, expOpen+impOpen+closed)
	}
	if maxOpen != 0 && open > maxOpen {
		t.Errorf("nr_open_zones=%d exceeds max_open_zones=%d", open, maxOpen)
	}
	if maxActive != 0 && active > maxActive {
		t.Errorf("nr_active_zones=%d exceeds max_active_zones=%d", active, maxActive)
	}

	for id, count := range map[listID]int{listExpOpen: expOpen, listImpOpen: impOpen, listClosed: closed, listFull: full} {
		if got := len(ns.listSnapshot(id)); got != count {
			t.Errorf("list %d has %d members, want %d", id, got, count)
		}
	}
}

// checkWPInvariants verifies spec.md §8 P2/P3 for every zone.
func checkWPInvariants(t *testing.T, ns *Namespace) {
	t.Helper()
	for i := range ns.zones {
		z := &ns.zones[i]
		switch z.state {
		case StateEmpty, StateClosed, StateImplicitlyOpen, StateExplicitlyOpen, StateFull:
			if !(z.zslba <= z.wp && z.wp <= z.wPtr && z.wPtr <= z.end()) {
				t.Errorf("zone %d: zslba=%d wp=%d w_ptr=%d end=%d violates P2", i, z.zslba, z.wp, z.wPtr, z.end())
			}
		}
		wantEmptyWP := z.state == StateEmpty || (z.state == StateClosed && z.za&zaExtValid != 0)
		if (z.wp == z.zslba) != wantEmptyWP {
			t.Errorf("zone %d: wp==zslba is %v, want %v (P3)", i, z.wp == z.zslba, wantEmptyWP)
		}
		if (z.wp == z.end()) != (z.state == StateFull) {
			t.Errorf("zone %d: wp==end is %v, want %v (P3)", i, z.wp == z.end(), z.state == StateFull)
		}
	}
}

// TestPropertyRandomCommandSequence runs a long pseudo-random sequence of
// writes and zone-management actions and checks P1-P3 after every step,
// per spec.md §8.
func TestPropertyRandomCommandSequence(t *testing.T) {
	ns := newScenarioNamespace(t)
	rng := rand.New(rand.NewSource(1))

	for step := 0; step < 2000; step++ {
		zoneIdx := uint32(rng.Intn(int(ns.ZoneCount())))
		z := &ns.zones[zoneIdx]

		switch rng.Intn(6) {
		case 0:
			nlb := uint64(rng.Intn(3) + 1)
			ns.Write(WriteRequest{SLBA: z.wPtr, NLB: nlb, Data: make([]byte, nlb*4096)})
		case 1:
			ns.ManagementSend(ManagementSendRequest{Action: ZoneActionOpen, SLBA: z.zslba})
		case 2:
			ns.ManagementSend(ManagementSendRequest{Action: ZoneActionClose, SLBA: z.zslba})
		case 3:
			ns.ManagementSend(ManagementSendRequest{Action: ZoneActionFinish, SLBA: z.zslba})
		case 4:
			ns.ManagementSend(ManagementSendRequest{Action: ZoneActionReset, SLBA: z.zslba})
		case 5:
			ns.ManagementSend(ManagementSendRequest{Action: ZoneActionSetZDExt, SLBA: z.zslba})
		}

		checkListInvariants(t, ns)
		checkWPInvariants(t, ns)
		if t.Failed() {
			t.Fatalf("invariant violated after step %d", step)
		}
	}
}

// TestPropertyAppendFillThenOverflow exercises P4: repeated appends fill a
// zone exactly, and the append past capacity fails with ZONE_FULL.
func TestPropertyAppendFillThenOverflow(t *testing.T) {
	ns := newScenarioNamespace(t)
	const k = 2 // LBAs per append; zcap=8, so 4 appends fill it

	var resp WriteResult
	var st Status
	for i := 0; i < 4; i++ {
		resp, st = ns.Write(WriteRequest{SLBA: 0, NLB: k, IsAppend: true, Data: make([]byte, k*4096)})
		if !st.OK() {
			t.Fatalf("append %d: %v", i, st)
		}
	}
	if resp.SLBA != 6 {
		t.Fatalf("last append response slba = %d, want 6", resp.SLBA)
	}
	if snap := ns.Snapshot(); snap[0].WP != 8 || snap[0].State != StateFull {
		t.Fatalf("after 4 appends: wp=%d state=%v, want wp=8 FULL", snap[0].WP, snap[0].State)
	}

	_, st = ns.Write(WriteRequest{SLBA: 0, NLB: k, IsAppend: true, Data: make([]byte, k*4096)})
	if st.Code() != StatusZoneFull {
		t.Fatalf("append past capacity status = %v, want ZONE_FULL", st)
	}
}

// TestPropertyResetThenReportEmpty exercises P5: after resetting any zone,
// a report shows it EMPTY with wp=zslba.
func TestPropertyResetThenReportEmpty(t *testing.T) {
	ns := newScenarioNamespace(t)

	if _, st := ns.Write(WriteRequest{SLBA: 0, NLB: 4, Data: make([]byte, 4*4096)}); !st.OK() {
		t.Fatalf("write: %v", st)
	}
	if st := ns.ManagementSend(ManagementSendRequest{Action: ZoneActionReset, SLBA: 0}); !st.OK() {
		t.Fatalf("reset: %v", st)
	}

	report, st := ns.ManagementReceive(ManagementReceiveRequest{
		SLBA: 0, Filter: ReportFilterAll, DataSize: reportHeaderSize + 4*reportDescriptorSize,
	})
	if !st.OK() {
		t.Fatalf("report: %v", st)
	}
	if len(report.Entries) == 0 || report.Entries[0].ZS != StateEmpty.reportCode() {
		t.Fatalf("zone 0 report state = %#x, want EMPTY", report.Entries[0].ZS)
	}
	if report.Entries[0].WP != 0 {
		t.Fatalf("zone 0 report wp = %d, want 0 (zslba)", report.Entries[0].WP)
	}
}

// TestPropertyReportRoundTrip exercises P6: the sum over all filter-per-
// state reports equals num_zones.
func TestPropertyReportRoundTrip(t *testing.T) {
	ns := newScenarioNamespace(t)

	if _, st := ns.Write(WriteRequest{SLBA: 0, NLB: 1, Data: make([]byte, 4096)}); !st.OK() {
		t.Fatalf("write zone 0: %v", st)
	}
	if st := ns.ManagementSend(ManagementSendRequest{Action: ZoneActionOpen, SLBA: 8}); !st.OK() {
		t.Fatalf("open zone 1: %v", st)
	}
	if _, st := ns.Write(WriteRequest{SLBA: 16, NLB: 8, Data: make([]byte, 8*4096)}); !st.OK() {
		t.Fatalf("fill zone 2: %v", st)
	}

	filters := []ReportFilter{
		ReportFilterEmpty, ReportFilterImplicitlyOpen, ReportFilterExplicitlyOpen,
		ReportFilterClosed, ReportFilterFull, ReportFilterReadOnly, ReportFilterOffline,
	}
	var total uint64
	for _, f := range filters {
		report, st := ns.ManagementReceive(ManagementReceiveRequest{
			SLBA: 0, Filter: f, DataSize: reportHeaderSize + 4*reportDescriptorSize,
		})
		if !st.OK() {
			t.Fatalf("report filter %d: %v", f, st)
		}
		total += report.NrZones
	}
	if total != uint64(ns.ZoneCount()) {
		t.Fatalf("sum of per-state reports = %d, want %d", total, ns.ZoneCount())
	}
}
