package zns

import "testing"

func TestExecuteWriteThenRead(t *testing.T) {
	ns := newScenarioNamespace(t)

	writeData := make([]byte, 4*4096)
	for i := range writeData {
		writeData[i] = 0x42
	}

	res, err := ns.Execute(Command{
		Opcode: OpcodeWrite,
		CDW10:  0,
		CDW11:  0,
		CDW12:  3, // nlb-1 = 3 -> nlb = 4
		Data:   writeData,
	})
	if err != nil {
		t.Fatalf("Execute write: %v", err)
	}
	if !res.Status.OK() {
		t.Fatalf("write status: %v", res.Status)
	}

	readBuf := make([]byte, 4*4096)
	res, err = ns.Execute(Command{Opcode: OpcodeRead, CDW10: 0, CDW11: 0, CDW12: 3, Data: readBuf})
	if err != nil {
		t.Fatalf("Execute read: %v", err)
	}
	if !res.Status.OK() {
		t.Fatalf("read status: %v", res.Status)
	}
	for i, b := range readBuf {
		if b != 0x42 {
			t.Fatalf("byte %d = %#x, want 0x42", i, b)
		}
	}
}

func TestExecuteUnsupportedOpcode(t *testing.T) {
	ns := newScenarioNamespace(t)

	res, err := ns.Execute(Command{Opcode: Opcode(0xFF)})
	if err == nil {
		t.Fatal("expected an error for an unsupported opcode")
	}
	if res.Status.Code() != StatusInvalidOpcode {
		t.Fatalf("status = %v, want INVALID_OPCODE", res.Status)
	}
}

func TestExecuteZoneMgmtSendAndRecv(t *testing.T) {
	ns := newScenarioNamespace(t)

	// Open zone 0 explicitly via the adapter's cdw13 action/all encoding.
	res, err := ns.Execute(Command{
		Opcode: OpcodeZoneMgmtSend,
		CDW10:  0,
		CDW11:  0,
		CDW13:  uint32(ZoneActionOpen),
	})
	if err != nil || !res.Status.OK() {
		t.Fatalf("zone mgmt send open: status=%v err=%v", res.Status, err)
	}

	buf := make([]byte, reportHeaderSize+4*reportDescriptorSize)
	res, err = ns.Execute(Command{
		Opcode:   OpcodeZoneMgmtRecv,
		CDW10:    0,
		CDW11:    0,
		CDW13:    uint32(ReportZones) | uint32(ReportFilterAll)<<8,
		DataSize: uint64(len(buf)),
	})
	if err != nil {
		t.Fatalf("zone mgmt recv: %v", err)
	}
	if !res.Status.OK() {
		t.Fatalf("zone mgmt recv status: %v", res.Status)
	}
	if res.ZoneReport.NrZones != 4 {
		t.Fatalf("nr_zones = %d, want 4", res.ZoneReport.NrZones)
	}
	if res.ZoneReport.Entries[0].ZS != StateExplicitlyOpen.reportCode() {
		t.Fatalf("zone 0 report state = %#x, want EXPLICITLY_OPEN", res.ZoneReport.Entries[0].ZS)
	}
}

func TestCommandObserverNotified(t *testing.T) {
	ns := newScenarioNamespace(t)

	var gotOp string
	var gotStatus Status
	ns.SetCommandObserver(func(opcode string, status Status) {
		gotOp = opcode
		gotStatus = status
	})

	if _, err := ns.Execute(Command{Opcode: OpcodeRead, CDW12: 0, Data: make([]byte, 4096)}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotOp != "read" {
		t.Fatalf("observed opcode = %q, want %q", gotOp, "read")
	}
	if !gotStatus.OK() {
		t.Fatalf("observed status = %v, want SUCCESS", gotStatus)
	}
}
