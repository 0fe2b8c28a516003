package zns

import "github.com/pkg/errors"

// Opcode identifies an I/O command the adapter accepts, per spec.md §4.8.
type Opcode uint8

const (
	OpcodeRead Opcode = iota + 1
	OpcodeWrite
	OpcodeZoneMgmtSend
	OpcodeZoneMgmtRecv
	OpcodeZoneAppend
)

// Command is the decoded host-command-adapter input: an opcode plus the
// raw command dwords it carries, per spec.md §6's wire layout. Data is
// the host-supplied buffer (write/append source, read destination, or
// mgmt-send's SET_ZD_EXT payload); DataSize is the mgmt-receive host
// buffer's capacity in bytes.
type Command struct {
	Opcode Opcode
	CDW10  uint32
	CDW11  uint32
	CDW12  uint32
	CDW13  uint32
	Data   []byte
	// DataSize is only consulted for ZONE_MGMT_RECV, where the host
	// buffer's capacity bounds how many report entries can be emitted.
	DataSize uint64
}

// CommandResult is the adapter's decoded response: the status every
// command produces, plus whichever payload is specific to that opcode.
type CommandResult struct {
	Status      Status
	WriteResult WriteResult
	ZoneReport  ZoneReport
}

const (
	cdw13ActionMask = 0xFF
	cdw13AllBit     = 1 << 8
	cdw13PartialBit = 1 << 16
)

// Execute decodes cmd per spec.md §6 and routes it to the matching core
// operation. Any opcode outside the five this command set defines returns
// INVALID_OPCODE. If an observer was installed via
// Namespace.SetCommandObserver, it is notified with the resulting status
// before Execute returns.
func (ns *Namespace) Execute(cmd Command) (CommandResult, error) {
	res, opName := ns.dispatch(cmd)

	ns.mu.Lock()
	observer := ns.commandObserver
	ns.mu.Unlock()
	if observer != nil {
		observer(opName, res.Status)
	}

	if !res.Status.OK() && res.Status.Code() == StatusInvalidOpcode {
		return res, errors.Errorf("zns: unsupported opcode %#02x", cmd.Opcode)
	}
	return res, nil
}

func (ns *Namespace) dispatch(cmd Command) (CommandResult, string) {
	switch cmd.Opcode {
	case OpcodeWrite, OpcodeZoneAppend:
		slba := decodeLBA(cmd.CDW10, cmd.CDW11)
		nlb := decodeNLB(cmd.CDW12)
		resp, st := ns.Write(WriteRequest{
			SLBA:     slba,
			NLB:      nlb,
			IsAppend: cmd.Opcode == OpcodeZoneAppend,
			Data:     cmd.Data,
		})
		return CommandResult{Status: st, WriteResult: resp}, "write"

	case OpcodeRead:
		slba := decodeLBA(cmd.CDW10, cmd.CDW11)
		nlb := decodeNLB(cmd.CDW12)
		st := ns.Read(ReadRequest{SLBA: slba, NLB: nlb}, cmd.Data)
		return CommandResult{Status: st}, "read"

	case OpcodeZoneMgmtSend:
		slba := decodeLBA(cmd.CDW10, cmd.CDW11)
		action := ZoneAction(cmd.CDW13 & cdw13ActionMask)
		all := cmd.CDW13&cdw13AllBit != 0
		st := ns.ManagementSend(ManagementSendRequest{
			Action: action,
			SLBA:   slba,
			All:    all,
			Ext:    cmd.Data,
		})
		return CommandResult{Status: st}, "zone_mgmt_send"

	case OpcodeZoneMgmtRecv:
		slba := decodeLBA(cmd.CDW10, cmd.CDW11)
		reportType := ReportType(cmd.CDW13 & 0xFF)
		filter := ReportFilter((cmd.CDW13 >> 8) & 0xFF)
		partial := cmd.CDW13&cdw13PartialBit != 0
		dataSize := (uint64(cmd.CDW12) + 1) * 4
		if cmd.DataSize != 0 {
			dataSize = cmd.DataSize
		}
		report, st := ns.ManagementReceive(ManagementReceiveRequest{
			SLBA:       slba,
			ReportType: reportType,
			Filter:     filter,
			Partial:    partial,
			DataSize:   dataSize,
		})
		return CommandResult{Status: st, ZoneReport: report}, "zone_mgmt_recv"

	default:
		return CommandResult{Status: WithDNR(StatusInvalidOpcode)}, "unknown"
	}
}
