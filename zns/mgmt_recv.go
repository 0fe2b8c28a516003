package zns

// ReportType selects REPORT vs REPORT_EXTENDED, per spec.md §4.7.
type ReportType uint8

const (
	ReportZones ReportType = iota
	ReportZonesExtended
)

// ReportFilter selects which zone states a report includes.
type ReportFilter uint8

const (
	ReportFilterAll ReportFilter = iota
	ReportFilterEmpty
	ReportFilterImplicitlyOpen
	ReportFilterExplicitlyOpen
	ReportFilterClosed
	ReportFilterFull
	ReportFilterReadOnly
	ReportFilterOffline
)

func (f ReportFilter) matches(s State) bool {
	switch f {
	case ReportFilterAll:
		return true
	case ReportFilterEmpty:
		return s == StateEmpty
	case ReportFilterImplicitlyOpen:
		return s == StateImplicitlyOpen
	case ReportFilterExplicitlyOpen:
		return s == StateExplicitlyOpen
	case ReportFilterClosed:
		return s == StateClosed
	case ReportFilterFull:
		return s == StateFull
	case ReportFilterReadOnly:
		return s == StateReadOnly
	case ReportFilterOffline:
		return s == StateOffline
	default:
		return false
	}
}

// ManagementReceiveRequest decodes the host's zone-management-receive
// command, per spec.md §4.7.
type ManagementReceiveRequest struct {
	SLBA uint64
	ReportType
	Filter   ReportFilter
	Partial  bool
	DataSize uint64 // total bytes available in the host buffer
}

// ZoneReportEntry is a single report descriptor, per spec.md §6's
// on-wire layout. The trailing extension bytes are not part of the
// fixed-layout fields; they are carried in Extension so callers can place
// them per zd_extension_size.
type ZoneReportEntry struct {
	ZoneIndex uint32
	ZT        ZoneType
	ZS        uint8 // nibble state code, high nibble on the wire
	ZCAP      uint64
	ZSLBA     uint64
	WP        uint64
	ZA        uint8
	Extension []byte // nil unless requested and za.ext is set
}

// ZoneReport is the decoded result of ManagementReceive: a report header
// plus as many descriptors as fit, per spec.md §4.7's two-pass algorithm.
type ZoneReport struct {
	NrZones uint64 // count from Pass 1, may exceed len(Entries)
	Entries []ZoneReportEntry
}

// ReportHeaderSize and ReportDescriptorSize are the wire sizes EncodeReportHeader
// and EncodeReportDescriptor require, per spec.md §6.
const (
	ReportHeaderSize     = 64
	ReportDescriptorSize = 64

	reportHeaderSize     = ReportHeaderSize
	reportDescriptorSize = ReportDescriptorSize
)

// ManagementReceive implements the Report Zones command: a two-pass
// count-then-emit over the zone array starting at the zone containing
// slba, per spec.md §4.7.
func (ns *Namespace) ManagementReceive(req ManagementReceiveRequest) (ZoneReport, Status) {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	if req.ReportType == ReportZonesExtended && ns.geometry.ZDExtensionBytes == 0 {
		return ZoneReport{}, WithDNR(StatusInvalidField)
	}
	if req.DataSize < reportHeaderSize {
		return ZoneReport{}, WithDNR(StatusInvalidField)
	}

	start := ns.zoneOf(req.SLBA)

	entrySize := uint64(reportDescriptorSize)
	if req.ReportType == ReportZonesExtended {
		entrySize += uint64(ns.geometry.ZDExtensionBytes)
	}
	maxEntries := (req.DataSize - reportHeaderSize) / entrySize

	// Pass 1: count matches from start to the end of the namespace,
	// stopping early at maxEntries when partial is requested.
	var nrZones uint64
	for i := start; i < ns.geometry.NumZones; i++ {
		if !req.Filter.matches(ns.zones[i].state) {
			continue
		}
		nrZones++
		if req.Partial && nrZones >= maxEntries {
			break
		}
	}

	// Pass 2: emit up to maxEntries matching descriptors, starting again
	// at the requested zone.
	var entries []ZoneReportEntry
	for i := start; i < ns.geometry.NumZones && uint64(len(entries)) < maxEntries; i++ {
		z := &ns.zones[i]
		if !req.Filter.matches(z.state) {
			continue
		}
		entry := ZoneReportEntry{
			ZoneIndex: uint32(i),
			ZT:        z.zt,
			ZS:        z.state.reportCode(),
			ZCAP:      z.zcap,
			ZSLBA:     z.zslba,
			WP:        z.reportWP(),
			ZA:        z.za,
		}
		if req.ReportType == ReportZonesExtended {
			entry.Extension = ns.extensionOf(uint32(i))
		}
		entries = append(entries, entry)
	}

	return ZoneReport{NrZones: nrZones, Entries: entries}, StatusSuccess
}
