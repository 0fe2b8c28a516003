package zns

// IdentifyPayload is the zoned-namespace identify data the host reads via
// Identify Namespace Data Structure (CNS 05h), per spec.md §6.
type IdentifyPayload struct {
	// MAR is zero-based: max_active-1, or 0xFFFFFFFF for "no limit".
	MAR uint32
	// MOR is zero-based: max_open-1, or 0xFFFFFFFF for "no limit".
	MOR uint32
	ZOC uint8
	// OZCS bit 0 reflects cross-zone read support.
	OZCS uint8
	// ZSZE is the zone size in LBAs (lbafe[lba_index].zsze).
	ZSZE uint64
	// ZDES is the descriptor-extension size in units of 64B.
	ZDES uint8
	NSZE uint64
	NCAP uint64
	NUSE uint64
	// DULBESupported is cleared when zone size isn't a multiple of the
	// deallocation granularity (npdg+1), per spec.md §6.
	DULBESupported bool
}

func noLimit(max uint32) uint32 {
	if max == 0 {
		return 0xFFFFFFFF
	}
	return max - 1
}

// identifyPayload builds the identify payload for the given geometry and
// configured limits. npdg+1 is the deallocation granularity in LBAs; pass
// 0 if DULBE doesn't apply to the backing store.
func identifyPayload(g Geometry, maxActive, maxOpen uint32, npdgPlusOne uint64) IdentifyPayload {
	var ozcs uint8
	if g.CrossZoneRead {
		ozcs = 1
	}

	dulbe := true
	if npdgPlusOne != 0 && g.ZoneSizeLBAs%npdgPlusOne != 0 {
		dulbe = false
	}

	return IdentifyPayload{
		MAR:            noLimit(maxActive),
		MOR:            noLimit(maxOpen),
		ZOC:            0,
		OZCS:           ozcs,
		ZSZE:           g.ZoneSizeLBAs,
		ZDES:           uint8(g.ZDExtensionBytes / zdExtensionGranule),
		NSZE:           g.NamespaceSizeLBAs,
		NCAP:           g.NamespaceSizeLBAs,
		NUSE:           g.NamespaceSizeLBAs,
		DULBESupported: dulbe,
	}
}
