package zns

import "encoding/binary"

// This file encodes the on-wire layouts of spec.md §6. All integers on
// the wire are little-endian, per the NVMe ZNS command set; the core
// converts at this boundary and never carries wire byte order past it.

// EncodeReportHeader writes the report header (nr_zones, 8 bytes LE,
// followed by reserved padding to reportHeaderSize) into dst, which must
// be at least reportHeaderSize bytes.
func EncodeReportHeader(dst []byte, nrZones uint64) {
	binary.LittleEndian.PutUint64(dst[0:8], nrZones)
	for i := 8; i < reportHeaderSize; i++ {
		dst[i] = 0
	}
}

// EncodeReportDescriptor writes a single zone report descriptor into dst,
// per spec.md §6: zt (1B), zs (1B, state code in the high nibble),
// reserved, zcap (8B LE), zslba (8B LE), wp (8B LE), za (1B), reserved to
// entry size. dst must be at least reportDescriptorSize bytes; any
// trailing extension bytes are the caller's responsibility to append.
func EncodeReportDescriptor(dst []byte, e ZoneReportEntry) {
	for i := range dst[:reportDescriptorSize] {
		dst[i] = 0
	}
	dst[0] = uint8(e.ZT)
	dst[1] = e.ZS << 4
	binary.LittleEndian.PutUint64(dst[8:16], e.ZCAP)
	binary.LittleEndian.PutUint64(dst[16:24], e.ZSLBA)
	binary.LittleEndian.PutUint64(dst[24:32], e.WP)
	dst[32] = e.ZA
}

// IdentifyPayloadWireSize is the minimum dst length EncodeIdentifyPayload
// requires.
const IdentifyPayloadWireSize = 64

// EncodeIdentifyPayload writes the zoned-namespace identify fields of
// spec.md §6 into dst (mar, mor, zoc, ozcs, zsze, zdes, nsze, ncap, nuse,
// and a DULBE flag byte), little-endian. dst must be at least
// IdentifyPayloadWireSize bytes.
func EncodeIdentifyPayload(dst []byte, p IdentifyPayload) {
	for i := range dst[:IdentifyPayloadWireSize] {
		dst[i] = 0
	}
	binary.LittleEndian.PutUint32(dst[0:4], p.MAR)
	binary.LittleEndian.PutUint32(dst[4:8], p.MOR)
	dst[8] = p.ZOC
	dst[9] = p.OZCS
	binary.LittleEndian.PutUint64(dst[16:24], p.ZSZE)
	dst[24] = p.ZDES
	binary.LittleEndian.PutUint64(dst[32:40], p.NSZE)
	binary.LittleEndian.PutUint64(dst[40:48], p.NCAP)
	binary.LittleEndian.PutUint64(dst[48:56], p.NUSE)
	if p.DULBESupported {
		dst[56] = 1
	}
}

// decodeLBA reassembles the 64-bit LBA the adapter passes as two 32-bit
// command dwords: cdw11 is the high half, cdw10 the low half.
func decodeLBA(cdw10, cdw11 uint32) uint64 {
	return uint64(cdw11)<<32 | uint64(cdw10)
}

// decodeNLB decodes a zero-based block count from cdw12's low 16 bits.
func decodeNLB(cdw12 uint32) uint64 {
	return uint64(cdw12&0xFFFF) + 1
}
