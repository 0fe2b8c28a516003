package zns

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

const (
	// DefaultZoneSizeBytes matches the FEMU ZNS reference default.
	DefaultZoneSizeBytes = 128 << 20 // 128 MiB
	// DefaultPageSizeBytes is the page granularity ZASL is expressed in.
	DefaultPageSizeBytes = 4096

	maxZDExtensionUnits = 0xff // zd_extension_size/64 must fit a byte
	zdExtensionGranule  = 64
)

// Config carries the geometry inputs a namespace is constructed from, per
// spec.md §4.1. Zero-valued fields fall back to the documented defaults.
type Config struct {
	// ZoneSizeBytes is the full span of a zone. Defaults to 128 MiB.
	ZoneSizeBytes uint64
	// ZoneCapacityBytes is the writable prefix of a zone. Defaults to
	// ZoneSizeBytes.
	ZoneCapacityBytes uint64
	// LBASizeBytes is the namespace's logical block size.
	LBASizeBytes uint32
	// NamespaceSizeBytes is the total addressable namespace size.
	NamespaceSizeBytes uint64
	// MaxActiveZones caps concurrently active zones; 0 means unlimited.
	MaxActiveZones uint32
	// MaxOpenZones caps concurrently open zones; 0 means unlimited.
	MaxOpenZones uint32
	// CrossZoneRead allows a read to span into successor zones.
	CrossZoneRead bool
	// ZDExtensionSizeBytes is the per-zone descriptor-extension size, a
	// multiple of 64 and at most 64*255 bytes. 0 disables extensions.
	ZDExtensionSizeBytes uint32
	// PageSizeBytes is the unit ZASL is expressed in multiples of.
	// Defaults to 4096.
	PageSizeBytes uint32
	// ZASL is the zone append size limit, as a log2 of page multiples.
	ZASL uint8
	// MDTSLog2 bounds a single command's transfer size to
	// 2^MDTSLog2 * PageSizeBytes.
	MDTSLog2 uint8
}

func (c Config) withDefaults() Config {
	if c.ZoneSizeBytes == 0 {
		c.ZoneSizeBytes = DefaultZoneSizeBytes
	}
	if c.ZoneCapacityBytes == 0 {
		c.ZoneCapacityBytes = c.ZoneSizeBytes
	}
	if c.PageSizeBytes == 0 {
		c.PageSizeBytes = DefaultPageSizeBytes
	}
	return c
}

// Geometry is the derived, immutable-after-init shape of a namespace.
type Geometry struct {
	ZoneSizeLBAs      uint64
	ZoneCapacityLBAs  uint64
	NumZones          uint32
	ZoneSizeLog2      uint8 // 0 when ZoneSizeLBAs is not a power of two
	LBASizeBytes      uint32
	PageSizeBytes     uint32
	ZASL              uint8
	MDTSLog2          uint8
	ZDExtensionBytes  uint32
	CrossZoneRead     bool
	NamespaceSizeLBAs uint64 // nsze == ncap == nuse
}

// mdtsBytes is the maximum single-command transfer size in bytes.
func (g Geometry) mdtsBytes() uint64 {
	return (uint64(1) << g.MDTSLog2) * uint64(g.PageSizeBytes)
}

// appendLimitBytes is the ZASL-derived per-append byte ceiling.
func (g Geometry) appendLimitBytes() uint64 {
	return uint64(g.PageSizeBytes) * (uint64(1) << g.ZASL)
}

// zoneIndex maps an LBA to its owning zone index using the log2 fast path
// when the zone size is a power of two, per spec.md §4.1.
func (g Geometry) zoneIndex(lba uint64) uint32 {
	if g.ZoneSizeLog2 > 0 {
		return uint32(lba >> g.ZoneSizeLog2)
	}
	return uint32(lba / g.ZoneSizeLBAs)
}

func isPowerOfTwo(v uint64) bool { return v != 0 && v&(v-1) == 0 }

func log2(v uint64) uint8 {
	var n uint8
	for v > 1 {
		v >>= 1
		n++
	}
	return n
}

// deriveGeometry validates cfg and computes the derived Geometry, per
// spec.md §4.1's validation-failure list. Every independent violation is
// accumulated (via hashicorp/go-multierror) rather than returning on the
// first one, so a misconfigured namespace reports everything wrong with it
// in one shot.
func deriveGeometry(cfg Config) (Geometry, error) {
	cfg = cfg.withDefaults()

	var errs *multierror.Error

	if cfg.ZoneCapacityBytes > cfg.ZoneSizeBytes {
		errs = multierror.Append(errs, fmt.Errorf("zone capacity %d exceeds zone size %d", cfg.ZoneCapacityBytes, cfg.ZoneSizeBytes))
	}
	if cfg.LBASizeBytes == 0 {
		errs = multierror.Append(errs, fmt.Errorf("lba size must be nonzero"))
	} else {
		if cfg.ZoneSizeBytes < uint64(cfg.LBASizeBytes) {
			errs = multierror.Append(errs, fmt.Errorf("zone size %d smaller than lba size %d", cfg.ZoneSizeBytes, cfg.LBASizeBytes))
		}
		if cfg.ZoneCapacityBytes < uint64(cfg.LBASizeBytes) {
			errs = multierror.Append(errs, fmt.Errorf("zone capacity %d smaller than lba size %d", cfg.ZoneCapacityBytes, cfg.LBASizeBytes))
		}
	}
	if cfg.ZDExtensionSizeBytes%zdExtensionGranule != 0 {
		errs = multierror.Append(errs, fmt.Errorf("zd extension size %d not a multiple of %d", cfg.ZDExtensionSizeBytes, zdExtensionGranule))
	} else if cfg.ZDExtensionSizeBytes/zdExtensionGranule > maxZDExtensionUnits {
		errs = multierror.Append(errs, fmt.Errorf("zd extension size %d too large", cfg.ZDExtensionSizeBytes))
	}

	if errs != nil {
		return Geometry{}, errs
	}

	zoneSizeLBAs := cfg.ZoneSizeBytes / uint64(cfg.LBASizeBytes)
	zoneCapLBAs := cfg.ZoneCapacityBytes / uint64(cfg.LBASizeBytes)
	numZones := uint32(cfg.NamespaceSizeBytes / uint64(cfg.LBASizeBytes) / zoneSizeLBAs)

	if cfg.MaxOpenZones > numZones {
		errs = multierror.Append(errs, fmt.Errorf("max_open_zones %d exceeds zone count %d", cfg.MaxOpenZones, numZones))
	}
	if cfg.MaxActiveZones > numZones {
		errs = multierror.Append(errs, fmt.Errorf("max_active_zones %d exceeds zone count %d", cfg.MaxActiveZones, numZones))
	}
	if errs != nil {
		return Geometry{}, errs
	}

	var zoneSizeLog2 uint8
	if isPowerOfTwo(zoneSizeLBAs) {
		zoneSizeLog2 = log2(zoneSizeLBAs)
	}

	return Geometry{
		ZoneSizeLBAs:      zoneSizeLBAs,
		ZoneCapacityLBAs:  zoneCapLBAs,
		NumZones:          numZones,
		ZoneSizeLog2:      zoneSizeLog2,
		LBASizeBytes:      cfg.LBASizeBytes,
		PageSizeBytes:     cfg.PageSizeBytes,
		ZASL:              cfg.ZASL,
		MDTSLog2:          cfg.MDTSLog2,
		ZDExtensionBytes:  cfg.ZDExtensionSizeBytes,
		CrossZoneRead:     cfg.CrossZoneRead,
		NamespaceSizeLBAs: uint64(numZones) * zoneSizeLBAs,
	}, nil
}
