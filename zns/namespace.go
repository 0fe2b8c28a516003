package zns

import (
	"sync"
)

// Backend is the external collaborator that performs the actual data
// movement for accepted reads/writes, per spec.md §6. The core calls it
// only after every validation has passed.
type Backend interface {
	// RW reads or writes data at the given byte offset into the
	// namespace's backing store.
	RW(offsetBytes uint64, data []byte, isWrite bool) error
}

// MDTSChecker is the external collaborator bounding a single command's
// transfer size, per spec.md §6. The default implementation compares
// against 2^mdts * page_size.
type MDTSChecker interface {
	Allowed(dataSizeBytes uint64) bool
}

type defaultMDTSChecker struct{ limit uint64 }

func (d defaultMDTSChecker) Allowed(dataSizeBytes uint64) bool { return dataSizeBytes <= d.limit }

// Namespace is a single zoned namespace: the zone array, its four
// membership lists, AOR counters, and the backing extension buffer. All
// state inspection and mutation happens under mu, matching the single
// per-namespace serialization domain of spec.md §5.
type Namespace struct {
	mu sync.Mutex

	geometry      Geometry
	maxActive     uint32
	maxOpen       uint32
	zones         []zone
	lists         lists
	nrActiveZones uint32
	nrOpenZones   uint32
	zdExtensions  []byte

	backend     Backend
	mdtsChecker MDTSChecker

	// commandObserver, if set, is notified of every completed command for
	// instrumentation (see the collector package). It must not call back
	// into the namespace.
	commandObserver func(opcode string, status Status)
}

// NewNamespace validates cfg, allocates the zone array (all zones EMPTY),
// and returns a ready Namespace, per spec.md §3's "created once at
// namespace init" lifecycle.
func NewNamespace(cfg Config, backend Backend) (*Namespace, error) {
	geometry, err := deriveGeometry(cfg)
	if err != nil {
		return nil, err
	}

	ns := &Namespace{
		geometry:    geometry,
		maxActive:   cfg.MaxActiveZones,
		maxOpen:     cfg.MaxOpenZones,
		zones:       make([]zone, geometry.NumZones),
		lists:       newLists(),
		backend:     backend,
		mdtsChecker: defaultMDTSChecker{limit: geometry.mdtsBytes()},
	}
	if geometry.ZDExtensionBytes > 0 {
		ns.zdExtensions = make([]byte, uint64(geometry.ZDExtensionBytes)*uint64(geometry.NumZones))
	}

	start := uint64(0)
	for i := range ns.zones {
		z := &ns.zones[i]
		z.zt = ZoneTypeSeqWrite
		z.state = StateEmpty
		z.zslba = start
		z.zcap = geometry.ZoneCapacityLBAs
		z.wp = start
		z.wPtr = start
		z.prev, z.next = noLink, noLink
		start += geometry.ZoneSizeLBAs
	}

	return ns, nil
}

// SetCommandObserver installs a hook invoked after every adapter-level
// command, used by the collector package to maintain command counters
// without the core importing prometheus.
func (ns *Namespace) SetCommandObserver(f func(opcode string, status Status)) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.commandObserver = f
}

// SetMDTSChecker overrides the default MDTS checker, for tests or a host
// that wants a different transfer-size policy than 2^mdts*page_size.
func (ns *Namespace) SetMDTSChecker(c MDTSChecker) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	ns.mdtsChecker = c
}

// Geometry returns the namespace's derived geometry.
func (ns *Namespace) Geometry() Geometry { return ns.geometry }

// IdentifyPayload builds the zoned-namespace identify payload for this
// namespace, per spec.md §6. npdgPlusOne is the backing store's
// deallocation granularity in LBAs (0 if not applicable).
func (ns *Namespace) IdentifyPayload(npdgPlusOne uint64) IdentifyPayload {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return identifyPayload(ns.geometry, ns.maxActive, ns.maxOpen, npdgPlusOne)
}

// ZoneCount returns the number of zones in the namespace.
func (ns *Namespace) ZoneCount() uint32 { return ns.geometry.NumZones }

// ZoneSnapshot is a read-only view of a single zone's observable state,
// used by the report path and by the instrumentation collector.
type ZoneSnapshot struct {
	Index uint32
	State State
	ZSLBA uint64
	ZCAP  uint64
	WP    uint64
	ZA    uint8
}

// Snapshot copies out every zone's observable state under the namespace
// lock. It's O(num_zones); the collector package takes one per Collect pass
// and emits per-zone gauges from it only below a fixed zone-count cap.
func (ns *Namespace) Snapshot() []ZoneSnapshot {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	out := make([]ZoneSnapshot, len(ns.zones))
	for i := range ns.zones {
		z := &ns.zones[i]
		out[i] = ZoneSnapshot{
			Index: uint32(i),
			State: z.state,
			ZSLBA: z.zslba,
			ZCAP:  z.zcap,
			WP:    z.reportWP(),
			ZA:    z.za,
		}
	}
	return out
}

// Counters returns the current AOR counters and their configured limits.
func (ns *Namespace) Counters() (active, open, maxActive, maxOpen uint32) {
	ns.mu.Lock()
	defer ns.mu.Unlock()
	return ns.nrActiveZones, ns.nrOpenZones, ns.maxActive, ns.maxOpen
}

func (ns *Namespace) zoneOf(lba uint64) uint32 { return ns.geometry.zoneIndex(lba) }

func (ns *Namespace) incActive() { ns.nrActiveZones++ }
func (ns *Namespace) decActive() { ns.nrActiveZones-- }
func (ns *Namespace) incOpen()   { ns.nrOpenZones++ }
func (ns *Namespace) decOpen()   { ns.nrOpenZones-- }

// Close drains the namespace per spec.md §4 supplement (SPEC_FULL.md
// "Namespace shutdown draining"): every CLOSED/IMP_OPEN/EXP_OPEN zone is
// walked once and cleared, reconciling w_ptr back to wp and releasing its
// AOR accounting, so a torn-down namespace always reports zero open zones.
// Zones that hold written data or a staged extension are left CLOSED and
// charged active again (see clearZoneLocked); the rest become EMPTY.
func (ns *Namespace) Close() error {
	ns.mu.Lock()
	defer ns.mu.Unlock()

	for _, id := range []listID{listClosed, listImpOpen, listExpOpen} {
		for _, idx := range ns.listSnapshot(id) {
			ns.listRemove(id, idx)
			if id == listImpOpen || id == listExpOpen {
				ns.decOpen()
			}
			ns.decActive()
			ns.clearZoneLocked(idx)
		}
	}
	return nil
}

// clearZoneLocked implements the reference's zns_clear_zone asymmetry: a
// zone that was never written to and has no staged extension reverts
// straight to EMPTY with no active charge; anything else goes to CLOSED
// and is (re-)charged active, since it still holds written data.
//
// Callers must have already unlinked idx from its current list (Close does
// this via listRemove) before calling clearZoneLocked: the state is set
// directly here and, when the new state is list-backed, pushed onto that
// list, rather than going through assignState, which would try to unlink
// the zone from its old list a second time.
func (ns *Namespace) clearZoneLocked(idx uint32) {
	z := &ns.zones[idx]
	z.wPtr = z.wp
	if z.wp != z.zslba || z.za&zaExtValid != 0 {
		ns.incActive()
		z.state = StateClosed
		ns.listPushBack(listClosed, idx)
		return
	}
	z.state = StateEmpty
}

func (ns *Namespace) setExtension(idx uint32, data []byte) {
	if len(ns.zdExtensions) == 0 {
		return
	}
	sz := uint64(ns.geometry.ZDExtensionBytes)
	off := uint64(idx) * sz
	copy(ns.zdExtensions[off:off+sz], data)
}

func (ns *Namespace) clearExtension(idx uint32) {
	if len(ns.zdExtensions) == 0 {
		return
	}
	sz := uint64(ns.geometry.ZDExtensionBytes)
	off := uint64(idx) * sz
	for i := range ns.zdExtensions[off : off+sz] {
		ns.zdExtensions[off+uint64(i)] = 0
	}
}

// extensionOf returns a copy of a zone's extension bytes, or nil if the
// zone's extension-valid bit is clear.
func (ns *Namespace) extensionOf(idx uint32) []byte {
	z := &ns.zones[idx]
	if len(ns.zdExtensions) == 0 || z.za&zaExtValid == 0 {
		return nil
	}
	sz := uint64(ns.geometry.ZDExtensionBytes)
	off := uint64(idx) * sz
	out := make([]byte, sz)
	copy(out, ns.zdExtensions[off:off+sz])
	return out
}
