package zns

// fakeBackend is a minimal in-memory zns.Backend for tests that don't
// need a real mmap-backed store (see backend.MmapBackend for that).
type fakeBackend struct {
	data []byte
}

func newFakeBackend(sizeBytes uint64) *fakeBackend {
	return &fakeBackend{data: make([]byte, sizeBytes)}
}

func (b *fakeBackend) RW(offsetBytes uint64, data []byte, isWrite bool) error {
	end := offsetBytes + uint64(len(data))
	if isWrite {
		copy(b.data[offsetBytes:end], data)
	} else {
		copy(data, b.data[offsetBytes:end])
	}
	return nil
}

// scenarioConfig matches spec.md §8's literal scenario parameters:
// zone_size=zcap=8 LBAs, num_zones=4, max_open=2, max_active=3,
// lba_size=4096.
func scenarioConfig() Config {
	const lbaSize = 4096
	const zoneLBAs = 8
	const numZones = 4
	return Config{
		ZoneSizeBytes:      zoneLBAs * lbaSize,
		ZoneCapacityBytes:  zoneLBAs * lbaSize,
		LBASizeBytes:       lbaSize,
		NamespaceSizeBytes: numZones * zoneLBAs * lbaSize,
		MaxActiveZones:     3,
		MaxOpenZones:       2,
		// zasl=2 admits appends up to 4*page_size (16KiB), enough for
		// scenario S5's 3-LBA (12KiB) appends.
		ZASL: 2,
		// mdts=3 admits transfers up to 8*page_size (32KiB), enough to
		// fill a whole 8-LBA zone in one write (scenario S1).
		MDTSLog2: 3,
	}
}

func newScenarioNamespace(t interface{ Fatalf(string, ...any) }) *Namespace {
	ns, err := NewNamespace(scenarioConfig(), newFakeBackend(4*8*4096))
	if err != nil {
		t.Fatalf("NewNamespace: %v", err)
	}
	return ns
}
