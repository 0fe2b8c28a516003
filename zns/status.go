package zns

import "fmt"

// Status is a command completion status, modeled directly on the NVMe
// status code the host would see in a completion queue entry. The core
// returns a Go error only for namespace construction failures and, from
// Execute, alongside the INVALID_OPCODE status of an unsupported opcode;
// every other command outcome is a Status alone, so that validation and
// state-machine results stay cheap to compare and log.
type Status uint16

// DoNotRetry is OR'd onto a Status to mark the failure permanent, per
// spec.md §6/§7. Status values below are the bare (retryable-by-default)
// codes; WithDNR sets the bit explicitly where a failure is permanent.
const DoNotRetry Status = 1 << 15

const (
	StatusSuccess Status = iota
	StatusInvalidOpcode
	StatusInvalidField
	StatusLBARange
	StatusZoneBoundaryError
	StatusZoneFull
	StatusZoneReadOnly
	StatusZoneOffline
	StatusZoneInvalidWrite
	StatusZoneInvalidTransition
	StatusZoneTooManyActive
	StatusZoneTooManyOpen
	// StatusZoneBusy is the transient status for the §5/§9 open question:
	// a management action against a zone with an in-flight (unfinalized)
	// write. It deliberately does not carry DoNotRetry.
	StatusZoneBusy
)

var statusNames = map[Status]string{
	StatusSuccess:               "SUCCESS",
	StatusInvalidOpcode:         "INVALID_OPCODE",
	StatusInvalidField:          "INVALID_FIELD",
	StatusLBARange:              "LBA_RANGE",
	StatusZoneBoundaryError:     "ZONE_BOUNDARY_ERROR",
	StatusZoneFull:              "ZONE_FULL",
	StatusZoneReadOnly:          "ZONE_READ_ONLY",
	StatusZoneOffline:           "ZONE_OFFLINE",
	StatusZoneInvalidWrite:      "ZONE_INVALID_WRITE",
	StatusZoneInvalidTransition: "ZONE_INVAL_TRANSITION",
	StatusZoneTooManyActive:     "ZONE_TOO_MANY_ACTIVE",
	StatusZoneTooManyOpen:       "ZONE_TOO_MANY_OPEN",
	StatusZoneBusy:              "ZONE_BUSY",
}

// Code returns the bare status code with the do-not-retry bit masked off.
func (s Status) Code() Status { return s &^ DoNotRetry }

// Retryable reports whether the do-not-retry bit is clear.
func (s Status) Retryable() bool { return s&DoNotRetry == 0 }

// OK reports whether the status is a bare success.
func (s Status) OK() bool { return s.Code() == StatusSuccess }

// WithDNR ORs in the do-not-retry bit, marking a permanent failure.
func WithDNR(s Status) Status { return s | DoNotRetry }

func (s Status) String() string {
	name, ok := statusNames[s.Code()]
	if !ok {
		name = fmt.Sprintf("UNKNOWN(%#x)", uint16(s.Code()))
	}
	if !s.OK() && !s.Retryable() {
		return name + "|DNR"
	}
	return name
}
