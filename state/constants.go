package state

import "time"

// MaxHopCount is the largest hop count an advertisement can carry.
const MaxHopCount = ^uint16(0)

var (
	// DefaultHopDistance is the assumed physical coverage of a single hop, in metres.
	DefaultHopDistance   = 36.21
	DefaultMaxHops       = uint16(64)
	SingularityTolerance = 1e-9
	// MaxCandidates bounds how many ranked beacons are combined into triples when the best
	// triple is degenerate. 6 candidates gives at most 20 triples.
	MaxCandidates = 6

	AdvertiseDelay   = time.Second * 2
	EstimateDelay    = time.Second * 1
	SourceExpiryTime = 10 * AdvertiseDelay
	GcDelay          = time.Second * 5

	// FirstEstimateDelay debounces the first estimate once a third beacon is learned
	FirstEstimateDelay = time.Millisecond * 200

	DispatchBuffer     = 128
	SlowDispatchWarn   = time.Millisecond * 4
	TraceBuffer        = 1024
	MailboxSize        = 1024
	MqttConnectRetry   = time.Second * 2
	MqttDisconnectWait = uint(250)
	MqttPublishTimeout = time.Second * 5
)
