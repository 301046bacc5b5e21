// Package config collects the configuration surface named in spec §9. It is
// a plain struct with a constructor that fills in the spec's stated
// defaults when fields are left zero, the way the teacher's graph.Config is
// constructed (see inspector.NewFactory). No environment binding lives here,
// and the only flag handling, DecodeArgs, parses a caller-supplied argument
// list without touching os.Args, since CLI/config loading is explicitly out
// of scope (spec §1).
package config

import "time"

// RebuildMode controls which rebuild passes run and how far impact closure
// extends (spec §4.6).
type RebuildMode string

const (
	ModeFast      RebuildMode = "FAST"
	ModeBalanced  RebuildMode = "BALANCED"
	ModeDeep      RebuildMode = "DEEP"
	ModeBootstrap RebuildMode = "BOOTSTRAP"
	ModeRepair    RebuildMode = "REPAIR"
)

// Options is the full configuration surface.
type Options struct {
	RebuildMode RebuildMode

	ImpactPassMaxFiles int
	OverlayMaxLayers   int

	FusionK          float64
	FusionConsensusC float64

	CacheL1SizePerType int
	CacheL2TTL         time.Duration

	SnapshotRetentionCount int
	SnapshotRetentionDays  int

	WorkerPoolSize int

	StaleEdgeTTL time.Duration
}

// Default returns the spec's documented defaults. workerPoolSize is resolved
// by the caller (typically runtime.NumCPU()); passing 0 here means "let the
// rebuilder decide at construction time".
func Default() Options {
	return Options{
		RebuildMode:            ModeBalanced,
		ImpactPassMaxFiles:     200,
		OverlayMaxLayers:       10,
		FusionK:                60,
		FusionConsensusC:       0.15,
		CacheL1SizePerType:     4096,
		CacheL2TTL:             5 * time.Minute,
		SnapshotRetentionCount: 10,
		SnapshotRetentionDays:  30,
		WorkerPoolSize:         0,
		StaleEdgeTTL:           24 * time.Hour,
	}
}

// WithDefaults fills in any zero-valued field of o with Default()'s value,
// so a caller can construct a partially-specified Options literal.
func WithDefaults(o Options) Options {
	d := Default()
	if o.RebuildMode == "" {
		o.RebuildMode = d.RebuildMode
	}
	if o.ImpactPassMaxFiles == 0 {
		o.ImpactPassMaxFiles = d.ImpactPassMaxFiles
	}
	if o.OverlayMaxLayers == 0 {
		o.OverlayMaxLayers = d.OverlayMaxLayers
	}
	if o.FusionK == 0 {
		o.FusionK = d.FusionK
	}
	if o.FusionConsensusC == 0 {
		o.FusionConsensusC = d.FusionConsensusC
	}
	if o.CacheL1SizePerType == 0 {
		o.CacheL1SizePerType = d.CacheL1SizePerType
	}
	if o.CacheL2TTL == 0 {
		o.CacheL2TTL = d.CacheL2TTL
	}
	if o.SnapshotRetentionCount == 0 {
		o.SnapshotRetentionCount = d.SnapshotRetentionCount
	}
	if o.SnapshotRetentionDays == 0 {
		o.SnapshotRetentionDays = d.SnapshotRetentionDays
	}
	if o.StaleEdgeTTL == 0 {
		o.StaleEdgeTTL = d.StaleEdgeTTL
	}
	return o
}
