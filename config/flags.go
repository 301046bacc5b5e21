package config

import (
	"time"

	"github.com/spf13/pflag"
)

// DecodeArgs decodes the configuration surface from a provided argument
// list using pflag. It binds no process-global FlagSet and never touches
// os.Args — callers decide where args come from, keeping this distinct from
// CLI wiring, which is out of scope (spec §1).
func DecodeArgs(args []string) (Options, error) {
	fs := pflag.NewFlagSet("codeintel-config", pflag.ContinueOnError)
	o := Default()

	mode := fs.String("rebuild-mode", string(o.RebuildMode), "FAST|BALANCED|DEEP|BOOTSTRAP|REPAIR")
	impactMax := fs.Int("impact-pass-max-files", o.ImpactPassMaxFiles, "impact closure file ceiling")
	overlayMax := fs.Int("overlay-max-layers", o.OverlayMaxLayers, "max stacked overlay deltas")
	fusionK := fs.Float64("fusion-k", o.FusionK, "RRF smoothing constant")
	fusionC := fs.Float64("fusion-consensus-c", o.FusionConsensusC, "consensus boost coefficient")
	l1Size := fs.Int("cache-l1-size", o.CacheL1SizePerType, "L1 entries per cached type")
	l2TTL := fs.Duration("cache-l2-ttl", o.CacheL2TTL, "L2 entry TTL")
	retCount := fs.Int("snapshot-retention-count", o.SnapshotRetentionCount, "max untagged snapshots kept")
	retDays := fs.Int("snapshot-retention-days", o.SnapshotRetentionDays, "snapshot retention window in days")
	workers := fs.Int("worker-pool-size", o.WorkerPoolSize, "bounded worker pool size, 0 = CPU count")
	staleTTL := fs.Duration("stale-edge-ttl", o.StaleEdgeTTL, "TTL before a stale edge is swept")

	if err := fs.Parse(args); err != nil {
		return Options{}, err
	}

	o.RebuildMode = RebuildMode(*mode)
	o.ImpactPassMaxFiles = *impactMax
	o.OverlayMaxLayers = *overlayMax
	o.FusionK = *fusionK
	o.FusionConsensusC = *fusionC
	o.CacheL1SizePerType = *l1Size
	o.CacheL2TTL = *l2TTL
	o.SnapshotRetentionCount = *retCount
	o.SnapshotRetentionDays = *retDays
	o.WorkerPoolSize = *workers
	o.StaleEdgeTTL = *staleTTL
	return o, nil
}

// RetentionWindow returns the retention cutoff given "now".
func (o Options) RetentionWindow(now time.Time) time.Time {
	return now.AddDate(0, 0, -o.SnapshotRetentionDays)
}
