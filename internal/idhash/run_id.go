// Package idhash derives deterministic identifiers for evaluation runs.
package idhash

import (
	"crypto/sha256"
	"fmt"

	"github.com/mr-tron/base58"
)

// runIDBytes is the hash prefix length encoded into a run ID.
const runIDBytes = 8

// ComputeRunID computes a deterministic run_id for one simulator
// evaluation.
// Formula: base58(SHA256(name|symbol|start_ts|end_ts|period_months)[:8])
// The same evaluation inputs always map to the same ID, so repeated
// runs overwrite their own logs and reports instead of piling up.
func ComputeRunID(name, symbol string, startTimestampSec, endTimestampSec int64, periodMonths int) string {
	data := fmt.Sprintf("%s|%s|%d|%d|%d",
		name,
		symbol,
		startTimestampSec,
		endTimestampSec,
		periodMonths,
	)

	hash := sha256.Sum256([]byte(data))
	return base58.Encode(hash[:runIDBytes])
}
