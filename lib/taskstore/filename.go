// Copyright 2026 Saorsa Labs
// SPDX-License-Identifier: Apache-2.0

package taskstore

import (
	"fmt"
	"strconv"
	"strings"
)

// snapshotSuffix terminates every snapshot blob name.
const snapshotSuffix = ".snapshot"

// timestampWidth is the zero-padded digit count of the capture-time
// prefix. Twenty digits hold any uint64 of milliseconds, and fixed
// width makes lexical blob ordering equal chronological ordering.
const timestampWidth = 20

// snapshotName formats the blob name for a snapshot captured at the
// given wall-clock milliseconds: a 20-digit zero-padded timestamp
// plus the suffix.
func snapshotName(capturedAtMS int64) string {
	return fmt.Sprintf("%0*d%s", timestampWidth, capturedAtMS, snapshotSuffix)
}

// parseSnapshotName extracts the capture time from a snapshot blob
// name. Parsing is strict: exact digit width, digits only, exact
// suffix. Anything else is not a snapshot (a log, a foreign file)
// and is reported as such rather than guessed at.
func parseSnapshotName(name string) (int64, error) {
	stem, ok := strings.CutSuffix(name, snapshotSuffix)
	if !ok {
		return 0, fmt.Errorf("blob %q is not a snapshot (missing %q suffix)", name, snapshotSuffix)
	}
	if len(stem) != timestampWidth {
		return 0, fmt.Errorf("snapshot %q timestamp is %d digits, expected %d", name, len(stem), timestampWidth)
	}
	for i := 0; i < len(stem); i++ {
		if stem[i] < '0' || stem[i] > '9' {
			return 0, fmt.Errorf("snapshot %q has a non-digit timestamp character at position %d", name, i)
		}
	}
	capturedAtMS, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("snapshot %q timestamp: %w", name, err)
	}
	return capturedAtMS, nil
}
