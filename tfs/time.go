package tfs

import "github.com/frlis21/dm510-asg3/util/timestamp"

// nowFunc is the current-time source used for atim/mtim, so tests and
// reproducible `mkfs` runs can pin SOURCE_DATE_EPOCH instead of depending on
// wall-clock time.
var nowFunc = timestamp.GetTime
