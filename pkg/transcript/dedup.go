package transcript

import (
	"math"
	"time"
)

// duplicateWindow is the maximum timestamp distance, in seconds, at
// which two conversations with equal message counts are considered the
// same conversation.
const duplicateWindow = 1.0

// Snapshot summarizes a stored memory record for duplicate detection.
type Snapshot struct {
	Timestamp    string
	MessageCount int
}

// IsDuplicate reports whether the candidate transcript already exists
// among the stored records. The heuristic compares the representative
// timestamp and the normalized message count: a match needs the
// absolute timestamp difference below one second and exactly equal
// counts. It is deliberately cheap and can misfire in both directions;
// a missed duplicate only costs a redundant write.
func IsDuplicate(t Transcript, existing []Snapshot) bool {
	epoch := representativeEpoch(t)
	if epoch <= 0 {
		epoch = float64(now().UnixNano()) / 1e9
	}
	count := len(Normalize(t).Messages)

	for _, s := range existing {
		stored, err := time.ParseInLocation(TimeLayout, s.Timestamp, time.Local)
		if err != nil {
			continue
		}
		storedEpoch := float64(stored.UnixNano()) / 1e9
		if math.Abs(epoch-storedEpoch) < duplicateWindow && count == s.MessageCount {
			return true
		}
	}
	return false
}
