package autoscan

// MaxMultiplier caps the stepped backoff applied to a watched root's scan
// interval.
const MaxMultiplier = 8

// multiplierForNoChangeCount implements the fixed stepped backoff table:
// 0-4 consecutive no-change scans keep the base interval, 5-9 doubles it,
// 10-14 quadruples it, 15+ applies the cap.
func multiplierForNoChangeCount(count int) int {
	switch {
	case count >= 15:
		return 8
	case count >= 10:
		return 4
	case count >= 5:
		return 2
	default:
		return 1
	}
}

// nextBackoffState advances a root's no-change counter and derived
// multiplier given whether the scan that just ran found changes.
func nextBackoffState(noChangeCount int, hadChanges bool) (newCount, newMultiplier int) {
	if hadChanges {
		return 0, 1
	}
	newCount = noChangeCount + 1
	return newCount, multiplierForNoChangeCount(newCount)
}
