package arbitrage

// historyBuffer keeps a bounded chronological window of APY observations
// for one protocol. The oldest point is dropped once the cap is reached.
type historyBuffer struct {
	max    int
	points []HistoryPoint
}

func newHistoryBuffer(max int) *historyBuffer {
	if max <= 0 {
		max = 1
	}
	return &historyBuffer{max: max}
}

func (b *historyBuffer) append(p HistoryPoint) {
	if len(b.points) >= b.max {
		b.points = b.points[1:]
	}
	b.points = append(b.points, p)
}

// snapshot returns a copy of the retained points in append order.
func (b *historyBuffer) snapshot() []HistoryPoint {
	out := make([]HistoryPoint, len(b.points))
	copy(out, b.points)
	return out
}
