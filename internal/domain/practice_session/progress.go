package practicesession

// Progress holds the per-session cursors.
type Progress struct {
	NextSerialIndex   int   `json:"nextSerialIndex"`
	UsedRandomIndices []int `json:"usedRandomIndices"`
}

// Reset clears both cursors.
func (p *Progress) Reset() {
	p.NextSerialIndex = 0
	p.UsedRandomIndices = []int{}
}

// Clone returns a copy that shares no backing array with p.
func (p Progress) Clone() Progress {
	used := make([]int, len(p.UsedRandomIndices))
	copy(used, p.UsedRandomIndices)
	return Progress{NextSerialIndex: p.NextSerialIndex, UsedRandomIndices: used}
}

func (p Progress) usedSet() map[int]struct{} {
	set := make(map[int]struct{}, len(p.UsedRandomIndices))
	for _, idx := range p.UsedRandomIndices {
		set[idx] = struct{}{}
	}
	return set
}

// Stats summarises how much of the bank has been covered in a mode.
// Taken and Remaining are -1 in RANDOM_UNLIMITED, which has no coverage.
type Stats struct {
	Total     int  `json:"total"`
	Taken     int  `json:"taken"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// Coverage reports progress through a bank of total questions.
func (p Progress) Coverage(total int, mode Mode) Stats {
	switch mode {
	case ModeSerial:
		return Stats{Total: total, Taken: p.NextSerialIndex, Remaining: max(0, total-p.NextSerialIndex)}
	case ModeRandomLimited:
		taken := len(p.UsedRandomIndices)
		return Stats{Total: total, Taken: taken, Remaining: max(0, total-taken)}
	default:
		return Stats{Total: total, Taken: -1, Remaining: -1, Unlimited: true}
	}
}
