package presentation

// SelectPresentMode returns the supported mode with the highest index in ranking. Modes missing
// from the ranking are ignored. FIFO is the answer when nothing ranked is supported, it is the one
// mode every display has to offer.
func SelectPresentMode(available []PresentMode, ranking []PresentMode) PresentMode {
	best := -1
	for _, am := range available {
		for i, rm := range ranking {
			if am == rm && i > best {
				best = i
			}
		}
	}
	if best < 0 {
		return PresentModeFIFO
	}
	return ranking[best]
}
