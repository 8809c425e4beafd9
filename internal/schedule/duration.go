package schedule

// FilterByDuration keeps the start slots from which a service of the given
// length fits entirely inside free time. A slot qualifies when it and the
// following k-1 free slots form an unbroken half-hour chain, k being the
// number of grid cells the service spans.
//
// A 30 minute service returns free unchanged. Durations that are not a
// positive multiple of SlotMinutes never fit.
func FilterByDuration(free []TimeOfDay, durationMinutes int) []TimeOfDay {
	if durationMinutes == SlotMinutes {
		return free
	}
	if durationMinutes <= 0 || durationMinutes%SlotMinutes != 0 {
		return []TimeOfDay{}
	}

	cells := durationMinutes / SlotMinutes
	fits := make([]TimeOfDay, 0, len(free))
	for i := range free {
		if i+cells > len(free) {
			break
		}
		if isChain(free[i : i+cells]) {
			fits = append(fits, free[i])
		}
	}
	return fits
}

func isChain(run []TimeOfDay) bool {
	for j := 1; j < len(run); j++ {
		if run[j] != run[j-1].Add(SlotMinutes) {
			return false
		}
	}
	return true
}

// Contains reports whether t is one of slots.
func Contains(slots []TimeOfDay, t TimeOfDay) bool {
	for _, s := range slots {
		if s == t {
			return true
		}
	}
	return false
}
