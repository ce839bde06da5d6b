package reminder

// DueNow returns tasks whose date and time equal (d, c) exactly.
func DueNow(tasks []Task, d Date, c Clock) []Task {
	return filter(tasks, func(t Task) bool { return t.compareAt(d, c) == 0 })
}

// Future returns tasks strictly after (d, c).
func Future(tasks []Task, d Date, c Clock) []Task {
	return filter(tasks, func(t Task) bool { return t.compareAt(d, c) > 0 })
}

// Past returns tasks strictly before (d, c).
//
// A task equal to (d, c) is in neither Future nor Past; only DueNow sees it.
// If no poll observes it at that instant it is never delivered, and the past
// sweep only picks it up once the clock has moved on.
func Past(tasks []Task, d Date, c Clock) []Task {
	return filter(tasks, func(t Task) bool { return t.compareAt(d, c) < 0 })
}

func filter(tasks []Task, keep func(Task) bool) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}
