package progress

// Tracker accumulates cumulative progress samples from a poll loop and
// reports them via a callback, throttled to a byte interval. Completion
// (written == total) is always reported.
type Tracker struct {
	OnProgress func(written uint64, total uint64)

	interval    uint64 // bytes between reports
	written     uint64
	total       uint64
	sinceReport uint64
}

func NewTracker(interval uint64, cb func(written uint64, total uint64)) *Tracker {
	return &Tracker{
		OnProgress: cb,
		interval:   interval,
	}
}

// Observe records one poll sample. Samples carry cumulative counts, so a
// value below the running total is ignored rather than rewound.
func (t *Tracker) Observe(written, total uint64) {
	if written < t.written {
		written = t.written
	}

	t.sinceReport += written - t.written
	t.written = written

	if total > 0 {
		t.total = total
	}

	if t.OnProgress == nil {
		return
	}

	if t.sinceReport >= t.interval || (t.total > 0 && t.written >= t.total) {
		t.OnProgress(t.written, t.total)
		t.sinceReport = 0
	}
}

func (t *Tracker) Written() uint64 {
	return t.written
}

func (t *Tracker) Total() uint64 {
	return t.total
}
