package action

// Control names a trigger whose busy state is tracked.
type Control string

const (
	ControlScrape  Control = "scrape"
	ControlCleanup Control = "cleanup"
)

const (
	LabelScrapeIdle   = "Scrape New URL"
	LabelScrapeBusy   = "Scraping..."
	LabelCleanupIdle  = "Clean Up Data"
	LabelCleanupBusy  = "Cleaning..."
	labelUnknownState = "..."
)

// ActionState is the idle/busy status of one control. While busy the control
// is disabled, which keeps a second invocation from the same control out.
// Other controls are unaffected.
type ActionState struct {
	control   Control
	busy      bool
	idleLabel string
	busyLabel string
}

func NewActionState(control Control) *ActionState {
	s := &ActionState{control: control, idleLabel: labelUnknownState, busyLabel: labelUnknownState}
	switch control {
	case ControlScrape:
		s.idleLabel, s.busyLabel = LabelScrapeIdle, LabelScrapeBusy
	case ControlCleanup:
		s.idleLabel, s.busyLabel = LabelCleanupIdle, LabelCleanupBusy
	}
	return s
}

func (s *ActionState) Control() Control { return s.control }

func (s *ActionState) Busy() bool { return s.busy }

func (s *ActionState) Enabled() bool { return !s.busy }

func (s *ActionState) Label() string {
	if s.busy {
		return s.busyLabel
	}
	return s.idleLabel
}

// acquire flips idle to busy. It reports false when already busy.
func (s *ActionState) acquire() bool {
	if s.busy {
		return false
	}
	s.busy = true
	return true
}

func (s *ActionState) release() {
	s.busy = false
}
