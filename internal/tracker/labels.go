package tracker

import "github.com/yourname/sleeptoggle/internal"

const (
	LabelAsleep    = "Asleep"
	LabelAwake     = "Awake"
	LabelInBed     = "In bed"
	LabelNotInBed  = "Not in bed"
	ButtonWakeUp   = "Wake up"
	ButtonSleep    = "Sleep"
	ButtonGetUp    = "Get up"
	ButtonGetInBed = "Get in bed"
)

// Labels maps a state to its status and button labels.
func Labels(st internal.SleepState) internal.StatusLabels {
	var l internal.StatusLabels
	if st.Asleep {
		l.Sleep, l.SleepButton = LabelAsleep, ButtonWakeUp
	} else {
		l.Sleep, l.SleepButton = LabelAwake, ButtonSleep
	}
	if st.InBed {
		l.Bed, l.BedButton = LabelInBed, ButtonGetUp
	} else {
		l.Bed, l.BedButton = LabelNotInBed, ButtonGetInBed
	}
	return l
}
