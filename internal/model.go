package internal

import "time"

type User struct {
	ID    string `json:"id"`
	Token string `json:"token"`
	Name  string `json:"name"`
}

// IntervalKind identifies which of the two toggles an interval belongs to.
type IntervalKind string

const (
	KindInBed  IntervalKind = "in_bed"
	KindAsleep IntervalKind = "asleep"
)

// CategoryValue is the sleep-analysis category value recorded on a sample.
func (k IntervalKind) CategoryValue() int {
	if k == KindAsleep {
		return 1
	}
	return 0
}

func (k IntervalKind) Valid() bool {
	return k == KindInBed || k == KindAsleep
}

// SleepState is the tracker's persisted toggle state. Start timestamps are
// nil while the matching flag is false.
type SleepState struct {
	InBed              bool       `json:"in_bed"`
	Asleep             bool       `json:"asleep"`
	BedIntervalStart   *time.Time `json:"start_in_bed,omitempty"`
	SleepIntervalStart *time.Time `json:"start_asleep,omitempty"`
}

// ClosedInterval is emitted when a flag transitions from true to false.
type ClosedInterval struct {
	Kind      IntervalKind `json:"kind" validate:"required,oneof=in_bed asleep"`
	StartTime time.Time    `json:"start_time" validate:"required"`
	EndTime   time.Time    `json:"end_time" validate:"required,gtefield=StartTime"`
}

func (c ClosedInterval) Duration() time.Duration {
	return c.EndTime.Sub(c.StartTime)
}

// StatusLabels are the presentation strings for the current state.
type StatusLabels struct {
	Bed         string `json:"bed"`
	Sleep       string `json:"sleep"`
	BedButton   string `json:"bed_button"`
	SleepButton string `json:"sleep_button"`
}

// SleepSample is a closed interval as accepted by a health-data sink.
type SleepSample struct {
	ID        string       `json:"id"`
	Kind      IntervalKind `json:"kind"`
	Value     int          `json:"value"`
	StartTime time.Time    `json:"start_time"`
	EndTime   time.Time    `json:"end_time"`
	Source    string       `json:"source,omitempty"`
	CreatedAt time.Time    `json:"created_at"`
}

type AuthorizationStatus string

const (
	AuthorizationUndetermined AuthorizationStatus = "undetermined"
	AuthorizationAuthorized   AuthorizationStatus = "authorized"
	AuthorizationDenied       AuthorizationStatus = "denied"
)
