package administrations

type Status string

const (
	StatusOnTime   Status = "ON_TIME"
	StatusLate     Status = "LATE"
	StatusVeryLate Status = "VERY_LATE"
	StatusMissed   Status = "MISSED"
	StatusPRN      Status = "PRN"
)
