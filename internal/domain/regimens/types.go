package regimens

type ScheduleType string

const (
	ScheduleFixed    ScheduleType = "FIXED"
	SchedulePRN      ScheduleType = "PRN"
	ScheduleInterval ScheduleType = "INTERVAL"
	ScheduleTaper    ScheduleType = "TAPER"
)

// Section clasifica un régimen según su próxima dosis.
type Section string

const (
	SectionDue     Section = "due"
	SectionLater   Section = "later"
	SectionOverdue Section = "overdue"
	SectionPRN     Section = "prn"
)

func validScheduleType(t ScheduleType) bool {
	switch t {
	case ScheduleFixed, SchedulePRN, ScheduleInterval, ScheduleTaper:
		return true
	default:
		return false
	}
}
