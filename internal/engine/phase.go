package engine

// Phase drives which engine operations are legal.
type Phase int

const (
	Idle Phase = iota
	Running
	Paused
	Completed
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case Idle:
		return "IDLE"
	case Running:
		return "RUNNING"
	case Paused:
		return "PAUSED"
	case Completed:
		return "COMPLETED"
	default:
		return "UNKNOWN"
	}
}
