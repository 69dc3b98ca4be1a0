package app

// BackpressureAction decides what happens to a member whose send buffer
// overflowed during fan-out.
type BackpressureAction int

const (
	DropFrame BackpressureAction = iota
	KickMember
)

type Policy interface {
	OnBackpressure(entry *PresenceEntry) BackpressureAction
}

// DropPolicy sheds the frame and keeps the member. The write pump's ping
// deadline eventually reaps connections that stay unresponsive.
type DropPolicy struct{}

func (DropPolicy) OnBackpressure(*PresenceEntry) BackpressureAction { return DropFrame }

// KickPolicy closes slow members instead of shedding frames.
type KickPolicy struct{}

func (KickPolicy) OnBackpressure(*PresenceEntry) BackpressureAction { return KickMember }
