package app

import "time"

// StoopMode est l'ambiance du site selon l'heure locale.
type StoopMode string

const (
	ModeMorning   StoopMode = "morning"
	ModeAfternoon StoopMode = "afternoon"
	ModeEvening   StoopMode = "evening"
)

// TimeOfDay : matin [5h,11h), après-midi [11h,18h), soir sinon.
func TimeOfDay(t time.Time) StoopMode {
	h := t.Hour()
	switch {
	case h >= 5 && h < 11:
		return ModeMorning
	case h >= 11 && h < 18:
		return ModeAfternoon
	default:
		return ModeEvening
	}
}
