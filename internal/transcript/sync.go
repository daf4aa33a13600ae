// Package transcript synchronise la lecture audio avec les segments d'un transcript.
//
// Toutes les fonctions sont pures : le paquet ne possède ni l'élément audio ni la page,
// il est rappelé à chaque tick de lecture (4 à 10 fois par seconde).
package transcript

import (
	"math"

	"github.com/stoop-politics/stoop/internal/domain"
)

// ActiveSegment renvoie l'index du segment actif à currentTime, dans l'ordre d'affichage.
//
// Un segment avec start et end est actif quand start <= t < end.
// Un segment avec seulement start est actif quand t >= start et que c'est le dernier,
// ou que le suivant n'a pas de start, ou que t < start du suivant.
// Un segment sans temps n'est jamais actif. Le premier qui correspond gagne.
func ActiveSegment(currentTime float64, segments []domain.TranscriptSegment) (int, bool) {
	if math.IsNaN(currentTime) {
		return 0, false
	}
	for i := range segments {
		if contains(segments, i, currentTime) {
			return i, true
		}
	}
	return 0, false
}

func contains(segments []domain.TranscriptSegment, i int, t float64) bool {
	seg := segments[i]
	if seg.StartTime == nil {
		return false
	}
	start := *seg.StartTime
	if seg.EndTime != nil {
		return t >= start && t < *seg.EndTime
	}
	if t < start {
		return false
	}
	if i+1 >= len(segments) {
		return true
	}
	next := segments[i+1]
	return next.StartTime == nil || t < *next.StartTime
}

// SeekTo renvoie le temps de lecture d'un segment. L'appelant déclenche le seek et la lecture.
func SeekTo(seg domain.TranscriptSegment) (float64, bool) {
	if seg.StartTime == nil {
		return 0, false
	}
	return *seg.StartTime, true
}
