package transcript

import (
	"math"
	"sort"

	"github.com/stoop-politics/stoop/internal/domain"
)

// span est l'intervalle effectif [start, end) d'un segment daté.
type span struct {
	index int
	start float64
	end   float64 // +Inf quand le segment reste actif jusqu'à la fin.
}

// Timeline précalcule les intervalles d'un transcript pour répondre en O(log n)
// aux ticks de lecture des longs transcripts.
//
// La recherche dichotomique n'est utilisée que si les intervalles sont triés et disjoints ;
// sinon Active retombe sur le parcours linéaire, pour un résultat toujours identique
// à ActiveSegment.
type Timeline struct {
	segments []domain.TranscriptSegment
	spans    []span
	disjoint bool
}

func NewTimeline(segments []domain.TranscriptSegment) *Timeline {
	tl := &Timeline{segments: segments}
	for i, seg := range segments {
		if seg.StartTime == nil {
			continue
		}
		sp := span{index: i, start: *seg.StartTime, end: math.Inf(1)}
		switch {
		case seg.EndTime != nil:
			sp.end = *seg.EndTime
		case i+1 < len(segments) && segments[i+1].StartTime != nil:
			sp.end = *segments[i+1].StartTime
		}
		if sp.end <= sp.start {
			// Intervalle vide : jamais actif.
			continue
		}
		tl.spans = append(tl.spans, sp)
	}

	tl.disjoint = true
	for i := 1; i < len(tl.spans); i++ {
		if tl.spans[i].start < tl.spans[i-1].end {
			tl.disjoint = false
			break
		}
	}
	return tl
}

func (tl *Timeline) Len() int { return len(tl.segments) }

// Active renvoie le même résultat que ActiveSegment(t, segments).
func (tl *Timeline) Active(t float64) (int, bool) {
	if math.IsNaN(t) {
		return 0, false
	}
	if !tl.disjoint {
		return ActiveSegment(t, tl.segments)
	}
	// Premier intervalle qui commence après t, puis on regarde le précédent.
	i := sort.Search(len(tl.spans), func(i int) bool { return tl.spans[i].start > t })
	if i == 0 {
		return 0, false
	}
	sp := tl.spans[i-1]
	if t < sp.end {
		return sp.index, true
	}
	return 0, false
}
