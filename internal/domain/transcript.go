package domain

import (
	"fmt"
)

// TranscriptSegment est une unité ordonnée d'un transcript.
// StartTime/EndTime sont en secondes et optionnels.
type TranscriptSegment struct {
	ID             string   `json:"id"`
	EpisodeID      string   `json:"episodeId"`
	Content        string   `json:"content"`
	StartTime      *float64 `json:"startTime"`
	EndTime        *float64 `json:"endTime"`
	ReferenceLink  string   `json:"referenceLink,omitempty"`
	ReferenceTitle string   `json:"referenceTitle,omitempty"`
	DisplayOrder   int      `json:"displayOrder"`
}

func (s TranscriptSegment) HasStart() bool { return s.StartTime != nil }
func (s TranscriptSegment) HasEnd() bool   { return s.EndTime != nil }

// SegmentField liste les champs éditables d'un segment.
type SegmentField string

const (
	SegmentContent        SegmentField = "content"
	SegmentReferenceLink  SegmentField = "reference_link"
	SegmentReferenceTitle SegmentField = "reference_title"
)

func (f SegmentField) Valid() bool {
	switch f {
	case SegmentContent, SegmentReferenceLink, SegmentReferenceTitle:
		return true
	}
	return false
}

// Apply renvoie une copie du segment avec le champ modifié.
func (f SegmentField) Apply(s TranscriptSegment, value string) (TranscriptSegment, error) {
	switch f {
	case SegmentContent:
		s.Content = value
	case SegmentReferenceLink:
		s.ReferenceLink = value
	case SegmentReferenceTitle:
		s.ReferenceTitle = value
	default:
		return s, fmt.Errorf("unknown segment field %q", string(f))
	}
	return s, nil
}

// ValidateSegments vérifie les invariants d'ordre d'un transcript déjà trié par DisplayOrder :
// ordre unique, start non décroissant (quand présent), end >= start quand les deux sont présents.
func ValidateSegments(segments []TranscriptSegment) error {
	seen := make(map[int]struct{}, len(segments))
	var lastStart *float64
	for i, s := range segments {
		if _, dup := seen[s.DisplayOrder]; dup {
			return fmt.Errorf("segment %d: duplicate display order %d", i, s.DisplayOrder)
		}
		seen[s.DisplayOrder] = struct{}{}
		if i > 0 && s.DisplayOrder < segments[i-1].DisplayOrder {
			return fmt.Errorf("segment %d: display order %d is not sorted", i, s.DisplayOrder)
		}
		if s.StartTime != nil {
			if *s.StartTime < 0 {
				return fmt.Errorf("segment %d: negative start time", i)
			}
			if lastStart != nil && *s.StartTime < *lastStart {
				return fmt.Errorf("segment %d: start time %.3f before previous %.3f", i, *s.StartTime, *lastStart)
			}
			lastStart = s.StartTime
		}
		// Un end sans start est accepté : le segment reste inerte pour la synchro.
		if s.EndTime != nil {
			if *s.EndTime < 0 {
				return fmt.Errorf("segment %d: negative end time", i)
			}
			if s.StartTime != nil && *s.EndTime < *s.StartTime {
				return fmt.Errorf("segment %d: end time before start time", i)
			}
		}
	}
	return nil
}
