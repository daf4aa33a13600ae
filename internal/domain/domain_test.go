package domain

import (
	"errors"
	"testing"
	"time"
)

func fp(v float64) *float64 { return &v }

func TestCanTransitionSubscriber(t *testing.T) {
	cases := []struct {
		from, to SubscriberStatus
		want     bool
	}{
		{SubscriberActive, SubscriberUnsubscribed, true},
		{SubscriberActive, SubscriberBanned, true},
		{SubscriberUnsubscribed, SubscriberActive, true},
		{SubscriberUnsubscribed, SubscriberBanned, true},
		{SubscriberBanned, SubscriberActive, true},
		{SubscriberBanned, SubscriberUnsubscribed, false},
		{SubscriberBanned, SubscriberBanned, true},
		{SubscriberStatus("ghost"), SubscriberActive, false},
	}
	for _, c := range cases {
		if got := CanTransitionSubscriber(c.from, c.to); got != c.want {
			t.Fatalf("%s -> %s: want %v, got %v", c.from, c.to, c.want, got)
		}
	}
}

func TestSubscriberReceives(t *testing.T) {
	s := Subscriber{Status: SubscriberActive, NotificationsEnabled: true}
	if !s.Receives() {
		t.Fatalf("active + notifications must receive")
	}
	s.NotificationsEnabled = false
	if s.Receives() {
		t.Fatalf("notifications off must not receive")
	}
	s = Subscriber{Status: SubscriberBanned, NotificationsEnabled: true}
	if s.Receives() {
		t.Fatalf("banned must not receive")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Jane.Doe@Example.COM "); got != "jane.doe@example.com" {
		t.Fatalf("NormalizeEmail: got %q", got)
	}
}

func TestEpisodePublishOnce(t *testing.T) {
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	ep := Episode{ID: "e1"}
	if ep.State() != EpisodeDraft {
		t.Fatalf("new episode must be a draft")
	}
	pub, err := ep.Publish(at)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if pub.State() != EpisodePublished || pub.PublishedAt == nil || !pub.PublishedAt.Equal(at) {
		t.Fatalf("unexpected published episode: %+v", pub)
	}
	if _, err := pub.Publish(at.Add(time.Hour)); !errors.Is(err, ErrAlreadyPublished) {
		t.Fatalf("second publish: want ErrAlreadyPublished, got %v", err)
	}
}

func TestValidateSegments(t *testing.T) {
	ok := []TranscriptSegment{
		{DisplayOrder: 0, StartTime: fp(0), EndTime: fp(4)},
		{DisplayOrder: 1},
		{DisplayOrder: 2, StartTime: fp(4)},
		{DisplayOrder: 3, EndTime: fp(9)},
	}
	if err := ValidateSegments(ok); err != nil {
		t.Fatalf("ValidateSegments: %v", err)
	}

	bad := map[string][]TranscriptSegment{
		"duplicate order":   {{DisplayOrder: 1}, {DisplayOrder: 1}},
		"unsorted":          {{DisplayOrder: 2}, {DisplayOrder: 1}},
		"start decreases":   {{DisplayOrder: 0, StartTime: fp(5)}, {DisplayOrder: 1, StartTime: fp(3)}},
		"end before start":  {{DisplayOrder: 0, StartTime: fp(5), EndTime: fp(2)}},
		"negative end":      {{DisplayOrder: 0, EndTime: fp(-2)}},
		"negative start":    {{DisplayOrder: 0, StartTime: fp(-1)}},
	}
	for name, segs := range bad {
		if err := ValidateSegments(segs); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestSegmentFieldApply(t *testing.T) {
	s := TranscriptSegment{Content: "a"}
	got, err := SegmentReferenceLink.Apply(s, "https://example.com")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if got.ReferenceLink != "https://example.com" || got.Content != "a" {
		t.Fatalf("unexpected segment: %+v", got)
	}
	if _, err := SegmentField("start_time").Apply(s, "1"); err == nil {
		t.Fatalf("expected error for unknown field")
	}
}

func TestBroadcastResultTally(t *testing.T) {
	var r BroadcastResult
	r.Total = 5
	for i := 0; i < 5; i++ {
		r.RecordFailure("boom")
	}
	if r.Failed != 5 || len(r.PartialErrors) != MaxPartialErrors {
		t.Fatalf("unexpected tally: %+v", r)
	}
	if !r.AllFailed() {
		t.Fatalf("expected AllFailed")
	}
	r.RecordSuccess()
	if r.AllFailed() {
		t.Fatalf("one success means not all failed")
	}
	if (BroadcastResult{}).AllFailed() {
		t.Fatalf("empty batch is not a failure")
	}
}

func TestCanTransitionJob(t *testing.T) {
	if !CanTransition(JobQueued, JobRunning) || !CanTransition(JobRunning, JobCompleted) {
		t.Fatalf("expected happy path transitions")
	}
	if CanTransition(JobCompleted, JobRunning) {
		t.Fatalf("terminal state must not transition")
	}
}
