package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/voicehouse/outreach/internal/domain"
)

type fakeJobStore struct {
	due       map[string][]domain.Job
	completed []string
	failed    []string
	claimErr  error
}

func (s *fakeJobStore) ClaimDue(_ context.Context, jobType string, limit int) ([]domain.Job, error) {
	if s.claimErr != nil {
		return nil, s.claimErr
	}
	jobs := s.due[jobType]
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	s.due[jobType] = nil
	return jobs, nil
}

func (s *fakeJobStore) MarkCompleted(_ context.Context, id string) error {
	s.completed = append(s.completed, id)
	return nil
}

func (s *fakeJobStore) MarkFailed(_ context.Context, id string, _ error, _ int) error {
	s.failed = append(s.failed, id)
	return nil
}

type fakeMarker struct {
	sent    []string
	failIDs map[string]bool
}

func (m *fakeMarker) MarkSent(_ context.Context, id string) error {
	if m.failIDs[id] {
		return errors.New("provider still pending")
	}
	m.sent = append(m.sent, id)
	return nil
}

type fakeSyncer struct {
	synced []string
	result domain.SyncResult
}

func (s *fakeSyncer) SyncAudience(_ context.Context, id string) (*domain.SyncResult, error) {
	s.synced = append(s.synced, id)
	cp := s.result
	return &cp, nil
}

func broadcastJob(t *testing.T, id, campaignID string) domain.Job {
	t.Helper()
	payload, err := json.Marshal(map[string]string{
		"campaign_id":  campaignID,
		"broadcast_id": "bcast-" + campaignID,
	})
	if err != nil {
		t.Fatal(err)
	}
	return domain.Job{ID: id, Type: domain.JobSendBroadcast, Payload: payload, RunAt: time.Now()}
}

func TestTickDispatchesDueBroadcasts(t *testing.T) {
	store := &fakeJobStore{due: map[string][]domain.Job{
		domain.JobSendBroadcast: {
			broadcastJob(t, "job-1", "camp-1"),
			broadcastJob(t, "job-2", "camp-2"),
		},
	}}
	marker := &fakeMarker{}
	bs := NewBroadcastScheduler(store, marker, &fakeSyncer{}, 3)

	bs.Tick(context.Background())

	if len(marker.sent) != 2 {
		t.Fatalf("expected 2 campaigns marked sent, got %v", marker.sent)
	}
	if len(store.completed) != 2 || len(store.failed) != 0 {
		t.Fatalf("completed=%v failed=%v", store.completed, store.failed)
	}
}

func TestTickMarksFailedJobs(t *testing.T) {
	store := &fakeJobStore{due: map[string][]domain.Job{
		domain.JobSendBroadcast: {
			broadcastJob(t, "job-1", "camp-ok"),
			broadcastJob(t, "job-2", "camp-bad"),
		},
	}}
	marker := &fakeMarker{failIDs: map[string]bool{"camp-bad": true}}
	bs := NewBroadcastScheduler(store, marker, &fakeSyncer{}, 3)

	bs.Tick(context.Background())

	if len(store.completed) != 1 || store.completed[0] != "job-1" {
		t.Fatalf("completed=%v", store.completed)
	}
	if len(store.failed) != 1 || store.failed[0] != "job-2" {
		t.Fatalf("failed=%v", store.failed)
	}
}

func TestTickRejectsMalformedPayload(t *testing.T) {
	store := &fakeJobStore{due: map[string][]domain.Job{
		domain.JobSendBroadcast: {
			{ID: "job-1", Type: domain.JobSendBroadcast, Payload: json.RawMessage(`{"campaign_id":""}`)},
		},
	}}
	marker := &fakeMarker{}
	bs := NewBroadcastScheduler(store, marker, &fakeSyncer{}, 3)

	bs.Tick(context.Background())

	if len(marker.sent) != 0 {
		t.Fatalf("nothing should be marked sent: %v", marker.sent)
	}
	if len(store.failed) != 1 {
		t.Fatalf("failed=%v", store.failed)
	}
}

func TestTickRunsDeferredSyncs(t *testing.T) {
	payload, _ := json.Marshal(map[string]string{"audience_id": "aud-1"})
	store := &fakeJobStore{due: map[string][]domain.Job{
		domain.JobSyncAudience: {
			{ID: "job-1", Type: domain.JobSyncAudience, Payload: payload},
		},
	}}
	syncer := &fakeSyncer{result: domain.SyncResult{Synced: 5}}
	bs := NewBroadcastScheduler(store, &fakeMarker{}, syncer, 3)

	bs.Tick(context.Background())

	if len(syncer.synced) != 1 || syncer.synced[0] != "aud-1" {
		t.Fatalf("synced=%v", syncer.synced)
	}
	if len(store.completed) != 1 {
		t.Fatalf("completed=%v", store.completed)
	}
}

func TestTickSurvivesClaimError(t *testing.T) {
	store := &fakeJobStore{claimErr: errors.New("db down")}
	bs := NewBroadcastScheduler(store, &fakeMarker{}, &fakeSyncer{}, 3)

	bs.Tick(context.Background())

	if len(store.completed) != 0 || len(store.failed) != 0 {
		t.Fatal("no jobs should settle when claiming fails")
	}
}

func TestStartStop(t *testing.T) {
	store := &fakeJobStore{due: map[string][]domain.Job{}}
	bs := NewBroadcastScheduler(store, &fakeMarker{}, &fakeSyncer{}, 3)
	bs.SetPollInterval(10 * time.Millisecond)

	if err := bs.Start(); err != nil {
		t.Fatal(err)
	}
	if err := bs.Start(); err == nil {
		t.Fatal("second Start must fail")
	}
	time.Sleep(25 * time.Millisecond)
	bs.Stop()
	bs.Stop() // idempotent
}
