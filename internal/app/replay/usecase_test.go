package replay

import (
	"context"
	"errors"
	"testing"
	"time"

	"farmbot/internal/adapter/repo/memory"
	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

type failingEvents struct{ err error }

func (f failingEvents) Append(context.Context, []world.Event) error { return nil }
func (f failingEvents) List(context.Context, int) ([]world.Event, error) {
	return nil, f.err
}

func seed(t *testing.T) ports.EventRepository {
	t.Helper()
	repo := memory.NewEventRepo(memory.NewStore())
	base := time.Unix(1700000000, 0).UTC()
	events := []world.Event{
		{ID: "1", Type: world.EventStatusChanged, OccurredAt: base, Payload: map[string]any{"to": "scanning_tasks"}},
		{ID: "2", Type: world.EventTaskStarted, OccurredAt: base.Add(time.Second), Payload: map[string]any{"task_id": "t-1", "type": "watering"}},
		{ID: "3", Type: world.EventOperationDone, OccurredAt: base.Add(2 * time.Second), Payload: map[string]any{"plant_id": "plant_1_1"}},
		{ID: "4", Type: world.EventStatusChanged, OccurredAt: base.Add(3 * time.Second), Payload: map[string]any{"to": "idle"}},
	}
	if err := repo.Append(context.Background(), events); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo
}

func TestUseCase_ReconstructsLatest(t *testing.T) {
	resp, err := UseCase{Events: seed(t)}.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(resp.Events) != 4 || resp.Counts[world.EventStatusChanged] != 2 {
		t.Fatalf("unexpected events %+v counts %+v", resp.Events, resp.Counts)
	}
	l := resp.Latest
	if l.Status != "idle" || l.LastTaskID != "t-1" || l.LastTaskType != "watering" {
		t.Fatalf("unexpected latest %+v", l)
	}
	if len(l.PlantsTouched) != 1 || l.PlantsTouched[0] != "plant_1_1" {
		t.Fatalf("expected plant_1_1 touched, got %v", l.PlantsTouched)
	}
}

func TestUseCase_FiltersWindowAndType(t *testing.T) {
	from := time.Unix(1700000001, 0).Unix()
	resp, err := UseCase{Events: seed(t)}.Execute(context.Background(), Request{
		OccurredFrom: from,
		Types:        []world.EventType{world.EventStatusChanged},
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(resp.Events) != 1 || resp.Events[0].ID != "4" {
		t.Fatalf("expected only event 4, got %+v", resp.Events)
	}
}

func TestUseCase_EmptyRepoIsNotAnError(t *testing.T) {
	resp, err := UseCase{Events: memory.NewEventRepo(memory.NewStore())}.Execute(context.Background(), Request{})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if resp.Events == nil || len(resp.Events) != 0 {
		t.Fatalf("expected empty events, got %+v", resp.Events)
	}
}

func TestUseCase_RejectsBadRequests(t *testing.T) {
	uc := UseCase{Events: failingEvents{}}
	if _, err := uc.Execute(context.Background(), Request{Limit: -1}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for negative limit, got %v", err)
	}
	if _, err := uc.Execute(context.Background(), Request{OccurredFrom: 10, OccurredTo: 5}); !errors.Is(err, ErrInvalidRequest) {
		t.Fatalf("expected ErrInvalidRequest for inverted window, got %v", err)
	}
}

func TestUseCase_PropagatesRepoError(t *testing.T) {
	wantErr := errors.New("db down")
	if _, err := (UseCase{Events: failingEvents{err: wantErr}}).Execute(context.Background(), Request{}); !errors.Is(err, wantErr) {
		t.Fatalf("expected %v, got %v", wantErr, err)
	}
}
