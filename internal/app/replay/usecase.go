package replay

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

var ErrInvalidRequest = errors.New("invalid replay request")

const maxLimit = 1000

type UseCase struct {
	Events ports.EventRepository
}

func (u UseCase) Execute(ctx context.Context, req Request) (Response, error) {
	if req.Limit < 0 || req.Limit > maxLimit {
		return Response{}, fmt.Errorf("%w: limit must be within 0..%d", ErrInvalidRequest, maxLimit)
	}
	if req.OccurredFrom > 0 && req.OccurredTo > 0 && req.OccurredFrom > req.OccurredTo {
		return Response{}, fmt.Errorf("%w: occurred_from after occurred_to", ErrInvalidRequest)
	}
	events, err := u.Events.List(ctx, req.Limit)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			events = nil
		} else {
			return Response{}, err
		}
	}
	events = filterByTimeWindow(events, req.OccurredFrom, req.OccurredTo)
	events = filterByType(events, req.Types)
	if events == nil {
		events = []world.Event{}
	}

	counts := make(map[world.EventType]int)
	for _, e := range events {
		counts[e.Type]++
	}
	return Response{Events: events, Counts: counts, Latest: reconstruct(events)}, nil
}

func filterByTimeWindow(events []world.Event, from, to int64) []world.Event {
	if from <= 0 && to <= 0 {
		return events
	}
	out := make([]world.Event, 0, len(events))
	for _, evt := range events {
		ts := evt.OccurredAt.Unix()
		if from > 0 && ts < from {
			continue
		}
		if to > 0 && ts > to {
			continue
		}
		out = append(out, evt)
	}
	return out
}

func filterByType(events []world.Event, types []world.EventType) []world.Event {
	if len(types) == 0 {
		return events
	}
	want := make(map[world.EventType]bool, len(types))
	for _, t := range types {
		want[t] = true
	}
	out := make([]world.Event, 0, len(events))
	for _, evt := range events {
		if want[evt.Type] {
			out = append(out, evt)
		}
	}
	return out
}

// reconstruct folds events oldest first so later events overwrite earlier
// ones. Repositories list newest first.
func reconstruct(events []world.Event) Latest {
	ordered := append([]world.Event(nil), events...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].OccurredAt.Before(ordered[j].OccurredAt) })

	latest := Latest{PlantsTouched: []string{}}
	touched := map[string]bool{}
	for _, evt := range ordered {
		switch evt.Type {
		case world.EventStatusChanged:
			latest.Status = str(evt.Payload["to"])
		case world.EventTaskStarted:
			latest.LastTaskID = str(evt.Payload["task_id"])
			latest.LastTaskType = str(evt.Payload["type"])
		case world.EventTaskError, world.EventOperationError:
			latest.LastError = str(evt.Payload["error"])
		case world.EventPlantUpdated, world.EventOperationDone:
			if id := str(evt.Payload["plant_id"]); id != "" && !touched[id] {
				touched[id] = true
				latest.PlantsTouched = append(latest.PlantsTouched, id)
			}
		}
	}
	return latest
}

func str(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return fmt.Sprint(s)
	}
}
