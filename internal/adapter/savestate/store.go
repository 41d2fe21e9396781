package savestate

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"

	"farmbot/internal/app/ports"
	"farmbot/internal/domain/world"
)

const snapshotObject = "snapshots"

// Store keeps farm snapshots in the per-user application data directory.
// A nil manager degrades to a store that saves nothing and finds nothing.
type Store struct {
	m *gdata.Manager
}

func Open(appName string) (*Store, error) {
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		return nil, fmt.Errorf("open save data %q: %w", appName, err)
	}
	return &Store{m: m}, nil
}

func New(m *gdata.Manager) *Store {
	return &Store{m: m}
}

func (s *Store) Save(_ context.Context, key string, snap world.Snapshot) error {
	if s.m == nil {
		return nil
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot %s: %w", key, err)
	}
	if err := s.m.SaveObjectProp(snapshotObject, key, data); err != nil {
		return fmt.Errorf("save snapshot %s: %w", key, err)
	}
	return nil
}

func (s *Store) Load(_ context.Context, key string) (world.Snapshot, error) {
	if s.m == nil || !s.m.ObjectPropExists(snapshotObject, key) {
		return world.Snapshot{}, ports.ErrNotFound
	}
	data, err := s.m.LoadObjectProp(snapshotObject, key)
	if err != nil {
		return world.Snapshot{}, fmt.Errorf("load snapshot %s: %w", key, err)
	}
	var snap world.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Printf("[SAVE] snapshot %s is corrupt, ignoring: %v", key, err)
		return world.Snapshot{}, ports.ErrNotFound
	}
	return snap, nil
}
