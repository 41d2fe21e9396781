package world

import (
	"farmbot/internal/domain/farm"
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/ledger"
)

type Robot struct {
	Position    grid.Point `json:"position"`
	Rotation    float64    `json:"rotation"`
	Energy      float64    `json:"energy"`
	Coins       int        `json:"coins"`
	CurrentTask string     `json:"current_task,omitempty"`
}

// Snapshot is a self-contained copy of the world at the end of a tick.
type Snapshot struct {
	Version     uint64           `json:"version"`
	Tick        uint64           `json:"tick"`
	Elapsed     float64          `json:"elapsed_seconds"`
	GridSize    int              `json:"grid_size"`
	Robot       Robot            `json:"robot"`
	Coins       int              `json:"coins"`
	Score       int              `json:"score"`
	Phase       Phase            `json:"phase"`
	Environment farm.Environment `json:"environment"`
	Plants      []farm.CellView  `json:"plants"`
	Resources   ledger.State     `json:"resources"`
}

func (s Snapshot) Plant(id string) (farm.CellView, bool) {
	for _, p := range s.Plants {
		if p.ID == id {
			return p, true
		}
	}
	return farm.CellView{}, false
}

func (s Snapshot) PlantAt(c grid.Cell) (farm.CellView, bool) {
	if s.GridSize > 0 {
		i := c.Row*s.GridSize + c.Col
		if c.Row >= 0 && c.Col >= 0 && c.Col < s.GridSize && i < len(s.Plants) && s.Plants[i].Row == c.Row && s.Plants[i].Col == c.Col {
			return s.Plants[i], true
		}
	}
	for _, p := range s.Plants {
		if p.Row == c.Row && p.Col == c.Col {
			return p, true
		}
	}
	return farm.CellView{}, false
}

// Clone returns a deep copy so callers may mutate the result freely.
func (s Snapshot) Clone() Snapshot {
	out := s
	out.Plants = append([]farm.CellView(nil), s.Plants...)
	out.Resources.Seeds = make(map[farm.CropKind]int, len(s.Resources.Seeds))
	for k, v := range s.Resources.Seeds {
		out.Resources.Seeds[k] = v
	}
	out.Resources.Tools = make(map[ledger.ToolName]ledger.Tool, len(s.Resources.Tools))
	for k, v := range s.Resources.Tools {
		out.Resources.Tools[k] = v
	}
	return out
}
