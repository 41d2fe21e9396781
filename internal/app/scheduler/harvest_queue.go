package scheduler

import (
	"farmbot/internal/domain/grid"
	"farmbot/internal/domain/planner"
	"farmbot/internal/domain/world"
)

type harvestEntry struct {
	cell  grid.Cell
	point grid.Point
}

// HarvestQueue is the persistent worklist of harvestable cells. It survives
// across cycles and is drained greedily by distance to the robot.
type HarvestQueue struct {
	entries []harvestEntry
}

func NewHarvestQueue() *HarvestQueue {
	return &HarvestQueue{}
}

// Refresh appends newly harvestable cells from snap and returns how many
// were added.
func (q *HarvestQueue) Refresh(snap world.Snapshot) int {
	added := 0
	for _, v := range snap.Plants {
		if !v.Harvestable() || q.contains(v.Cell()) {
			continue
		}
		q.entries = append(q.entries, harvestEntry{
			cell:  v.Cell(),
			point: grid.Point{X: v.Position.X, Z: v.Position.Z},
		})
		added++
	}
	return added
}

// Next returns the queued cell nearest to robot without removing it.
func (q *HarvestQueue) Next(robot grid.Point) (grid.Cell, bool) {
	if len(q.entries) == 0 {
		return grid.Cell{}, false
	}
	points := make([]grid.Point, len(q.entries))
	for i, e := range q.entries {
		points[i] = e.point
	}
	return q.entries[planner.NearestPoint(robot, points)].cell, true
}

func (q *HarvestQueue) Remove(c grid.Cell) bool {
	for i, e := range q.entries {
		if e.cell == c {
			q.entries = append(q.entries[:i], q.entries[i+1:]...)
			return true
		}
	}
	return false
}

func (q *HarvestQueue) Len() int {
	return len(q.entries)
}

func (q *HarvestQueue) Cells() []grid.Cell {
	out := make([]grid.Cell, len(q.entries))
	for i, e := range q.entries {
		out[i] = e.cell
	}
	return out
}

func (q *HarvestQueue) contains(c grid.Cell) bool {
	for _, e := range q.entries {
		if e.cell == c {
			return true
		}
	}
	return false
}
