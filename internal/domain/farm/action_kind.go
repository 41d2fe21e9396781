package farm

type ActionKind string

const (
	ActionWater      ActionKind = "water"
	ActionHarvest    ActionKind = "harvest"
	ActionWeed       ActionKind = "weed"
	ActionPlant      ActionKind = "plant"
	ActionScan       ActionKind = "scan"
	ActionSoilDetect ActionKind = "soil_detect"
	ActionSpray      ActionKind = "spray_pesticide"
	ActionFertilize  ActionKind = "fertilize"
	ActionClear      ActionKind = "clear"
	ActionMove       ActionKind = "move"
)

var actionKinds = map[ActionKind]bool{
	ActionWater:      true,
	ActionHarvest:    true,
	ActionWeed:       true,
	ActionPlant:      true,
	ActionScan:       true,
	ActionSoilDetect: true,
	ActionSpray:      true,
	ActionFertilize:  true,
	ActionClear:      true,
}

// Valid reports whether k targets a cell. Move is handled separately.
func (k ActionKind) Valid() bool {
	return actionKinds[k]
}
