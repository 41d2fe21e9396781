package farm

type Variant string

const (
	VariantEmpty Variant = "empty"
	VariantSeed  Variant = "seed"
	VariantCrop  Variant = "crop"
	VariantWeed  Variant = "weed"
	VariantDead  Variant = "dead"
)

type CropKind string

const (
	KindWheat  CropKind = "wheat"
	KindCorn   CropKind = "corn"
	KindCarrot CropKind = "carrot"
	KindTomato CropKind = "tomato"
)

var Kinds = []CropKind{KindWheat, KindCorn, KindCarrot, KindTomato}

func (k CropKind) Valid() bool {
	for _, v := range Kinds {
		if v == k {
			return true
		}
	}
	return false
}

// Plant is the single occupant of a cell. The set of implementations is
// closed: Empty, Seed, Crop, Weed and Dead.
type Plant interface {
	Variant() Variant
	sealed()
}

type Empty struct{}

type Seed struct {
	Kind         CropKind
	Moisture     float64
	Age          float64
	SinceWatered float64
}

type Crop struct {
	Kind         CropKind
	GrowthStage  int
	Health       float64
	Moisture     float64
	PestCount    int
	Progress     float64
	Age          float64
	SinceWatered float64
}

type Weed struct {
	GrowthStage int
	Health      float64
	Progress    float64
	Age         float64
}

type Dead struct {
	Kind CropKind
	Age  float64
}

func (Empty) Variant() Variant { return VariantEmpty }
func (Seed) Variant() Variant  { return VariantSeed }
func (Crop) Variant() Variant  { return VariantCrop }
func (Weed) Variant() Variant  { return VariantWeed }
func (Dead) Variant() Variant  { return VariantDead }

func (Empty) sealed() {}
func (Seed) sealed()  {}
func (Crop) sealed()  {}
func (Weed) sealed()  {}
func (Dead) sealed()  {}

func (c Crop) Mature() bool {
	return c.GrowthStage >= CropMaxStage
}

func (c Crop) Harvestable() bool {
	return c.Mature() && c.Health >= MinHarvestHealth
}

func (c Crop) Thirsty() bool {
	return c.Moisture < WaterThreshold
}

func (w Weed) Mature() bool {
	return w.GrowthStage >= WeedMaxStage
}
