package farm

const (
	CropMaxStage = 3
	WeedMaxStage = 2

	MaxHealth          = 100.0
	MinHarvestHealth   = 30.0
	WiltHealth         = 20.0
	MaxMoisture        = 100.0
	SeedMoisture       = 30.0
	GerminatedMoisture = 60.0

	WaterThreshold      = 30.0
	FertilizerThreshold = 30.0
	WaterMoistureGain   = 30.0
	WaterHealCap        = 15.0
	WaterPestDamage     = 5.0
	WaterPestHealthFlr  = 10.0

	GerminationCropChance = 0.8
	PestChance            = 0.15
	PestMax               = 2
	PestHealthPenalty     = 20.0
	PestHealthFloor       = 40.0

	CropGrowthRate       = 0.02
	WeedGrowthMultiplier = 1.5
	StressGrowthPenalty  = 0.5

	// Pest damage is a fraction of current health per pest per minute.
	PestDamageFraction = 0.05

	RecoveryPerSecond     = 0.5
	ThirstDamagePerSecond = 2.0
	HungerDamagePerSecond = 1.0
	ClimateDamagePerSec   = 1.0
	OptimalTemperature    = 24.0
	ClimateTolerance      = 10.0

	NutrientDrainRate = 0.2
	FertilizedLevel   = 80.0

	HarvestBaseCoins    = 10
	HarvestCoinsPerUnit = 15
	HarvestCoinsPerStg  = 5
	PerfectHealth       = 90.0
	PerfectBonusCoins   = 20

	WeedRemovalCoins   = 10
	WeedRemovalScore   = 50
	MissedWeedDamage   = 30.0
	MissedWeedPenalty  = 100
	PesticideHealCap   = 20.0
	PesticideCoinsPest = 5

	SeedNitrogen   = 70.0
	SeedPhosphorus = 60.0
	SeedPotassium  = 65.0
)
