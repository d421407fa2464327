package combat

// Tier groups characters by unlock price.
type Tier string

const (
	TierLegacy    Tier = "legacy"
	TierCommon    Tier = "common"
	TierRare      Tier = "rare"
	TierEpic      Tier = "epic"
	TierLegendary Tier = "legendary"
)

// DamageModifiers scales the base damage of each offensive move.
type DamageModifiers struct {
	Punch   float64 `json:"punch"`
	Kick    float64 `json:"kick"`
	Special float64 `json:"special"`
}

// Character is an immutable roster entry. BlockEffectiveness is the
// fraction of incoming damage absorbed while guarding (0.6 absorbs 60%).
type Character struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Tier                Tier            `json:"tier"`
	MaxHP               int             `json:"maxHp"`
	MaxEnergy           int             `json:"maxEnergy"`
	EnergyRegen         int             `json:"energyRegen"`
	Damage              DamageModifiers `json:"damageModifiers"`
	BlockEffectiveness  float64         `json:"blockEffectiveness"`
	SpecialCostModifier float64         `json:"specialCostModifier"`
}

func (c Character) modifier(m Move) float64 {
	switch m {
	case MovePunch:
		return c.Damage.Punch
	case MoveKick:
		return c.Damage.Kick
	case MoveSpecial:
		return c.Damage.Special
	}
	return 0
}

var roster = []Character{
	// Legacy (free)
	{ID: "cyber-ninja", Name: "Cyber Ninja", Tier: TierLegacy, MaxHP: 96, MaxEnergy: 105, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.15, Kick: 1.05, Special: 1.0}, BlockEffectiveness: 0.6, SpecialCostModifier: 0.85},
	{ID: "dag-warrior", Name: "DAG Warrior", Tier: TierLegacy, MaxHP: 100, MaxEnergy: 100, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.05, Kick: 1.05, Special: 1.05}, BlockEffectiveness: 0.55, SpecialCostModifier: 1.0},
	{ID: "block-bruiser", Name: "Block Bruiser", Tier: TierLegacy, MaxHP: 115, MaxEnergy: 90, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.0, Kick: 1.2, Special: 1.0}, BlockEffectiveness: 0.45, SpecialCostModifier: 1.25},
	{ID: "hash-hunter", Name: "Hash Hunter", Tier: TierLegacy, MaxHP: 98, MaxEnergy: 105, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.0, Kick: 1.1, Special: 1.2}, BlockEffectiveness: 0.65, SpecialCostModifier: 1.0},

	// Common
	{ID: "neon-wraith", Name: "Neon Wraith", Tier: TierCommon, MaxHP: 92, MaxEnergy: 120, EnergyRegen: 25,
		Damage: DamageModifiers{Punch: 1.1, Kick: 1.1, Special: 1.15}, BlockEffectiveness: 0.45, SpecialCostModifier: 0.9},
	{ID: "heavy-loader", Name: "Heavy Loader", Tier: TierCommon, MaxHP: 135, MaxEnergy: 70, EnergyRegen: 15,
		Damage: DamageModifiers{Punch: 1.1, Kick: 1.0, Special: 1.0}, BlockEffectiveness: 0.4, SpecialCostModifier: 1.3},
	{ID: "cyber-paladin", Name: "Cyber Paladin", Tier: TierCommon, MaxHP: 115, MaxEnergy: 95, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.05, Kick: 1.05, Special: 1.05}, BlockEffectiveness: 0.6, SpecialCostModifier: 1.0},
	{ID: "razor-bot-7", Name: "Razor Bot 7", Tier: TierCommon, MaxHP: 95, MaxEnergy: 100, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.05, Kick: 1.05, Special: 1.3}, BlockEffectiveness: 0.5, SpecialCostModifier: 1.0},

	// Rare
	{ID: "kitsune-09", Name: "Kitsune-09", Tier: TierRare, MaxHP: 95, MaxEnergy: 110, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.05, Kick: 1.1, Special: 1.1}, BlockEffectiveness: 0.7, SpecialCostModifier: 0.9},
	{ID: "gene-smasher", Name: "Gene Smasher", Tier: TierRare, MaxHP: 115, MaxEnergy: 90, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.25, Kick: 1.25, Special: 1.1}, BlockEffectiveness: 0.25, SpecialCostModifier: 1.0},
	{ID: "nano-brawler", Name: "Nano Brawler", Tier: TierRare, MaxHP: 95, MaxEnergy: 105, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.2, Kick: 1.0, Special: 1.1}, BlockEffectiveness: 0.45, SpecialCostModifier: 1.0},
	{ID: "sonic-striker", Name: "Sonic Striker", Tier: TierRare, MaxHP: 105, MaxEnergy: 100, EnergyRegen: 18,
		Damage: DamageModifiers{Punch: 1.15, Kick: 1.15, Special: 1.0}, BlockEffectiveness: 0.5, SpecialCostModifier: 1.0},

	// Epic
	{ID: "viperblade", Name: "Viperblade", Tier: TierEpic, MaxHP: 105, MaxEnergy: 100, EnergyRegen: 23,
		Damage: DamageModifiers{Punch: 1.15, Kick: 1.15, Special: 1.1}, BlockEffectiveness: 0.6, SpecialCostModifier: 1.0},
	{ID: "bastion-hulk", Name: "Bastion Hulk", Tier: TierEpic, MaxHP: 120, MaxEnergy: 115, EnergyRegen: 20,
		Damage: DamageModifiers{Punch: 1.0, Kick: 1.0, Special: 1.1}, BlockEffectiveness: 0.85, SpecialCostModifier: 0.9},
	{ID: "technomancer", Name: "Technomancer", Tier: TierEpic, MaxHP: 95, MaxEnergy: 120, EnergyRegen: 25,
		Damage: DamageModifiers{Punch: 0.95, Kick: 0.95, Special: 1.25}, BlockEffectiveness: 0.55, SpecialCostModifier: 0.85},
	{ID: "prism-duelist", Name: "Prism Duelist", Tier: TierEpic, MaxHP: 100, MaxEnergy: 110, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.05, Kick: 1.05, Special: 1.2}, BlockEffectiveness: 0.75, SpecialCostModifier: 0.9},

	// Legendary
	{ID: "chrono-drifter", Name: "Chrono Drifter", Tier: TierLegendary, MaxHP: 120, MaxEnergy: 105, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.1, Kick: 1.1, Special: 1.25}, BlockEffectiveness: 0.65, SpecialCostModifier: 1.0},
	{ID: "scrap-goliath", Name: "Scrap Goliath", Tier: TierLegendary, MaxHP: 115, MaxEnergy: 80, EnergyRegen: 25,
		Damage: DamageModifiers{Punch: 1.1, Kick: 1.1, Special: 1.1}, BlockEffectiveness: 0.5, SpecialCostModifier: 1.1},
	{ID: "aeon-guard", Name: "Aeon Guard", Tier: TierLegendary, MaxHP: 120, MaxEnergy: 120, EnergyRegen: 24,
		Damage: DamageModifiers{Punch: 1.1, Kick: 1.1, Special: 1.2}, BlockEffectiveness: 0.65, SpecialCostModifier: 1.0},
	{ID: "void-reaper", Name: "Void Reaper", Tier: TierLegendary, MaxHP: 95, MaxEnergy: 120, EnergyRegen: 22,
		Damage: DamageModifiers{Punch: 1.25, Kick: 1.25, Special: 1.25}, BlockEffectiveness: 0.35, SpecialCostModifier: 1.0},
}

var rosterByID = func() map[string]Character {
	m := make(map[string]Character, len(roster))
	for _, c := range roster {
		m[c.ID] = c
	}
	return m
}()

// CharacterByID looks up a roster entry.
func CharacterByID(id string) (Character, bool) {
	c, ok := rosterByID[id]
	return c, ok
}

// Roster returns a copy of the full character roster.
func Roster() []Character {
	out := make([]Character, len(roster))
	copy(out, roster)
	return out
}
