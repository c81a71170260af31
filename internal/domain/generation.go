package domain

// GenerationRange maps a generation label to an inclusive id interval.
type GenerationRange struct {
	Name  string `json:"name"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

func (g GenerationRange) Contains(id int) bool {
	return id >= g.Start && id <= g.End
}

var Generations = []GenerationRange{
	{Name: "Gen 1", Start: 1, End: 151},
	{Name: "Gen 2", Start: 152, End: 251},
	{Name: "Gen 3", Start: 252, End: 386},
	{Name: "Gen 4", Start: 387, End: 493},
	{Name: "Gen 5", Start: 494, End: 649},
	{Name: "Gen 6", Start: 650, End: 721},
	{Name: "Gen 7", Start: 722, End: 809},
	{Name: "Gen 8", Start: 810, End: 898},
}

func LookupGeneration(name string) (GenerationRange, bool) {
	for _, g := range Generations {
		if g.Name == name {
			return g, true
		}
	}
	return GenerationRange{}, false
}

var Types = []string{
	"normal",
	"fire",
	"water",
	"electric",
	"grass",
	"ice",
	"fighting",
	"poison",
	"ground",
	"flying",
	"psychic",
	"bug",
	"rock",
	"ghost",
	"dragon",
	"dark",
	"steel",
	"fairy",
}

func IsKnownType(t string) bool {
	for _, known := range Types {
		if known == t {
			return true
		}
	}
	return false
}
