package domain

// IndexEntry is one row of the catalog index.
type IndexEntry struct {
	Name string `json:"name"`
	URL  string `json:"url"` // Detail endpoint for this item
}

// Index is the catalog index of a view session together with the outcome of
// its single load attempt.
type Index struct {
	Entries []IndexEntry `json:"entries"`
	Err     error        `json:"-"`
}

type Stat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

type DetailRecord struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	ImageURL  *string  `json:"image_url"`
	Types     []string `json:"types"`
	Height    int      `json:"height"` // Decimetres
	Weight    int      `json:"weight"` // Hectograms
	Abilities []string `json:"abilities"`
	Stats     []Stat   `json:"stats"`
}

func (d DetailRecord) HasType(t string) bool {
	for _, own := range d.Types {
		if own == t {
			return true
		}
	}
	return false
}

func (d DetailRecord) HeightMeters() float64 {
	return float64(d.Height) / 10
}

func (d DetailRecord) WeightKilograms() float64 {
	return float64(d.Weight) / 10
}
