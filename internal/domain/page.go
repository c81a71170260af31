package domain

type ResultPage struct {
	Items       []DetailRecord `json:"items"`
	CurrentPage int            `json:"current_page"`
	TotalPages  int            `json:"total_pages"`
	TotalCount  int            `json:"total_count"` // Records left after attribute filtering
	Candidates  int            `json:"candidates"`  // Prefix matches whose details were fetched
	Truncated   bool           `json:"truncated"`   // More prefix matches existed than the candidate cap
}

func EmptyResultPage() ResultPage {
	return ResultPage{
		Items:       []DetailRecord{},
		CurrentPage: 1,
		TotalPages:  1,
	}
}
