package expertise

type Subject struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Expertise struct {
	Subjects  []Subject `json:"subjects"`
	YearGroup string    `json:"year_group,omitempty"`
}

// YearGroups are the accepted year group tags. The empty tag means none.
var YearGroups = []string{"Y9", "Y10", "Y11", "Y12"}

// NormalizeYearGroup maps form input to a stored tag; ok is false for unknown tags.
func NormalizeYearGroup(in string) (string, bool) {
	switch in {
	case "", "None", "none":
		return "", true
	}
	for _, y := range YearGroups {
		if in == y {
			return y, true
		}
	}
	return "", false
}

type SubmitRequest struct {
	Subjects  []string `form:"subjects" json:"subjects"`
	YearGroup string   `form:"year_group" json:"year_group"`
}
