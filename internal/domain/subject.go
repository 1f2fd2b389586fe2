package domain

// Subject represents an academic subject that resources are attached to.
type Subject struct {
	// ID is the caller-assigned course code, e.g. "IT101".
	ID          string `json:"id"`
	Name        string `json:"name"`
	Stage       string `json:"stage"`
	Description string `json:"description"`

	// ResourcesCount mirrors the number of resources whose SubjectID is ID.
	ResourcesCount int `json:"resourcesCount"`
}

// FindSubject returns the index of the subject with the given id, or -1.
func FindSubject(subjects []Subject, id string) int {
	for i := range subjects {
		if subjects[i].ID == id {
			return i
		}
	}
	return -1
}

// FilterByStage returns the subjects whose stage equals stage exactly.
func FilterByStage(subjects []Subject, stage string) []Subject {
	out := make([]Subject, 0, len(subjects))
	for _, s := range subjects {
		if s.Stage == stage {
			out = append(out, s)
		}
	}
	return out
}

// CountResources recomputes ResourcesCount for every subject from resources.
// It returns the number of subjects whose count changed.
func CountResources(subjects []Subject, resources []Resource) int {
	counts := make(map[string]int, len(subjects))
	for _, r := range resources {
		counts[r.SubjectID]++
	}
	changed := 0
	for i := range subjects {
		if n := counts[subjects[i].ID]; subjects[i].ResourcesCount != n {
			subjects[i].ResourcesCount = n
			changed++
		}
	}
	return changed
}
