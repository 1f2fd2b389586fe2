package domain

// Resource is a learning resource (book, slides, exercises) attached to a subject.
type Resource struct {
	ID string `json:"id"`

	// SubjectID is a weak back-reference to the owning Subject.
	SubjectID string `json:"subjectId"`

	Title string `json:"title"`

	// Type is a file-kind tag such as "pdf" or "docx".
	Type        string `json:"type"`
	URL         string `json:"url"`
	Description string `json:"description"`
	UploadDate  Date   `json:"uploadDate"`

	// Size is human readable, e.g. "2.4 MB".
	Size string `json:"size"`
}

// FindResource returns the index of the resource with the given id, or -1.
func FindResource(resources []Resource, id string) int {
	for i := range resources {
		if resources[i].ID == id {
			return i
		}
	}
	return -1
}

// RemoveBySubject returns resources without those owned by subjectID, and
// how many were removed.
func RemoveBySubject(resources []Resource, subjectID string) ([]Resource, int) {
	kept := make([]Resource, 0, len(resources))
	for _, r := range resources {
		if r.SubjectID != subjectID {
			kept = append(kept, r)
		}
	}
	return kept, len(resources) - len(kept)
}
