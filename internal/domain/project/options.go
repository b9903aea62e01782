package project

// ListOptions provides filtering options for listing projects.
type ListOptions struct {
	Status *Status
	Limit  int
	Offset int
}
