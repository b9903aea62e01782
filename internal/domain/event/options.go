package event

// ListOptions provides filtering options for listing events.
type ListOptions struct {
	ProjectID *uint64
	Kind      *Kind
	AfterSeq  int64
	Limit     int
}
