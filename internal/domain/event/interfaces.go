package event

import "context"

// Repository provides read access to the notification log. Entries are
// appended by the project repository in the same transaction as the change
// they describe.
type Repository interface {
	List(ctx context.Context, opts ListOptions) ([]Event, error)
}
