package notion

import "context"

// List is one page of a cursor-paginated listing.
type List[T any] struct {
	Results    []T    `json:"results"`
	NextCursor string `json:"next_cursor"`
	HasMore    bool   `json:"has_more"`
}

// Collect requests pages until one comes back without a next cursor and
// returns the results of all pages in order.
func Collect[T any](ctx context.Context, fetch func(ctx context.Context, cursor string) (List[T], error)) ([]T, error) {
	all := make([]T, 0)
	cursor := ""
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, cursor)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Results...)
		if page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}
