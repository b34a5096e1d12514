package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jomei/notionapi"
	"github.com/xaenox/memo-bridge/internal/notion"
)

// fakeStore keeps pages and blocks in memory and pages listings by
// pageSize entries.
type fakeStore struct {
	pages    map[string]*notionapi.Page
	children map[string][]notionapi.Block
	rows     []notionapi.Page
	pageSize int

	created      []*notionapi.PageCreateRequest
	appendCalls  int
	listCalls    int
	failAppendAt int
	createErr    error
	retrieveErr  error
	updateErr    error
	updated      map[string]*notionapi.BlockUpdateRequest
	deleted      []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		pages:    map[string]*notionapi.Page{},
		children: map[string][]notionapi.Block{},
		updated:  map[string]*notionapi.BlockUpdateRequest{},
		pageSize: 100,
	}
}

func (f *fakeStore) CreatePage(_ context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)

	id := fmt.Sprintf("page-%d", len(f.created))
	page := &notionapi.Page{
		ID:             notionapi.ObjectID(id),
		URL:            "https://notion.so/" + id,
		LastEditedTime: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
		Properties:     req.Properties,
	}
	f.pages[id] = page
	return page, nil
}

func (f *fakeStore) RetrievePage(_ context.Context, pageID string) (*notionapi.Page, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	page, ok := f.pages[pageID]
	if !ok {
		return nil, &notion.StoreError{Op: "retrieve page", Status: 404, Code: "object_not_found", Kind: notion.Permanent}
	}
	return page, nil
}

func (f *fakeStore) AppendChildren(_ context.Context, parentID string, children ...notionapi.Block) error {
	f.appendCalls++
	if f.failAppendAt != 0 && f.appendCalls == f.failAppendAt {
		return &notion.StoreError{Op: "append children", Status: 502, Kind: notion.Transient}
	}
	f.children[parentID] = append(f.children[parentID], children...)
	return nil
}

func (f *fakeStore) UpdateBlock(_ context.Context, blockID string, req *notionapi.BlockUpdateRequest) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated[blockID] = req
	return nil
}

func (f *fakeStore) DeleteBlock(_ context.Context, blockID string) error {
	f.deleted = append(f.deleted, blockID)
	return nil
}

func (f *fakeStore) ListChildren(_ context.Context, parentID, cursor string) (notion.List[notionapi.Block], error) {
	f.listCalls++
	return page(f.children[parentID], cursor, f.pageSize)
}

func (f *fakeStore) QueryDatabase(_ context.Context, _ string, cursor string) (notion.List[notionapi.Page], error) {
	return page(f.rows, cursor, f.pageSize)
}

func page[T any](items []T, cursor string, size int) (notion.List[T], error) {
	start := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil {
			return notion.List[T]{}, err
		}
		start = n
	}
	end := min(start+size, len(items))
	list := notion.List[T]{Results: items[start:end]}
	if end < len(items) {
		list.NextCursor = strconv.Itoa(end)
		list.HasMore = true
	}
	return list, nil
}
