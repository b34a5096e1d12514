package knowledge

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/xaenox/memo-bridge/internal/notion"
)

// Store is the subset of the Notion API used here. *notion.Client
// implements it.
type Store interface {
	CreatePage(ctx context.Context, req *notionapi.PageCreateRequest) (*notionapi.Page, error)
	RetrievePage(ctx context.Context, pageID string) (*notionapi.Page, error)
	AppendChildren(ctx context.Context, parentID string, children ...notionapi.Block) error
	UpdateBlock(ctx context.Context, blockID string, req *notionapi.BlockUpdateRequest) error
	DeleteBlock(ctx context.Context, blockID string) error
	ListChildren(ctx context.Context, parentID, cursor string) (notion.List[notionapi.Block], error)
	QueryDatabase(ctx context.Context, databaseID, cursor string) (notion.List[notionapi.Page], error)
}

var _ Store = (*notion.Client)(nil)

// Property names of the exchange database.
const (
	PropName     = "Name"
	PropPrompt   = "Prompt"
	PropResponse = "Response"
	PropCategory = "Category"
	PropTags     = "Tags"
	PropDate     = "Date"
)
