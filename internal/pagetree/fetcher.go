package pagetree

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/temirov/pagegen/internal/notion"
)

const (
	// DefaultTreeDepth is the depth used when inspecting a tree.
	DefaultTreeDepth = 2
	// DefaultGenerateDepth is the depth used when building a generation prompt.
	DefaultGenerateDepth = 3

	logFieldPageID = "page_id"
	logFieldDepth  = "depth"
)

var (
	// ErrMissingRootID indicates that a fetch was requested without a page ID.
	ErrMissingRootID = errors.New("root page id is required")
	// ErrNoPagesFetched indicates that every requested root page failed to load.
	ErrNoPagesFetched = errors.New("no pages could be fetched")
)

// ContentSource retrieves page metadata and block listings.
type ContentSource interface {
	RetrievePage(ctx context.Context, pageID string) (notion.Page, error)
	ListBlocks(ctx context.Context, blockID string, pageSize int) ([]notion.Block, error)
}

// FetchObserver is notified once per attempted page with the outcome of the attempt.
type FetchObserver func(pageID string, fetchErr error)

// Fetcher walks a page tree depth-first, fetching sibling subpages concurrently.
type Fetcher struct {
	source      ContentSource
	logger      *zap.Logger
	pageSize    int
	concurrency int
	observer    FetchObserver
}

// NewFetcher creates a Fetcher reading from source. A nil logger discards log output.
func NewFetcher(source ContentSource, logger *zap.Logger) Fetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Fetcher{source: source, logger: logger, pageSize: notion.MaxPageSize}
}

// WithPageSize sets the number of blocks requested per page.
func (fetcher Fetcher) WithPageSize(pageSize int) Fetcher {
	if pageSize <= 0 {
		return fetcher
	}
	fetcher.pageSize = pageSize
	return fetcher
}

// WithConcurrency limits the number of sibling subpages fetched at once. Zero means unlimited.
func (fetcher Fetcher) WithConcurrency(limit int) Fetcher {
	if limit < 0 {
		return fetcher
	}
	fetcher.concurrency = limit
	return fetcher
}

func (fetcher Fetcher) WithObserver(observer FetchObserver) Fetcher {
	fetcher.observer = observer
	return fetcher
}

// Fetch loads rootID and its subpages up to maxDepth levels below it.
// A maxDepth of zero loads the root and its blocks only; a negative maxDepth yields an empty tree.
// Failures below the root produce empty branches; a failure on the root itself is returned.
func (fetcher Fetcher) Fetch(ctx context.Context, rootID string, maxDepth int) (Tree, error) {
	trimmedRootID := strings.TrimSpace(rootID)
	if trimmedRootID == "" {
		return Tree{}, ErrMissingRootID
	}
	if maxDepth < 0 {
		return Tree{}, nil
	}
	page, blocks, fetchErr := fetcher.fetchNode(ctx, trimmedRootID)
	if fetchErr != nil {
		fetcher.logger.Error("failed to fetch root page", zap.String(logFieldPageID, trimmedRootID), zap.Error(fetchErr))
		return Tree{}, fmt.Errorf("fetch root page %s: %w", trimmedRootID, fetchErr)
	}
	return fetcher.expand(ctx, page, blocks, maxDepth, VisitedSet{}.With(trimmedRootID)), nil
}

// FetchAll fetches each root independently, in order, each with its own visited set.
// Failing roots are skipped; ErrNoPagesFetched is returned when none succeeds.
func (fetcher Fetcher) FetchAll(ctx context.Context, rootIDs []string, maxDepth int) ([]Tree, error) {
	var trees []Tree
	var failures []error
	for _, rootID := range rootIDs {
		tree, fetchErr := fetcher.Fetch(ctx, rootID, maxDepth)
		if fetchErr != nil {
			failures = append(failures, fetchErr)
			continue
		}
		trees = append(trees, tree)
	}
	if len(trees) == 0 {
		if len(failures) == 0 {
			return nil, ErrNoPagesFetched
		}
		return nil, fmt.Errorf("%w: %w", ErrNoPagesFetched, errors.Join(failures...))
	}
	return trees, nil
}

func (fetcher Fetcher) fetchBranch(ctx context.Context, pageID string, depth int, visited VisitedSet) Tree {
	if depth < 0 || visited.Contains(pageID) {
		return Tree{}
	}
	branchVisited := visited.With(pageID)
	page, blocks, fetchErr := fetcher.fetchNode(ctx, pageID)
	if fetchErr != nil {
		fetcher.logger.Warn("failed to fetch subpage", zap.String(logFieldPageID, pageID), zap.Int(logFieldDepth, depth), zap.Error(fetchErr))
		return Tree{Subpages: []Tree{}}
	}
	return fetcher.expand(ctx, page, blocks, depth, branchVisited)
}

// expand fetches every child reference of a loaded page concurrently. Results keep block order.
func (fetcher Fetcher) expand(ctx context.Context, page notion.Page, blocks []notion.Block, depth int, visited VisitedSet) Tree {
	tree := Tree{Page: &page, Blocks: blocks, Subpages: []Tree{}}
	if depth <= 0 {
		return tree
	}
	candidateIDs := childReferenceIDs(blocks)
	if len(candidateIDs) == 0 {
		return tree
	}
	subpages := make([]Tree, len(candidateIDs))
	var group errgroup.Group
	if fetcher.concurrency > 0 {
		group.SetLimit(fetcher.concurrency)
	}
	for candidateIndex, candidateID := range candidateIDs {
		group.Go(func() error {
			subpages[candidateIndex] = fetcher.fetchBranch(ctx, candidateID, depth-1, visited)
			return nil
		})
	}
	_ = group.Wait()
	tree.Subpages = subpages
	return tree
}

func (fetcher Fetcher) fetchNode(ctx context.Context, pageID string) (notion.Page, []notion.Block, error) {
	page, pageErr := fetcher.source.RetrievePage(ctx, pageID)
	if pageErr != nil {
		fetcher.observe(pageID, pageErr)
		return notion.Page{}, nil, pageErr
	}
	blocks, blocksErr := fetcher.source.ListBlocks(ctx, pageID, fetcher.pageSize)
	fetcher.observe(pageID, blocksErr)
	if blocksErr != nil {
		return notion.Page{}, nil, blocksErr
	}
	return page, blocks, nil
}

func (fetcher Fetcher) observe(pageID string, fetchErr error) {
	if fetcher.observer != nil {
		fetcher.observer(pageID, fetchErr)
	}
}
