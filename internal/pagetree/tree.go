// Package pagetree assembles a Notion page and its nested subpages into a bounded tree.
package pagetree

import (
	"github.com/temirov/pagegen/internal/notion"
)

// Tree is a fetched page with its blocks and the trees of its child pages.
// A nil Page marks an empty branch: a page that was skipped or could not be fetched.
type Tree struct {
	Page     *notion.Page
	Blocks   []notion.Block
	Subpages []Tree
}

// Outline is the JSON view of a tree without block content.
type Outline struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	BlockCount int       `json:"blockCount"`
	Subpages   []Outline `json:"subpages"`
}

// IsEmpty reports whether the tree is an empty branch.
func (tree Tree) IsEmpty() bool {
	return tree.Page == nil
}

// SubpageCount returns the number of non-empty subpages at every level below the root.
func (tree Tree) SubpageCount() int {
	count := 0
	for _, subpage := range tree.Subpages {
		if subpage.IsEmpty() {
			continue
		}
		count += 1 + subpage.SubpageCount()
	}
	return count
}

// PageCount returns the number of non-empty pages in the tree, root included.
func (tree Tree) PageCount() int {
	if tree.IsEmpty() {
		return 0
	}
	return 1 + tree.SubpageCount()
}

// Outline returns the tree's outline, omitting empty branches.
func (tree Tree) Outline() Outline {
	if tree.IsEmpty() {
		return Outline{Subpages: []Outline{}}
	}
	outline := Outline{
		ID:         tree.Page.ID,
		Title:      ExtractTitle(tree.Page),
		BlockCount: len(tree.Blocks),
		Subpages:   []Outline{},
	}
	for _, subpage := range tree.Subpages {
		if subpage.IsEmpty() {
			continue
		}
		outline.Subpages = append(outline.Subpages, subpage.Outline())
	}
	return outline
}

// Titles lists the titles of all non-empty pages in pre-order.
func (tree Tree) Titles() []string {
	var titles []string
	tree.walk(func(node Tree, depth int) {
		titles = append(titles, ExtractTitle(node.Page))
	}, 0)
	return titles
}

// Walk visits every non-empty page in pre-order with its depth below the root.
func (tree Tree) Walk(visit func(node Tree, depth int)) {
	tree.walk(visit, 0)
}

func (tree Tree) walk(visit func(node Tree, depth int), depth int) {
	if tree.IsEmpty() {
		return
	}
	visit(tree, depth)
	for _, subpage := range tree.Subpages {
		subpage.walk(visit, depth+1)
	}
}

func childReferenceIDs(blocks []notion.Block) []string {
	var identifiers []string
	for _, block := range blocks {
		reference, isReference := block.(notion.ChildReference)
		if !isReference || reference.ID == "" {
			continue
		}
		identifiers = append(identifiers, reference.ID)
	}
	return identifiers
}
