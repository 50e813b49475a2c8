package prompt

import (
	"strings"
	"testing"

	"github.com/temirov/pagegen/internal/notion"
	"github.com/temirov/pagegen/internal/pagetree"
)

func titled(pageID string, title string) *notion.Page {
	return &notion.Page{
		ID:         pageID,
		Properties: []notion.Property{{Name: "title", Type: "title", Title: []notion.RichText{{PlainText: title}}}},
	}
}

func TestHeadingMarker(t *testing.T) {
	testCases := []struct {
		level    int
		expected string
	}{
		{level: 0, expected: "##"},
		{level: 1, expected: "###"},
		{level: 4, expected: "######"},
		{level: 10, expected: "######"},
	}
	for _, testCase := range testCases {
		if actual := HeadingMarker(testCase.level); actual != testCase.expected {
			t.Fatalf("level %d: expected %q, got %q", testCase.level, testCase.expected, actual)
		}
	}
	previous := 0
	for level := 0; level < 12; level++ {
		current := len(HeadingMarker(level))
		if current < previous || current > maxHeadingLevel {
			t.Fatalf("heading size must be non-decreasing and capped, level %d gave %d", level, current)
		}
		previous = current
	}
}

func TestFormatTreeEndToEnd(t *testing.T) {
	t.Parallel()
	tree := pagetree.Tree{
		Page:   titled("root", "Root"),
		Blocks: []notion.Block{notion.Paragraph{ID: "p", Text: "Hello"}, notion.ChildReference{ID: "x", Title: "X"}},
		Subpages: []pagetree.Tree{
			{Page: titled("x", "X")},
		},
	}
	expected := "## Root\n\nHello\n\n### X\n\n"
	if actual := FormatTrees([]pagetree.Tree{tree}); actual != expected {
		t.Fatalf("expected %q, got %q", expected, actual)
	}
}

func TestFormatTreeBlockRenditions(t *testing.T) {
	t.Parallel()
	tree := pagetree.Tree{
		Page: titled("root", "Guide"),
		Blocks: []notion.Block{
			notion.Heading{Level: 1, Text: "Intro"},
			notion.BulletedItem{Text: "first"},
			notion.NumberedItem{Text: "step"},
			notion.Todo{Checked: true, Text: "done"},
			notion.Todo{Text: "open"},
			notion.Toggle{Text: "details"},
			notion.Code{Language: "go", Text: "fmt.Println()"},
			notion.Image{ExternalURL: "https://example.com/a.png"},
			notion.Image{Caption: "Diagram", FileURL: "https://files/b.png", ExternalURL: "https://example.com/ignored.png"},
			notion.Image{},
			notion.Paragraph{Text: ""},
			notion.Unknown{Kind: "divider"},
			notion.ChildReference{ID: "skipped", Title: "Skipped"},
			nil,
		},
	}
	expected := strings.Join([]string{
		"## Guide\n\n",
		"# Intro\n\n",
		"• first\n",
		"1. step\n",
		"✅ done\n",
		"⬜ open\n",
		"➤ details\n",
		"```go\nfmt.Println()\n```\n\n",
		"![Image](https://example.com/a.png)\n\n",
		"![Diagram](https://files/b.png)\n\n",
		"![Image](image_url)\n\n",
	}, "")
	if actual := FormatTree(tree, "Guide", 0); actual != expected {
		t.Fatalf("expected:\n%s\ngot:\n%s", expected, actual)
	}
}

func TestFormatTreeCapsNestedHeadings(t *testing.T) {
	t.Parallel()
	tree := pagetree.Tree{
		Page:   titled("deep", "Deep"),
		Blocks: []notion.Block{notion.Heading{Level: 3, Text: "Capped"}},
	}
	expected := "###### Deep\n\n###### Capped\n\n"
	if actual := FormatTree(tree, "Deep", 5); actual != expected {
		t.Fatalf("expected %q, got %q", expected, actual)
	}
}

func TestFormatTreesSkipsEmptyBranchesAndKeepsOrder(t *testing.T) {
	t.Parallel()
	first := pagetree.Tree{Page: titled("a", "Alpha"), Subpages: []pagetree.Tree{{}, {Page: titled("c", "Child")}}}
	second := pagetree.Tree{Page: titled("b", "Beta")}
	expected := "## Alpha\n\n### Child\n\n## Beta\n\n"
	if actual := FormatTrees([]pagetree.Tree{first, {}, second}); actual != expected {
		t.Fatalf("expected %q, got %q", expected, actual)
	}
}
