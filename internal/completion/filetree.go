package completion

import (
	"path"
	"sort"
	"strings"
)

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
)

// FileNode is one entry of the directory tree built from extracted paths.
type FileNode struct {
	Name      string      `json:"name"`
	Path      string      `json:"path"`
	Type      string      `json:"type"`
	Extension string      `json:"extension,omitempty"`
	Children  []*FileNode `json:"children,omitempty"`
}

// BuildFileTree arranges slash-separated paths into a tree. Each level lists directories before
// files, both sorted by name.
func BuildFileTree(files map[string]string) []*FileNode {
	root := &FileNode{Type: NodeTypeDirectory}
	directories := map[string]*FileNode{"": root}
	for _, filePath := range sortedPaths(files) {
		segments := splitPath(filePath)
		if len(segments) == 0 {
			continue
		}
		parent := root
		for segmentIndex := 0; segmentIndex < len(segments)-1; segmentIndex++ {
			directoryPath := strings.Join(segments[:segmentIndex+1], "/")
			directory, exists := directories[directoryPath]
			if !exists {
				directory = &FileNode{Name: segments[segmentIndex], Path: directoryPath, Type: NodeTypeDirectory}
				directories[directoryPath] = directory
				parent.Children = append(parent.Children, directory)
			}
			parent = directory
		}
		fileName := segments[len(segments)-1]
		parent.Children = append(parent.Children, &FileNode{
			Name:      fileName,
			Path:      strings.Join(segments, "/"),
			Type:      NodeTypeFile,
			Extension: strings.TrimPrefix(path.Ext(fileName), "."),
		})
	}
	sortNodes(root.Children)
	return root.Children
}

func sortNodes(nodes []*FileNode) {
	sort.SliceStable(nodes, func(left int, right int) bool {
		if nodes[left].Type != nodes[right].Type {
			return nodes[left].Type == NodeTypeDirectory
		}
		return nodes[left].Name < nodes[right].Name
	})
	for _, node := range nodes {
		sortNodes(node.Children)
	}
}

func splitPath(filePath string) []string {
	var segments []string
	for _, segment := range strings.Split(strings.ReplaceAll(filePath, "\\", "/"), "/") {
		if segment == "" || segment == "." {
			continue
		}
		segments = append(segments, segment)
	}
	return segments
}

func sortedPaths(files map[string]string) []string {
	paths := make([]string, 0, len(files))
	for filePath := range files {
		paths = append(paths, filePath)
	}
	sort.Strings(paths)
	return paths
}
