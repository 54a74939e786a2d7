package repo

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

var treeIgnoreDirs = map[string]bool{
	".git": true, "node_modules": true, ".idea": true, ".venv": true,
	"__pycache__": true, "dist": true, "build": true,
}

// TreeNode is one entry of the repository file tree.
type TreeNode struct {
	Type     string      `json:"type"` // "dir" or "file"
	Name     string      `json:"name"`
	Path     string      `json:"path,omitempty"` // repo-relative, files only
	Children []*TreeNode `json:"children,omitempty"`
}

// FileTree lists the repository contents as a nested tree: directories
// first, each level sorted by name, ignored directories pruned.
func FileTree(root string) (*TreeNode, error) {
	children, err := walkTree(root, root)
	if err != nil {
		return nil, err
	}
	return &TreeNode{
		Type:     "dir",
		Name:     filepath.Base(root),
		Children: children,
	}, nil
}

func walkTree(root, dir string) ([]*TreeNode, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})

	var nodes []*TreeNode
	for _, e := range entries {
		if treeIgnoreDirs[e.Name()] {
			continue
		}
		full := filepath.Join(dir, e.Name())
		if e.IsDir() {
			children, err := walkTree(root, full)
			if err != nil {
				return nil, err
			}
			nodes = append(nodes, &TreeNode{
				Type:     "dir",
				Name:     e.Name(),
				Children: children,
			})
			continue
		}
		rel, err := filepath.Rel(root, full)
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, &TreeNode{
			Type: "file",
			Name: e.Name(),
			Path: filepath.ToSlash(rel),
		})
	}
	return nodes, nil
}
