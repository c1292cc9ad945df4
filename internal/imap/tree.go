package imap

import "github.com/tilda-center/backend/internal/model"

// TreeBuilder assembles decoded LIST entries into a folder hierarchy.
// Children keep the order folders were first seen in the server's listing;
// lookup at each level goes through a name index instead of a linear scan.
type TreeBuilder struct {
	root treeNode
}

type treeNode struct {
	box    *model.Mailbox
	byName map[string]*treeNode
}

// NewTreeBuilder returns an empty builder.
func NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{root: treeNode{
		box:    &model.Mailbox{Children: []*model.Mailbox{}},
		byName: map[string]*treeNode{},
	}}
}

// Insert adds one decoded entry at the position its path dictates.
//
// A single-segment path becomes (or updates) a node at the current level.
// A multi-segment path descends through existing parents; servers list
// hierarchies parent-first, so a missing parent means an orphaned entry,
// which is dropped. Re-inserting an existing path merges flags into the
// one node for that path, so the tree has exactly one node per unique
// prefix.
func (b *TreeBuilder) Insert(entry ListEntry) {
	node := &b.root
	path := entry.Path()
	for len(path) > 1 {
		child, ok := node.byName[path[0]]
		if !ok {
			return
		}
		node = child
		path = path[1:]
	}

	name := path[0]
	if child, ok := node.byName[name]; ok {
		child.box.Flags = mergeFlags(child.box.Flags, entry.Flags)
		child.box.Separator = entry.Separator
		return
	}

	box := &model.Mailbox{
		Name:      name,
		Flags:     entry.Flags,
		Separator: entry.Separator,
		Children:  []*model.Mailbox{},
	}
	node.box.Children = append(node.box.Children, box)
	node.byName[name] = &treeNode{box: box, byName: map[string]*treeNode{}}
}

// Roots returns the top-level mailboxes in first-seen order.
func (b *TreeBuilder) Roots() []*model.Mailbox {
	return b.root.box.Children
}

func mergeFlags(have, add []string) []string {
	seen := make(map[string]bool, len(have))
	for _, f := range have {
		seen[f] = true
	}
	for _, f := range add {
		if !seen[f] {
			seen[f] = true
			have = append(have, f)
		}
	}
	return have
}
