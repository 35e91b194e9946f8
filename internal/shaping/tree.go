package shaping

import "inkwell/internal/models"

// MaxDepth is the deepest comment level that is rendered and replied to.
const MaxDepth = models.MaxCommentDepth

// BuildTree groups a flat comment list into threads. Top-level comments come
// back in input order with Depth 1; each node's Replies keep input order.
// Nodes at MaxDepth get no Replies even when deeper rows exist. A comment
// whose parent is not in the list is treated as top level.
//
// The input comments are modified in place.
func BuildTree(flat []*models.Comment) []*models.Comment {
	present := make(map[uint]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}

	children := make(map[uint][]*models.Comment)
	var roots []*models.Comment
	for _, c := range flat {
		c.Replies = nil
		c.Depth = 0
		if c.ParentCommentID == nil || !present[*c.ParentCommentID] || *c.ParentCommentID == c.ID {
			roots = append(roots, c)
			continue
		}
		children[*c.ParentCommentID] = append(children[*c.ParentCommentID], c)
	}

	placed := make(map[uint]bool, len(flat))
	var attach func(node *models.Comment, depth int)
	attach = func(node *models.Comment, depth int) {
		placed[node.ID] = true
		node.Depth = depth
		if depth >= MaxDepth {
			return
		}
		for _, child := range children[node.ID] {
			if placed[child.ID] {
				continue
			}
			node.Replies = append(node.Replies, child)
			attach(child, depth+1)
		}
	}

	out := make([]*models.Comment, 0, len(roots))
	for _, r := range roots {
		if placed[r.ID] {
			continue
		}
		out = append(out, r)
		attach(r, 1)
	}
	// Rows below MaxDepth stay hidden. Rows whose ancestry loops without
	// reaching a placed node come from a parent cycle and surface at top level.
	byID := make(map[uint]*models.Comment, len(flat))
	for _, c := range flat {
		byID[c.ID] = c
	}
	for _, c := range flat {
		if placed[c.ID] || !inCycle(c, byID, placed) {
			continue
		}
		out = append(out, c)
		attach(c, 1)
	}
	return out
}

func inCycle(c *models.Comment, byID map[uint]*models.Comment, placed map[uint]bool) bool {
	seen := map[uint]bool{c.ID: true}
	for cur := c; cur.ParentCommentID != nil; {
		parent, ok := byID[*cur.ParentCommentID]
		if !ok || placed[parent.ID] {
			return false
		}
		if seen[parent.ID] {
			return true
		}
		seen[parent.ID] = true
		cur = parent
	}
	return false
}

// CanReply reports whether a reply may be added under c.
func CanReply(c *models.Comment) bool {
	return c != nil && c.Depth < MaxDepth
}

// Find returns the node with id anywhere in tree, or nil.
func Find(tree []*models.Comment, id uint) *models.Comment {
	for _, c := range tree {
		if c.ID == id {
			return c
		}
		if found := Find(c.Replies, id); found != nil {
			return found
		}
	}
	return nil
}

// Count returns the number of nodes in tree.
func Count(tree []*models.Comment) int {
	n := 0
	for _, c := range tree {
		n += 1 + Count(c.Replies)
	}
	return n
}
