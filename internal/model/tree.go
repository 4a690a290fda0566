package model

import "sort"

// CategoryTree is an arena of categories indexed by id. The children index
// is derived from parent ids when the tree is built; categories hold no
// back-references.
type CategoryTree struct {
	nodes    map[int64]Category
	children map[int64][]int64
	roots    []int64
}

// NewCategoryTree indexes cats. A category whose parent is missing from cats
// is treated as a root.
func NewCategoryTree(cats []Category) *CategoryTree {
	t := &CategoryTree{
		nodes:    make(map[int64]Category, len(cats)),
		children: make(map[int64][]int64),
	}
	for _, c := range cats {
		t.nodes[c.ID] = c
	}
	for _, c := range cats {
		if c.ParentID != nil && *c.ParentID != c.ID {
			if _, ok := t.nodes[*c.ParentID]; ok {
				t.children[*c.ParentID] = append(t.children[*c.ParentID], c.ID)
				continue
			}
		}
		t.roots = append(t.roots, c.ID)
	}
	sortIDs(t.roots)
	for id := range t.children {
		sortIDs(t.children[id])
	}
	return t
}

func sortIDs(ids []int64) {
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
}

// Len returns the number of categories in the tree
func (t *CategoryTree) Len() int {
	return len(t.nodes)
}

// Get returns the category with the given id
func (t *CategoryTree) Get(id int64) (Category, bool) {
	c, ok := t.nodes[id]
	return c, ok
}

// Roots returns the top-level categories ordered by id
func (t *CategoryTree) Roots() []Category {
	return t.collect(t.roots)
}

// Children returns the direct children of id ordered by id
func (t *CategoryTree) Children(id int64) []Category {
	return t.collect(t.children[id])
}

// Ancestors returns the chain from the root down to id, inclusive. A parent
// cycle stops the walk at the first repeated category.
func (t *CategoryTree) Ancestors(id int64) []Category {
	var chain []Category
	seen := make(map[int64]bool)
	cur, ok := t.nodes[id]
	for ok && !seen[cur.ID] {
		seen[cur.ID] = true
		chain = append(chain, cur)
		if cur.ParentID == nil {
			break
		}
		cur, ok = t.nodes[*cur.ParentID]
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns id and every category below it, depth first.
func (t *CategoryTree) Descendants(id int64) []Category {
	var out []Category
	seen := make(map[int64]bool)
	var walk func(int64)
	walk = func(cur int64) {
		if seen[cur] {
			return
		}
		seen[cur] = true
		if c, ok := t.nodes[cur]; ok {
			out = append(out, c)
		}
		for _, child := range t.children[cur] {
			walk(child)
		}
	}
	walk(id)
	return out
}

func (t *CategoryTree) collect(ids []int64) []Category {
	out := make([]Category, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.nodes[id])
	}
	return out
}
