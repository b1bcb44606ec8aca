package dictionary

// trieCursor is a position inside a trie: a node plus the part of the edge
// leading to it that has not been matched yet.
type trieCursor struct {
	node    TrieNode
	pending string
}

// continuation is one way to extend the string matched so far. Terminal
// continuations end the string at this position; edges extend it by key.
type continuation struct {
	terminal bool
	key      string
	target   trieCursor
	minID    int64
	maxID    int64
}

// continuations lists the ways out of c in value order: the terminal first,
// then edges by first byte.
func (c trieCursor) continuations() []continuation {
	if c.pending != "" {
		return []continuation{{
			key:    c.pending,
			target: trieCursor{node: c.node},
			minID:  c.node.MinID(),
			maxID:  c.node.MaxID(),
		}}
	}
	switch n := c.node.(type) {
	case *TerminalNode:
		return []continuation{{terminal: true, minID: n.id, maxID: n.id}}
	case *ParentNode:
		out := make([]continuation, len(n.keys))
		for i, key := range n.keys {
			child := n.children[i]
			if key == "" {
				out[i] = continuation{terminal: true, minID: child.MinID(), maxID: child.MaxID()}
				continue
			}
			out[i] = continuation{key: key, target: trieCursor{node: child}, minID: child.MinID(), maxID: child.MaxID()}
		}
		return out
	}
	return nil
}

// before reports whether every value under a sorts below every value under b
func (a continuation) before(b continuation) bool {
	if a.terminal {
		return !b.terminal
	}
	return !b.terminal && a.key[0] < b.key[0]
}

// compareTries walks both tries in lock step, reporting for every id of ours
// either its exact match in other or the smallest greater id in other.
func compareTries(ours, other *TrieDictionary, sink *outcomeSink) {
	walkTries(trieCursor{node: ours.root}, trieCursor{node: other.root}, other.lastID+1, sink)
}

// walkTries compares the subtree at a with the subtree at b. bound is the
// smallest other id greater than everything under b.
func walkTries(a, b trieCursor, bound int64, sink *outcomeSink) {
	theirs := b.continuations()
	j := 0
	for _, x := range a.continuations() {
		for j < len(theirs) && theirs[j].before(x) {
			j++
		}
		if j == len(theirs) {
			sink.greater(x.minID, x.maxID, bound)
			continue
		}
		y := theirs[j]
		next := bound
		if j+1 < len(theirs) {
			next = theirs[j+1].minID
		}

		switch {
		case x.terminal && y.terminal:
			sink.equal(x.minID, y.minID)
		case x.terminal, x.key[0] != y.key[0]:
			// x ends here or branches below y
			sink.greater(x.minID, x.maxID, y.minID)
		default:
			l := commonPrefixLen(x.key, y.key)
			switch {
			case l == len(x.key) && l == len(y.key):
				walkTries(x.target, y.target, next, sink)
			case l == len(x.key):
				walkTries(x.target, trieCursor{node: y.target.node, pending: y.key[l:]}, next, sink)
			case l == len(y.key):
				walkTries(trieCursor{node: x.target.node, pending: x.key[l:]}, y.target, next, sink)
			case x.key[l] < y.key[l]:
				sink.greater(x.minID, x.maxID, y.minID)
			default:
				sink.greater(x.minID, x.maxID, next)
			}
		}
	}
}

func commonPrefixLen(a, b string) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}

func (d *TrieDictionary) FindEqualIDs(other Dictionary[string]) *IDMap {
	return d.compare(other, relEqual)
}

func (d *TrieDictionary) FindGtEqIDs(other Dictionary[string]) *IDMap {
	return d.compare(other, relGtEq)
}

func (d *TrieDictionary) FindLtEqIDs(other Dictionary[string]) *IDMap {
	return d.compare(other, relLtEq)
}

func (d *TrieDictionary) compare(other Dictionary[string], rel relation) *IDMap {
	o, ok := other.(*TrieDictionary)
	if !ok {
		return crossCompare[string](d, other, rel)
	}
	sink := newOutcomeSink(rel, o.lastID, d.lastID+1)
	compareTries(d, o, sink)
	return sink.finish()
}
