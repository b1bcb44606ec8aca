package dictionary

import (
	"sort"
	"strings"

	"github.com/soltixdb/columnstore/internal/colerrors"
)

// TrieNode is a node of a radix trie. Every node covers a contiguous id range.
type TrieNode interface {
	MinID() int64
	MaxID() int64
}

// ParentNode holds sorted edge keys and their children. The empty key, if
// present, comes first and leads to the terminal of the prefix itself.
type ParentNode struct {
	keys     []string
	children []TrieNode
	minID    int64
	maxID    int64
}

// NewParentNode creates a parent whose id range is derived from its children
func NewParentNode(keys []string, children []TrieNode) *ParentNode {
	p := &ParentNode{keys: keys, children: children}
	if len(children) > 0 {
		p.minID = children[0].MinID()
		p.maxID = children[len(children)-1].MaxID()
	}
	return p
}

func (p *ParentNode) MinID() int64 { return p.minID }
func (p *ParentNode) MaxID() int64 { return p.maxID }

// Keys returns the edge keys. Callers must not modify the result.
func (p *ParentNode) Keys() []string { return p.keys }

// Children returns the child nodes. Callers must not modify the result.
func (p *ParentNode) Children() []TrieNode { return p.children }

// TerminalNode marks the end of exactly one stored value
type TerminalNode struct {
	id int64
}

// NewTerminalNode creates a terminal for id
func NewTerminalNode(id int64) *TerminalNode {
	return &TerminalNode{id: id}
}

func (t *TerminalNode) MinID() int64 { return t.id }
func (t *TerminalNode) MaxID() int64 { return t.id }

// ID returns the id of the value ending here
func (t *TerminalNode) ID() int64 { return t.id }

// linearScanWindow is the child count below which the id search switches
// from bisection to a scan.
const linearScanWindow = 5

// childForID returns the index of the child covering id, or -1
func (p *ParentNode) childForID(id int64) int {
	lo, hi := 0, len(p.children)
	for hi-lo > linearScanWindow {
		mid := int(uint(lo+hi) >> 1)
		switch c := p.children[mid]; {
		case c.MaxID() < id:
			lo = mid + 1
		case c.MinID() > id:
			hi = mid
		default:
			return mid
		}
	}
	for i := lo; i < hi; i++ {
		c := p.children[i]
		if c.MinID() <= id && id <= c.MaxID() {
			return i
		}
	}
	return -1
}

// edgeForByte returns the index of the first non-empty key whose first byte
// is >= b
func (p *ParentNode) edgeForByte(b byte) int {
	return sort.Search(len(p.keys), func(i int) bool {
		return p.keys[i] != "" && p.keys[i][0] >= b
	})
}

// TrieDictionary stores sorted unique strings in a radix trie
type TrieDictionary struct {
	derived[string]
	root       *ParentNode
	lastID     int64
	firstValue string
	lastValue  string
	size       int64
}

// NewTrieDictionary validates a trie and wraps it as a dictionary. lastID,
// firstValue and lastValue must agree with the trie contents.
func NewTrieDictionary(root TrieNode, lastID int64, firstValue, lastValue string) (*TrieDictionary, error) {
	p, ok := root.(*ParentNode)
	if !ok || p == nil {
		return nil, colerrors.Structural("trie root must be a parent node, got %T", root)
	}
	v := &trieValidator{}
	next, err := v.check(p, 0)
	if err != nil {
		return nil, err
	}
	if next-1 != lastID {
		return nil, colerrors.Structural("trie holds ids up to %d, expected last id %d", next-1, lastID)
	}
	d := &TrieDictionary{root: p, lastID: lastID, firstValue: firstValue, lastValue: lastValue, size: v.size + 64}
	d.derived = derived[string]{self: d}
	first, err := d.DecompressValue(0)
	if err != nil {
		return nil, err
	}
	last, err := d.DecompressValue(lastID)
	if err != nil {
		return nil, err
	}
	if first != firstValue || last != lastValue {
		return nil, colerrors.Structural("trie bounds %q..%q do not match stored %q..%q", first, last, firstValue, lastValue)
	}
	return d, nil
}

type trieValidator struct {
	size int64
}

// check verifies the subtree under n assigns ids densely from next in key
// order, returning the id after the last one it holds.
func (v *trieValidator) check(n TrieNode, next int64) (int64, error) {
	switch node := n.(type) {
	case *TerminalNode:
		if node == nil {
			return 0, colerrors.Structural("nil terminal node")
		}
		if node.id != next {
			return 0, colerrors.Structural("terminal id %d out of order, expected %d", node.id, next)
		}
		v.size += 16
		return next + 1, nil
	case *ParentNode:
		if node == nil {
			return 0, colerrors.Structural("nil parent node")
		}
		if len(node.keys) == 0 || len(node.keys) != len(node.children) {
			return 0, colerrors.Structural("parent node has %d keys and %d children", len(node.keys), len(node.children))
		}
		if node.minID != next {
			return 0, colerrors.Structural("parent min id %d, expected %d", node.minID, next)
		}
		for i, key := range node.keys {
			if key == "" {
				if i != 0 {
					return 0, colerrors.Structural("empty key at position %d", i)
				}
				if _, ok := node.children[0].(*TerminalNode); !ok {
					return 0, colerrors.Structural("empty key must lead to a terminal")
				}
			} else if i > 0 && node.keys[i-1] != "" && node.keys[i-1][0] >= key[0] {
				return 0, colerrors.Structural("sibling keys %q and %q overlap or are out of order", node.keys[i-1], key)
			}
			var err error
			if next, err = v.check(node.children[i], next); err != nil {
				return 0, err
			}
			v.size += int64(len(key)) + 32
		}
		if node.maxID != next-1 {
			return 0, colerrors.Structural("parent max id %d, expected %d", node.maxID, next-1)
		}
		v.size += 48
		return next, nil
	default:
		return 0, colerrors.Structural("unknown trie node %T", n)
	}
}

// Root returns the root node
func (d *TrieDictionary) Root() *ParentNode { return d.root }

// FirstValue returns the smallest stored value
func (d *TrieDictionary) FirstValue() string { return d.firstValue }

// LastValue returns the largest stored value
func (d *TrieDictionary) LastValue() string { return d.lastValue }

func (d *TrieDictionary) Kind() Kind { return KindTrie }

func (d *TrieDictionary) ColumnType() ColumnType { return ColumnTypeString }

func (d *TrieDictionary) MaxID() (int64, bool) { return d.lastID, true }

func (d *TrieDictionary) ApproximateSizeInBytes() int64 { return d.size }

func (d *TrieDictionary) DecompressValue(id int64) (string, error) {
	if id < 0 || id > d.lastID {
		return "", colerrors.NotFound("id %d not in trie dictionary of %d values", id, d.lastID+1)
	}
	var sb strings.Builder
	var node TrieNode = d.root
	for {
		switch n := node.(type) {
		case *TerminalNode:
			if n.id != id {
				return "", colerrors.NotFound("id %d not in trie dictionary", id)
			}
			return sb.String(), nil
		case *ParentNode:
			i := n.childForID(id)
			if i < 0 {
				return "", colerrors.NotFound("id %d not in trie dictionary", id)
			}
			sb.WriteString(n.keys[i])
			node = n.children[i]
		}
	}
}

// lookup returns the id of value if stored, otherwise the id of the smallest
// stored value greater than it (lastID+1 when there is none).
func (d *TrieDictionary) lookup(value string) (int64, bool) {
	var node TrieNode = d.root
	rem := value
	for {
		switch n := node.(type) {
		case *TerminalNode:
			if rem == "" {
				return n.id, true
			}
			// value extends this terminal's value, so it sorts right after it
			return n.id + 1, false
		case *ParentNode:
			if rem == "" {
				if n.keys[0] == "" {
					return n.children[0].MinID(), true
				}
				return n.minID, false
			}
			i := n.edgeForByte(rem[0])
			if i == len(n.keys) {
				return n.maxID + 1, false
			}
			key, child := n.keys[i], n.children[i]
			if key[0] != rem[0] {
				return child.MinID(), false
			}
			if strings.HasPrefix(rem, key) {
				rem = rem[len(key):]
				node = child
				continue
			}
			if rem < key {
				return child.MinID(), false
			}
			return child.MaxID() + 1, false
		}
	}
}

func (d *TrieDictionary) FindIDOfValue(value string) (int64, error) {
	id, exact := d.lookup(value)
	if !exact {
		return EncodeNeighbor(id), colerrors.NotFound("value %q not in trie dictionary", value)
	}
	return id, nil
}

func (d *TrieDictionary) FindIDsOfValues(sortedValues []string) []int64 {
	out := make([]int64, len(sortedValues))
	for i, v := range sortedValues {
		id, exact := d.lookup(v)
		if !exact {
			id = -1
		}
		out[i] = id
	}
	return out
}

func (d *TrieDictionary) FindGtEqIDOfValue(value string) (int64, bool) {
	id, exact := d.lookup(value)
	switch {
	case exact:
		return id, true
	case id > d.lastID:
		return 0, false
	default:
		return EncodeNeighbor(id), true
	}
}

func (d *TrieDictionary) FindLtEqIDOfValue(value string) (int64, bool) {
	id, exact := d.lookup(value)
	switch {
	case exact:
		return id, true
	case id == 0:
		return 0, false
	default:
		return EncodeNeighbor(id - 1), true
	}
}

// walkValues enumerates values depth first, which is id order
func (d *TrieDictionary) walkValues(fn func(id int64, value string) bool) {
	buf := make([]byte, 0, 64)
	var walk func(n TrieNode) bool
	walk = func(n TrieNode) bool {
		switch node := n.(type) {
		case *TerminalNode:
			return fn(node.id, string(buf))
		case *ParentNode:
			for i, key := range node.keys {
				mark := len(buf)
				buf = append(buf, key...)
				ok := walk(node.children[i])
				buf = buf[:mark]
				if !ok {
					return false
				}
			}
		}
		return true
	}
	walk(d.root)
}
