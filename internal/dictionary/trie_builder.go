package dictionary

import "github.com/soltixdb/columnstore/internal/colerrors"

// BuildTrieDictionary builds a trie from strictly increasing strings
func BuildTrieDictionary(sortedValues []string) (*TrieDictionary, error) {
	if len(sortedValues) == 0 {
		return nil, colerrors.Structural("trie dictionary needs at least one value")
	}
	if err := checkSortedUnique(sortedValues); err != nil {
		return nil, err
	}
	root := buildParent(sortedValues, 0, 0)
	last := int64(len(sortedValues) - 1)
	return NewTrieDictionary(root, last, sortedValues[0], sortedValues[last])
}

// buildParent builds the node for values that all share their first depth
// bytes. firstID is the id of values[0].
func buildParent(values []string, depth int, firstID int64) *ParentNode {
	var keys []string
	var children []TrieNode

	i := 0
	if len(values[0]) == depth {
		keys = append(keys, "")
		children = append(children, NewTerminalNode(firstID))
		i = 1
	}
	for i < len(values) {
		b := values[i][depth]
		j := i + 1
		for j < len(values) && values[j][depth] == b {
			j++
		}
		key, child := buildEdge(values[i:j], depth, firstID+int64(i))
		keys = append(keys, key)
		children = append(children, child)
		i = j
	}
	return NewParentNode(keys, children)
}

// buildEdge builds the edge for a group of values sharing their byte at depth.
// The edge key is the longest prefix common to the whole group.
func buildEdge(group []string, depth int, firstID int64) (string, TrieNode) {
	if len(group) == 1 {
		return group[0][depth:], NewTerminalNode(firstID)
	}
	// sorted input: the first and last values bound the common prefix
	first, last := group[0], group[len(group)-1]
	end := depth + 1
	for end < len(first) && end < len(last) && first[end] == last[end] {
		end++
	}
	return first[depth:end], buildParent(group, end, firstID)
}
