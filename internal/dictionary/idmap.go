package dictionary

import "sort"

// IDMap is a sorted map from ids of one dictionary to encoded ids of another
type IDMap struct {
	ids    []int64
	others []int64
}

// Len returns the number of entries
func (m *IDMap) Len() int {
	return len(m.ids)
}

// Get returns the encoded other id stored for id
func (m *IDMap) Get(id int64) (int64, bool) {
	i := sort.Search(len(m.ids), func(i int) bool { return m.ids[i] >= id })
	if i < len(m.ids) && m.ids[i] == id {
		return m.others[i], true
	}
	return 0, false
}

// IDs returns the keys in ascending order
func (m *IDMap) IDs() []int64 {
	return append([]int64(nil), m.ids...)
}

// Range calls fn for each entry in ascending id order until fn returns false
func (m *IDMap) Range(fn func(id, other int64) bool) {
	for i, id := range m.ids {
		if !fn(id, m.others[i]) {
			return
		}
	}
}

// Map copies the entries into a Go map
func (m *IDMap) Map() map[int64]int64 {
	out := make(map[int64]int64, len(m.ids))
	for i, id := range m.ids {
		out[id] = m.others[i]
	}
	return out
}

func (m *IDMap) put(id, other int64) {
	m.ids = append(m.ids, id)
	m.others = append(m.others, other)
}

// sortIfNeeded restores key order for producers that do not emit ascending ids
func (m *IDMap) sortIfNeeded() {
	if sort.SliceIsSorted(m.ids, func(i, j int) bool { return m.ids[i] < m.ids[j] }) {
		return
	}
	idx := make([]int, len(m.ids))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return m.ids[idx[a]] < m.ids[idx[b]] })
	ids := make([]int64, len(idx))
	others := make([]int64, len(idx))
	for i, j := range idx {
		ids[i], others[i] = m.ids[j], m.others[j]
	}
	m.ids, m.others = ids, others
}
