package gbx

// TraitKind tags the value carried by a Trait.
type TraitKind byte

const (
	TraitText    TraitKind = 1
	TraitInteger TraitKind = 2
	TraitStruct  TraitKind = 3
)

// Trait is a typed script metadata value: text, a signed 32-bit integer, or
// an ordered struct of named child traits.
type Trait struct {
	Kind    TraitKind
	Text    string
	Integer int32
	Fields  []Field
}

// Field is one named child of a struct trait.
type Field struct {
	Name  string
	Trait Trait
}

// Text builds a text trait.
func Text(s string) Trait {
	return Trait{Kind: TraitText, Text: s}
}

// Integer builds an integer trait.
func Integer(v int32) Trait {
	return Trait{Kind: TraitInteger, Integer: v}
}

// Struct builds a struct trait with the given fields, in order.
func Struct(fields ...Field) Trait {
	return Trait{Kind: TraitStruct, Fields: fields}
}

// Field returns the named child of a struct trait.
func (t Trait) Field(name string) (Trait, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f.Trait, true
		}
	}
	return Trait{}, false
}

// MetadataEntry is one key in the script metadata mapping.
type MetadataEntry struct {
	Key   string
	Trait Trait
}

// MetadataStore is the container's script metadata side channel: an ordered
// key to trait mapping plus the number of backing chunks allocated for it.
type MetadataStore struct {
	Chunks  int
	Entries []MetadataEntry
}

// Lookup returns the trait declared under key.
func (m *MetadataStore) Lookup(key string) (Trait, bool) {
	if m == nil {
		return Trait{}, false
	}
	for _, e := range m.Entries {
		if e.Key == key {
			return e.Trait, true
		}
	}
	return Trait{}, false
}

// Remove deletes the entry under key, reporting whether one existed.
func (m *MetadataStore) Remove(key string) bool {
	if m == nil {
		return false
	}
	for i, e := range m.Entries {
		if e.Key == key {
			m.Entries = append(m.Entries[:i], m.Entries[i+1:]...)
			return true
		}
	}
	return false
}

// Declare binds trait under key, replacing any prior entry. Replace, not
// merge: the old trait is dropped entirely.
func (m *MetadataStore) Declare(key string, trait Trait) {
	m.Remove(key)
	m.Entries = append(m.Entries, MetadataEntry{Key: key, Trait: trait})
}

// Len returns the number of declared entries.
func (m *MetadataStore) Len() int {
	if m == nil {
		return 0
	}
	return len(m.Entries)
}
