package core

import "encoding/json"

// Store is the entire persisted state for one identity: month key to
// month record. Keys not matching the YYYY-MM pattern can appear in
// stores written by other clients; they survive round-trips untouched
// and are skipped by aggregation.
type Store map[string]*MonthRecord

// Month is the read-only accessor: it returns a copy of the record for
// key, or an empty record if the key is absent. It never inserts, so
// reads cannot grow the persisted state.
func (s Store) Month(key string) MonthRecord {
	if rec, ok := s[key]; ok && rec != nil {
		return *rec
	}
	return *NewMonthRecord()
}

// EnsureMonth is the write accessor: it returns a mutable handle to the
// record for key, creating an empty one first if the key is absent.
func (s Store) EnsureMonth(key string) *MonthRecord {
	if rec, ok := s[key]; ok && rec != nil {
		return rec
	}
	rec := NewMonthRecord()
	s[key] = rec
	return rec
}

// Clone returns a deep copy of the store.
func (s Store) Clone() Store {
	out := make(Store, len(s))
	for key, rec := range s {
		if rec == nil {
			out[key] = NewMonthRecord()
			continue
		}
		c := rec.Clone()
		out[key] = &c
	}
	return out
}

// IsEmpty reports whether the store has no records at all.
func (s Store) IsEmpty() bool {
	return len(s) == 0
}

// EncodeStore serializes a store to its wire form.
func EncodeStore(s Store) ([]byte, error) {
	if s == nil {
		s = Store{}
	}
	return json.Marshal(s)
}

// DecodeStore parses a serialized store. Records with missing fields come
// back with defaults (zero budget, empty collections) rather than failing.
func DecodeStore(data []byte) (Store, error) {
	var s Store
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	if s == nil {
		s = Store{}
	}
	for key, rec := range s {
		if rec == nil {
			s[key] = NewMonthRecord()
			continue
		}
		rec.Normalize()
	}
	return s, nil
}
