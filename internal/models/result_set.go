package models

import "github.com/stwalsh4118/projectmap/internal/geo"

// ResultSet is the ordered, capped set of projects returned by one query.
// A new query replaces the whole set.
type ResultSet struct {
	Records []Project
}

// Len returns the number of records.
func (rs ResultSet) Len() int {
	return len(rs.Records)
}

// Unique drops records whose project id repeats an earlier one, so every
// id in the set is addressable by exactly one record.
func (rs ResultSet) Unique() ResultSet {
	seen := make(map[string]struct{}, len(rs.Records))
	out := make([]Project, 0, len(rs.Records))
	for _, p := range rs.Records {
		if _, dup := seen[p.ID()]; dup {
			continue
		}
		seen[p.ID()] = struct{}{}
		out = append(out, p)
	}
	return ResultSet{Records: out}
}

// GeoRecord is a project with parsed coordinates.
type GeoRecord struct {
	Project  Project
	Position geo.Point
}

// InvalidRecord is a project kept off the map because its coordinates do
// not parse.
type InvalidRecord struct {
	Project Project
	Err     *MalformedRecordError
}

// Partition splits a result set by coordinate validity.
type Partition struct {
	Valid   []GeoRecord
	Invalid []InvalidRecord
}

// Partition splits the records into geoValid and geoInvalid, preserving
// result order within each half.
func (rs ResultSet) Partition() Partition {
	part := Partition{
		Valid:   make([]GeoRecord, 0, len(rs.Records)),
		Invalid: []InvalidRecord{},
	}
	for _, p := range rs.Records {
		pos, err := p.Position()
		if err != nil {
			malformed, _ := err.(*MalformedRecordError)
			part.Invalid = append(part.Invalid, InvalidRecord{Project: p, Err: malformed})
			continue
		}
		part.Valid = append(part.Valid, GeoRecord{Project: p, Position: pos})
	}
	return part
}
