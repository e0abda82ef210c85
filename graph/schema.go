// Copyright 2019 eBay Inc.
// Primary authors: Simon Fell, Diego Ongaro,
//                  Raymond Kroeker, and Sathish Kandasamy.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
// https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
)

// ValueType is the type of the values held by a property type.
type ValueType uint8

// ValueType values. Each corresponds to a Go type satisfying Value.
const (
	Int64 ValueType = iota + 1
	UInt64
	Double
	String
	Bool
)

func (t ValueType) String() string {
	switch t {
	case Int64:
		return "Int64"
	case UInt64:
		return "UInt64"
	case Double:
		return "Double"
	case String:
		return "String"
	case Bool:
		return "Bool"
	}
	return fmt.Sprintf("ValueType(%d)", uint8(t))
}

// Value is satisfied by the Go types that property values are stored as.
type Value interface {
	int64 | uint64 | float64 | string | bool
}

// ValueTypeOf returns the ValueType matching the Go type T.
func ValueTypeOf[T Value]() ValueType {
	var zero T
	return valueTypeOf(zero)
}

func valueTypeOf(v interface{}) ValueType {
	switch v.(type) {
	case int64:
		return Int64
	case uint64:
		return UInt64
	case float64:
		return Double
	case string:
		return String
	case bool:
		return Bool
	}
	return 0
}

// PropertyType describes a named, typed property of nodes or edges.
type PropertyType struct {
	ID   PropertyTypeID
	Name string
	Type ValueType
}

func (pt PropertyType) String() string {
	return fmt.Sprintf("%s:%v", pt.Name, pt.Type)
}

// Schema assigns IDs to label names, edge type names and property types.
// Names are registered on first use and keep their ID for the lifetime of the
// Graph. Schema is safe for concurrent use.
type Schema struct {
	lock   sync.Mutex
	locked struct {
		labels        map[string]LabelID
		labelNames    []string
		edgeTypes     map[string]EdgeTypeID
		edgeTypeNames []string
		propTypes     map[string]PropertyType
		propTypesByID []PropertyType
	}
}

func newSchema() *Schema {
	s := new(Schema)
	s.locked.labels = make(map[string]LabelID)
	s.locked.edgeTypes = make(map[string]EdgeTypeID)
	s.locked.propTypes = make(map[string]PropertyType)
	return s
}

// Label returns the ID of the label with the given name, registering it if
// needed. It panics if more than MaxLabels labels are registered.
func (s *Schema) Label(name string) LabelID {
	s.lock.Lock()
	defer s.lock.Unlock()
	if id, ok := s.locked.labels[name]; ok {
		return id
	}
	if len(s.locked.labelNames) >= MaxLabels {
		logrus.Panicf("Schema: cannot register label %q: limit of %d labels reached",
			name, MaxLabels)
	}
	id := LabelID(len(s.locked.labelNames))
	s.locked.labels[name] = id
	s.locked.labelNames = append(s.locked.labelNames, name)
	return id
}

// Labels returns the LabelSet made of the named labels, registering any that
// are new.
func (s *Schema) Labels(names ...string) LabelSet {
	var set LabelSet
	for _, name := range names {
		set = set.With(s.Label(name))
	}
	return set
}

// LabelName returns the name of a registered label, or "" if unknown.
func (s *Schema) LabelName(id LabelID) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if int(id) < len(s.locked.labelNames) {
		return s.locked.labelNames[id]
	}
	return ""
}

// EdgeType returns the ID of the edge type with the given name, registering it
// if needed.
func (s *Schema) EdgeType(name string) EdgeTypeID {
	s.lock.Lock()
	defer s.lock.Unlock()
	if id, ok := s.locked.edgeTypes[name]; ok {
		return id
	}
	id := EdgeTypeID(len(s.locked.edgeTypeNames))
	s.locked.edgeTypes[name] = id
	s.locked.edgeTypeNames = append(s.locked.edgeTypeNames, name)
	return id
}

// EdgeTypeName returns the name of a registered edge type, or "" if unknown.
func (s *Schema) EdgeTypeName(id EdgeTypeID) string {
	s.lock.Lock()
	defer s.lock.Unlock()
	if int(id) < len(s.locked.edgeTypeNames) {
		return s.locked.edgeTypeNames[id]
	}
	return ""
}

// PropertyType returns the property type with the given name, registering it
// with the given value type if needed. It returns an error if the name is
// already registered with a different value type.
func (s *Schema) PropertyType(name string, vt ValueType) (PropertyType, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if pt, ok := s.locked.propTypes[name]; ok {
		if pt.Type != vt {
			return PropertyType{}, fmt.Errorf("property type %q already registered as %v, not %v",
				name, pt.Type, vt)
		}
		return pt, nil
	}
	pt := PropertyType{
		ID:   PropertyTypeID(len(s.locked.propTypesByID)),
		Name: name,
		Type: vt,
	}
	s.locked.propTypes[name] = pt
	s.locked.propTypesByID = append(s.locked.propTypesByID, pt)
	return pt, nil
}

// MustPropertyType is like PropertyType but panics on error.
func (s *Schema) MustPropertyType(name string, vt ValueType) PropertyType {
	pt, err := s.PropertyType(name, vt)
	if err != nil {
		panic(err.Error())
	}
	return pt
}

// LookupPropertyType returns the property type with the given name, if it is
// registered.
func (s *Schema) LookupPropertyType(name string) (PropertyType, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	pt, ok := s.locked.propTypes[name]
	return pt, ok
}

// PropertyTypeByID returns the property type with the given ID, if it is
// registered.
func (s *Schema) PropertyTypeByID(id PropertyTypeID) (PropertyType, bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	if int(id) < len(s.locked.propTypesByID) {
		return s.locked.propTypesByID[id], true
	}
	return PropertyType{}, false
}

// LabelNames returns the names of the registered labels, indexed by LabelID.
func (s *Schema) LabelNames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.locked.labelNames...)
}

// EdgeTypeNames returns the names of the registered edge types, indexed by
// EdgeTypeID.
func (s *Schema) EdgeTypeNames() []string {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]string(nil), s.locked.edgeTypeNames...)
}

// PropertyTypes returns the registered property types, indexed by
// PropertyTypeID.
func (s *Schema) PropertyTypes() []PropertyType {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]PropertyType(nil), s.locked.propTypesByID...)
}
