package models

import "sort"

// TypeKey identifies a type across packages as "importpath.TypeName"
type TypeKey string

// NewTypeKey builds the key for a type in the package with the given import path
func NewTypeKey(importPath, typeName string) TypeKey {
	if importPath == "" {
		return TypeKey(typeName)
	}
	return TypeKey(importPath + "." + typeName)
}

// Method is a method declared on a type in the type's own package
type Method struct {
	Name    string // method name
	File    string // file declaring the method
	Line    int    // line of the func keyword
	HasBody bool   // false for methods implemented outside Go
}

// CompiledType is one named type found in a package on disk
type CompiledType struct {
	Key          TypeKey  // importpath.TypeName
	Name         string   // simple type name
	Package      string   // Go package name
	ImportPath   string   // import path of the package, empty when unknown
	Dir          string   // package directory
	File         string   // file declaring the type
	Line         int      // line of the type name
	Spec         *LogSpec // annotation spec, nil when the type is not annotated
	Methods      []Method // declared methods in source order
	Instrumented bool     // logger variable already present in the package
}

// Annotated reports whether the type carries an annotation
func (t *CompiledType) Annotated() bool {
	return t.Spec != nil
}

// SpecSet maps types to the spec they should be instrumented with
type SpecSet map[TypeKey]LogSpec

// Keys returns the keys in sorted order
func (s SpecSet) Keys() []TypeKey {
	keys := make([]TypeKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Lookup returns the spec for a type, if any
func (s SpecSet) Lookup(t *CompiledType) (LogSpec, bool) {
	spec, ok := s[t.Key]
	return spec, ok
}

// PackageGroup is every discovered type that lives in one directory
type PackageGroup struct {
	Dir   string
	Types []*CompiledType
}

// GroupByDir groups types by package directory, keeping first-seen order
func GroupByDir(types []*CompiledType) []PackageGroup {
	var groups []PackageGroup
	index := make(map[string]int)
	for _, t := range types {
		i, ok := index[t.Dir]
		if !ok {
			i = len(groups)
			index[t.Dir] = i
			groups = append(groups, PackageGroup{Dir: t.Dir})
		}
		groups[i].Types = append(groups[i].Types, t)
	}
	return groups
}
