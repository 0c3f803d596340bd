// Copyright 2026 The Schemac Authors

// Package emit produces the declaration bundle spec.md §4.J describes:
// a serializable, JSON/TOML-renderable tree of every resolved type
// registry (root package plus every dependency), in a flattened field
// representation downstream generators can consume without re-walking
// AST nodes. The bundle shape is grounded on the teacher's
// cue/build.Instance and internal/encoding idiom of separating an
// in-memory graph from its serializable projection, though unlike CUE's
// instance graph this bundle carries only shapes, never evaluated
// values.
package emit

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"schemac/internal/resolve"
	"schemac/ks/ast"
	"schemac/ks/format"
)

// FieldType is the flattened, serializable form of an ast.Type:
// Builtin/Named/Array/SizedArray/Optional/Result/Map/Paren, matching
// spec.md §4.J's enumerated flattened-form list.
type FieldType struct {
	Kind      string     `json:"kind" toml:"kind"`
	Name      string     `json:"name,omitempty" toml:"name,omitempty"`
	Elem      *FieldType `json:"elem,omitempty" toml:"elem,omitempty"`
	Size      *int       `json:"size,omitempty" toml:"size,omitempty"`
	Key       *FieldType `json:"key,omitempty" toml:"key,omitempty"`
	Value     *FieldType `json:"value,omitempty" toml:"value,omitempty"`
	ErrorName string     `json:"error_name,omitempty" toml:"error_name,omitempty"`
}

// DeclField is one flattened struct field / operation argument.
type DeclField struct {
	Name     string    `json:"name" toml:"name"`
	Type     FieldType `json:"type" toml:"type"`
	Optional bool      `json:"optional,omitempty" toml:"optional,omitempty"`
}

// DeclVariant is one flattened oneof/error variant.
type DeclVariant struct {
	Name   string      `json:"name" toml:"name"`
	Type   *FieldType  `json:"type,omitempty" toml:"type,omitempty"`
	Fields []DeclField `json:"fields,omitempty" toml:"fields,omitempty"`
}

// DeclNamedItem is one emitted type: fully-qualified name, kind, version,
// and its flattened member fields/variants.
type DeclNamedItem struct {
	Name      string        `json:"name" toml:"name"`
	Kind      string        `json:"kind" toml:"kind"`
	Version   *int64        `json:"version,omitempty" toml:"version,omitempty"`
	Fields    []DeclField   `json:"fields,omitempty" toml:"fields,omitempty"`
	Variants  []DeclVariant `json:"variants,omitempty" toml:"variants,omitempty"`
	Alias     *FieldType    `json:"alias,omitempty" toml:"alias,omitempty"`
	Args      []DeclField   `json:"args,omitempty" toml:"args,omitempty"`
	Return    *FieldType    `json:"return,omitempty" toml:"return,omitempty"`
	ErrorDecl string        `json:"error,omitempty" toml:"error,omitempty"`
}

// DeclNamespace is one namespace's emitted types and nested namespaces.
type DeclNamespace struct {
	Types      []DeclNamedItem           `json:"types" toml:"types"`
	Namespaces map[string]*DeclNamespace `json:"namespaces,omitempty" toml:"namespaces,omitempty"`
}

// TypeRegistryDecl is one package's full emitted registry.
type TypeRegistryDecl struct {
	Package      string                    `json:"package" toml:"package"`
	Namespaces   map[string]*DeclNamespace `json:"namespaces" toml:"namespaces"`
	ExternalRefs []string                  `json:"external_refs,omitempty" toml:"external_refs,omitempty"`
}

// Bundle is the final emitted artifact spec.md §4.J names.
type Bundle struct {
	Root         TypeRegistryDecl             `json:"root" toml:"root"`
	Dependencies map[string]TypeRegistryDecl `json:"dependencies" toml:"dependencies"`
}

// Build assembles a Bundle from the resolution engine's final decl map,
// partitioning declarations by package and collecting, per package,
// external references (qualified names whose package differs from the
// declaring package) into that package's ExternalRefs.
func Build(rootPkg string, decls map[string]*resolve.Decl) *Bundle {
	byPkg := map[string]map[string]*resolve.Decl{}
	for qn, d := range decls {
		if byPkg[d.Package] == nil {
			byPkg[d.Package] = map[string]*resolve.Decl{}
		}
		byPkg[d.Package][qn] = d
	}

	b := &Bundle{Dependencies: map[string]TypeRegistryDecl{}}
	for pkg, pkgDecls := range byPkg {
		reg := buildRegistry(pkg, pkgDecls, decls)
		if pkg == rootPkg {
			b.Root = reg
		} else {
			b.Dependencies[snakeCase(pkg)] = reg
		}
	}
	return b
}

func buildRegistry(pkg string, pkgDecls map[string]*resolve.Decl, all map[string]*resolve.Decl) TypeRegistryDecl {
	reg := TypeRegistryDecl{Package: pkg, Namespaces: map[string]*DeclNamespace{}}
	externalSeen := map[string]bool{}

	qns := make([]string, 0, len(pkgDecls))
	for qn := range pkgDecls {
		qns = append(qns, qn)
	}
	sort.Strings(qns)

	for _, qn := range qns {
		d := pkgDecls[qn]
		ns := ensureNamespace(reg.Namespaces, d.Namespace)
		ns.Types = append(ns.Types, toDeclItem(d))
		for _, ref := range externalRefsOf(d, pkg) {
			if !externalSeen[ref] {
				externalSeen[ref] = true
				reg.ExternalRefs = append(reg.ExternalRefs, ref)
			}
		}
	}
	sort.Strings(reg.ExternalRefs)
	for _, ns := range reg.Namespaces {
		sort.Slice(ns.Types, func(i, j int) bool { return ns.Types[i].Name < ns.Types[j].Name })
	}
	return reg
}

func ensureNamespace(root map[string]*DeclNamespace, path []string) *DeclNamespace {
	if len(path) == 0 {
		if root[""] == nil {
			root[""] = &DeclNamespace{Namespaces: map[string]*DeclNamespace{}}
		}
		return root[""]
	}
	cur := root
	var node *DeclNamespace
	for i, seg := range path {
		if cur[seg] == nil {
			cur[seg] = &DeclNamespace{Namespaces: map[string]*DeclNamespace{}}
		}
		node = cur[seg]
		if i < len(path)-1 {
			cur = node.Namespaces
		}
	}
	return node
}

func toDeclItem(d *resolve.Decl) DeclNamedItem {
	item := DeclNamedItem{Name: d.QualifiedName, Version: d.Version}
	switch d.Kind {
	case resolve.KindStruct:
		item.Kind = "struct"
		for _, f := range d.Fields {
			item.Fields = append(item.Fields, toDeclField(f))
		}
	case resolve.KindEnum:
		item.Kind = "enum"
		for _, v := range d.EnumInts {
			item.Variants = append(item.Variants, DeclVariant{Name: v.Name.Name})
		}
		for _, v := range d.EnumStrs {
			item.Variants = append(item.Variants, DeclVariant{Name: v.Name.Name})
		}
	case resolve.KindOneOf:
		item.Kind = "oneof"
		item.Variants = toDeclVariants(d.Variants)
	case resolve.KindError:
		item.Kind = "error"
		item.Variants = toDeclVariants(d.Variants)
	case resolve.KindAlias:
		item.Kind = "alias"
		ft := toFieldType(d.AliasTarget)
		item.Alias = &ft
	case resolve.KindOperation:
		item.Kind = "operation"
		for _, a := range d.OpArgs {
			item.Args = append(item.Args, toDeclField(a))
		}
		ft := toFieldType(d.OpReturn)
		item.Return = &ft
		item.ErrorDecl = d.ErrAttr
	}
	return item
}

func toDeclVariants(vs []resolve.Variant) []DeclVariant {
	out := make([]DeclVariant, 0, len(vs))
	for _, v := range vs {
		dv := DeclVariant{Name: v.Name}
		if v.Type != nil {
			ft := toFieldType(v.Type)
			dv.Type = &ft
		}
		for _, f := range v.Fields {
			dv.Fields = append(dv.Fields, toDeclField(f))
		}
		out = append(out, dv)
	}
	return out
}

func toDeclField(f resolve.Field) DeclField {
	return DeclField{Name: f.Name, Type: toFieldType(f.Type), Optional: f.Optional}
}

func toFieldType(t ast.Type) FieldType {
	switch ty := t.(type) {
	case *ast.BuiltinType:
		return FieldType{Kind: "Builtin", Name: ty.Name}
	case *ast.NamedType:
		return FieldType{Kind: "Named", Name: ty.Path.String()}
	case *ast.ArrayType:
		elem := toFieldType(ty.Elem)
		if ty.Length != nil {
			return FieldType{Kind: "SizedArray", Elem: &elem, Size: ty.Length}
		}
		return FieldType{Kind: "Array", Elem: &elem}
	case *ast.OptionalType:
		elem := toFieldType(ty.Elem)
		return FieldType{Kind: "Optional", Elem: &elem}
	case *ast.MapType:
		k, v := toFieldType(ty.Key), toFieldType(ty.Value)
		return FieldType{Kind: "Map", Key: &k, Value: &v}
	case *ast.ResultType:
		elem := toFieldType(ty.Elem)
		ft := FieldType{Kind: "Result", Elem: &elem}
		if ty.ErrorName != nil {
			ft.ErrorName = ty.ErrorName.Name
		}
		return ft
	case *ast.ParenType:
		elem := toFieldType(ty.Elem)
		return FieldType{Kind: "Paren", Elem: &elem}
	default:
		return FieldType{Kind: "Named", Name: format.TypeString(t)}
	}
}

func externalRefsOf(d *resolve.Decl, pkg string) []string {
	var refs []string
	var walk func(t ast.Type)
	walk = func(t ast.Type) {
		switch ty := t.(type) {
		case *ast.NamedType:
			name := ty.Path.String()
			if parts := strings.SplitN(name, "::", 2); len(parts) == 2 && parts[0] != "schema" && parts[0] != pkg {
				refs = append(refs, name)
			}
		case *ast.ArrayType:
			walk(ty.Elem)
		case *ast.OptionalType:
			walk(ty.Elem)
		case *ast.MapType:
			walk(ty.Key)
			walk(ty.Value)
		case *ast.ResultType:
			walk(ty.Elem)
		case *ast.ParenType:
			walk(ty.Elem)
		}
	}
	for _, f := range d.Fields {
		walk(f.Type)
	}
	for _, v := range d.Variants {
		if v.Type != nil {
			walk(v.Type)
		}
		for _, f := range v.Fields {
			walk(f.Type)
		}
	}
	if d.AliasTarget != nil {
		walk(d.AliasTarget)
	}
	for _, a := range d.OpArgs {
		walk(a.Type)
	}
	if d.OpReturn != nil {
		walk(d.OpReturn)
	}
	return refs
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else if r == '-' {
			b.WriteByte('_')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// JSON renders the bundle as indented JSON.
func JSON(b *Bundle) ([]byte, error) {
	return json.MarshalIndent(b, "", "  ")
}

// TOML renders the bundle as TOML text.
func TOML(b *Bundle) ([]byte, error) {
	var buf bytes.Buffer
	enc := toml.NewEncoder(&buf)
	if err := enc.Encode(b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
