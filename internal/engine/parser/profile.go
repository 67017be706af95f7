package parser

import (
	"path/filepath"
	"strings"

	domainerr "resolvels/internal/core/errors"
	"resolvels/internal/engine/syntax"
	"resolvels/internal/shared/util"
)

// Profile maps the node types of one tree-sitter grammar onto syntax kinds.
//
// Kinds is keyed by grammar node type. Fields is keyed by
// "parentType.field" and wins over Kinds for the child in that field.
// Anonymous "." becomes a Dot, other anonymous nodes Tokens. Unmapped named
// nodes become Other, or Token when they are leaves.
type Profile struct {
	Name       string
	Grammar    string
	Extensions []string
	Kinds      map[string]syntax.Kind
	Fields     map[string]syntax.Kind
}

// NewProfile builds a profile from kind names as printed by syntax.Kind.
func NewProfile(name, grammar string, extensions []string, kinds, fields map[string]string) (*Profile, error) {
	p := &Profile{
		Name:    name,
		Grammar: grammar,
		Kinds:   make(map[string]syntax.Kind, len(kinds)),
		Fields:  make(map[string]syntax.Kind, len(fields)),
	}
	if !HasGrammar(grammar) {
		return nil, profileError(name, domainerr.Newf(domainerr.CodeNotSupported, "grammar %q is not built in", grammar))
	}
	for _, ext := range extensions {
		p.Extensions = append(p.Extensions, normalizeExt(ext))
	}
	for _, nodeType := range util.SortedStringKeys(kinds) {
		k, ok := syntax.ParseKind(kinds[nodeType])
		if !ok {
			return nil, profileError(name, domainerr.Newf(domainerr.CodeValidationError, "node %q maps to unknown kind %q", nodeType, kinds[nodeType]))
		}
		p.Kinds[nodeType] = k
	}
	for _, field := range util.SortedStringKeys(fields) {
		if !strings.Contains(field, ".") {
			return nil, profileError(name, domainerr.Newf(domainerr.CodeValidationError, "field rule %q must be parentType.field", field))
		}
		k, ok := syntax.ParseKind(fields[field])
		if !ok {
			return nil, profileError(name, domainerr.Newf(domainerr.CodeValidationError, "field %q maps to unknown kind %q", field, fields[field]))
		}
		p.Fields[field] = k
	}
	return p, nil
}

func profileError(name string, err error) error {
	return domainerr.AddContext(err, domainerr.CtxProfile, name)
}

// Matches reports whether path has one of the profile's extensions.
func (p *Profile) Matches(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range p.Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// GoProfile reads Go sources as a host language: functions are operations,
// structs are records, imports are uses clauses. It lets the resolver and
// inference engine run over real parsed code.
func GoProfile() *Profile {
	return &Profile{
		Name:       "go",
		Grammar:    "go",
		Extensions: []string{".go"},
		Kinds: map[string]syntax.Kind{
			"source_file":                syntax.KindFile,
			"comment":                    syntax.KindComment,
			"function_declaration":       syntax.KindOperationDecl,
			"method_declaration":         syntax.KindOperationDecl,
			"parameter_declaration":      syntax.KindParamDecl,
			"var_spec":                   syntax.KindVarSpec,
			"const_spec":                 syntax.KindVarSpec,
			"field_declaration":          syntax.KindVarSpec,
			"block":                      syntax.KindBlock,
			"identifier":                 syntax.KindReferenceExp,
			"type_identifier":            syntax.KindTypeReferenceExp,
			"qualified_type":             syntax.KindTypeReferenceExp,
			"selector_expression":        syntax.KindSelectorExp,
			"call_expression":            syntax.KindExp,
			"binary_expression":          syntax.KindExp,
			"unary_expression":           syntax.KindExp,
			"import_spec":                syntax.KindUsesSpec,
			"import_declaration":         syntax.KindUsesList,
			"interpreted_string_literal": syntax.KindUsesString,
			"type_spec":                  syntax.KindTypeReprDecl,
			"struct_type":                syntax.KindRecordType,
			"expression_statement":       syntax.KindStatement,
			"assignment_statement":       syntax.KindStatement,
			"return_statement":           syntax.KindStatement,
			"int_literal":                syntax.KindToken,
		},
		Fields: map[string]syntax.Kind{
			"function_declaration.name":  syntax.KindIdentifier,
			"method_declaration.name":    syntax.KindIdentifier,
			"type_spec.name":             syntax.KindIdentifier,
			"import_spec.name":           syntax.KindIdentifier,
			"import_spec.path":           syntax.KindUsesString,
			"qualified_type.package":     syntax.KindIdentifier,
			"qualified_type.name":        syntax.KindIdentifier,
			"parameter_declaration.name": syntax.KindParamDef,
			"var_spec.name":              syntax.KindVarDef,
			"const_spec.name":            syntax.KindVarDef,
			"field_declaration.name":     syntax.KindVarDef,
			"selector_expression.field":  syntax.KindReferenceExp,
		},
	}
}
