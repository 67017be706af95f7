package syntax

import "fmt"

// Kind tags a node with its syntactic category. The set is closed: every
// switch over Kind in the engine is expected to be exhaustive.
type Kind uint8

const (
	KindInvalid Kind = iota

	// Leaves.
	KindToken
	KindDot
	KindIdentifier
	KindWhitespace
	KindComment

	// Structure.
	KindFile
	KindOther
	KindModuleDecl
	KindUsesList
	KindUsesSpec
	KindUsesString
	KindModuleSpec
	KindLibrarySpec
	KindFacilityDecl
	KindArgList
	KindOperationDecl
	KindParamDecl
	KindParamDef
	KindVarSpec
	KindVarDef
	KindBlock
	KindStatement

	// Programming types.
	KindTypeReprDecl
	KindExemplarDecl
	KindTypeModelDecl
	KindRecordType
	KindType
	KindTypeReferenceExp

	// Programming expressions.
	KindReferenceExp
	KindSelectorExp
	KindExp

	// Mathematical sublanguage.
	KindMathDefnDecl
	KindMathVarDecl
	KindMathReferenceExp
	KindMathSelectorExp
	KindMathExp

	kindCount
)

var kindNames = [kindCount]string{
	KindInvalid:          "Invalid",
	KindToken:            "Token",
	KindDot:              "Dot",
	KindIdentifier:       "Identifier",
	KindWhitespace:       "Whitespace",
	KindComment:          "Comment",
	KindFile:             "File",
	KindOther:            "Other",
	KindModuleDecl:       "ModuleDecl",
	KindUsesList:         "UsesList",
	KindUsesSpec:         "UsesSpec",
	KindUsesString:       "UsesString",
	KindModuleSpec:       "ModuleSpec",
	KindLibrarySpec:      "LibrarySpec",
	KindFacilityDecl:     "FacilityDecl",
	KindArgList:          "ArgList",
	KindOperationDecl:    "OperationDecl",
	KindParamDecl:        "ParamDecl",
	KindParamDef:         "ParamDef",
	KindVarSpec:          "VarSpec",
	KindVarDef:           "VarDef",
	KindBlock:            "Block",
	KindStatement:        "Statement",
	KindTypeReprDecl:     "TypeReprDecl",
	KindExemplarDecl:     "ExemplarDecl",
	KindTypeModelDecl:    "TypeModelDecl",
	KindRecordType:       "RecordType",
	KindType:             "Type",
	KindTypeReferenceExp: "TypeReferenceExp",
	KindReferenceExp:     "ReferenceExp",
	KindSelectorExp:      "SelectorExp",
	KindExp:              "Exp",
	KindMathDefnDecl:     "MathDefnDecl",
	KindMathVarDecl:      "MathVarDecl",
	KindMathReferenceExp: "MathReferenceExp",
	KindMathSelectorExp:  "MathSelectorExp",
	KindMathExp:          "MathExp",
}

var kindsByName = func() map[string]Kind {
	m := make(map[string]Kind, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		m[kindNames[k]] = k
	}
	return m
}()

func (k Kind) String() string {
	if k < kindCount {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind maps a kind name as printed by String back to its Kind.
func ParseKind(name string) (Kind, bool) {
	k, ok := kindsByName[name]
	if !ok || k == KindInvalid {
		return KindInvalid, false
	}
	return k, true
}

// IsLeafKind reports whether nodes of this kind never have children.
func (k Kind) IsLeafKind() bool {
	switch k {
	case KindToken, KindDot, KindIdentifier, KindWhitespace, KindComment:
		return true
	}
	return false
}

// IsHidden reports whether a leaf of this kind is skipped by visible-leaf navigation.
func (k Kind) IsHidden() bool {
	return k == KindWhitespace || k == KindComment
}

// IsType reports whether the kind denotes a programming type node.
func (k Kind) IsType() bool {
	switch k {
	case KindType, KindTypeReferenceExp, KindRecordType:
		return true
	}
	return false
}

// IsExpression reports whether the kind belongs to the programming expression variants.
func (k Kind) IsExpression() bool {
	switch k {
	case KindReferenceExp, KindSelectorExp, KindExp:
		return true
	}
	return false
}

// IsMathExpression reports whether the kind belongs to the math expression variants.
func (k Kind) IsMathExpression() bool {
	switch k {
	case KindMathReferenceExp, KindMathSelectorExp, KindMathExp:
		return true
	}
	return false
}

// IsDeclaration reports whether the kind introduces a name.
func (k Kind) IsDeclaration() bool {
	switch k {
	case KindVarDef, KindParamDef, KindTypeReprDecl, KindExemplarDecl, KindTypeModelDecl,
		KindFacilityDecl, KindModuleDecl, KindOperationDecl, KindMathDefnDecl, KindMathVarDecl,
		KindUsesSpec:
		return true
	}
	return false
}
