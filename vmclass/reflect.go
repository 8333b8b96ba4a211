package vmclass

import (
	"strings"
	"sync"
)

// ReflectKind discriminates a ReflectType between primitive, class, and
// N-dimensional array (C8).
type ReflectKind int

const (
	ReflectPrimitive ReflectKind = iota
	ReflectClass
	ReflectArray
)

// ReflectType is an interned handle describing a type literal: a
// primitive, a class, or an N-dimensional array over one of those. The
// registry guarantees a single instance per canonical descriptor, so
// equality reduces to pointer identity, per spec.md §3.
type ReflectType struct {
	Kind      ReflectKind
	Name      string       // canonical descriptor form, e.g. "I", "Ljava/lang/String;", "[I"
	ClassName string       // slash-form class name, only set when Kind == ReflectClass
	Component *ReflectType // only set when Kind == ReflectArray
}

var (
	reflectMu    sync.Mutex
	reflectTable = make(map[string]*ReflectType)
)

var primitiveDescriptors = map[byte]bool{
	'B': true, 'Z': true, 'S': true, 'C': true,
	'I': true, 'J': true, 'F': true, 'D': true, 'V': true,
}

// GetReflectType interns and returns the ReflectType for a descriptor or a
// slash-separated class name. Accepts both forms per the "Reflective
// type-name grammar" external interface (§6): primitives are single-letter
// descriptors, object types are normalized to `Lpkg/Name;`, arrays prepend
// `[`.
func GetReflectType(nameOrDescriptor string) *ReflectType {
	canonical := normalizeTypeName(nameOrDescriptor)

	reflectMu.Lock()
	defer reflectMu.Unlock()
	if rt, ok := reflectTable[canonical]; ok {
		return rt
	}

	var rt *ReflectType
	switch {
	case len(canonical) == 1 && primitiveDescriptors[canonical[0]]:
		rt = &ReflectType{Kind: ReflectPrimitive, Name: canonical}
	case strings.HasPrefix(canonical, "["):
		compName := canonical[1:]
		reflectMu.Unlock()
		comp := GetReflectType(compName)
		reflectMu.Lock()
		rt = &ReflectType{Kind: ReflectArray, Name: canonical, Component: comp}
	case strings.HasPrefix(canonical, "L") && strings.HasSuffix(canonical, ";"):
		rt = &ReflectType{Kind: ReflectClass, Name: canonical, ClassName: canonical[1 : len(canonical)-1]}
	default:
		// bare slash-form class name with no descriptor wrapper
		rt = &ReflectType{Kind: ReflectClass, Name: "L" + canonical + ";", ClassName: canonical}
	}
	reflectTable[canonical] = rt
	return rt
}

// normalizeTypeName accepts either descriptor or slash-class-name form and
// returns the canonical descriptor-wrapped form used as the intern key.
func normalizeTypeName(s string) string {
	if s == "" {
		return s
	}
	if len(s) == 1 && primitiveDescriptors[s[0]] {
		return s
	}
	if strings.HasPrefix(s, "[") {
		return "[" + normalizeTypeName(s[1:])
	}
	if strings.HasPrefix(s, "L") && strings.HasSuffix(s, ";") {
		return s
	}
	return "L" + s + ";"
}
