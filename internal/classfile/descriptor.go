package classfile

import (
	"fmt"
	"strings"
)

var primitiveDescriptors = map[byte]string{
	'B': "byte",
	'C': "char",
	'D': "double",
	'F': "float",
	'I': "int",
	'J': "long",
	'S': "short",
	'Z': "boolean",
}

// PrimitiveTypeNames lists the Java primitive type names plus void.
var PrimitiveTypeNames = []string{"boolean", "byte", "char", "double", "float", "int", "long", "short", "void"}

// BinaryName converts an internal name ("a/b/C$D") to a binary name ("a.b.C$D").
func BinaryName(internal string) string {
	return strings.ReplaceAll(internal, "/", ".")
}

// FieldTypeName converts a field descriptor into a type name, e.g.
// "[[Ljava/lang/String;" becomes "java.lang.String[][]".
func FieldTypeName(desc string) (string, error) {
	name, n, err := parseFieldType(desc, 0)
	if err != nil {
		return "", err
	}
	if n != len(desc) {
		return "", fmt.Errorf("trailing characters in field descriptor %q", desc)
	}
	return name, nil
}

// ReturnTypeName is FieldTypeName that also accepts "V" as "void".
func ReturnTypeName(desc string) (string, error) {
	if desc == "V" {
		return "void", nil
	}
	return FieldTypeName(desc)
}

// ParseMethodDescriptor splits "(ILjava/lang/String;)V" into ["int",
// "java.lang.String"] and "void".
func ParseMethodDescriptor(desc string) ([]string, string, error) {
	if len(desc) == 0 || desc[0] != '(' {
		return nil, "", fmt.Errorf("method descriptor %q does not start with '('", desc)
	}
	var params []string
	i := 1
	for {
		if i >= len(desc) {
			return nil, "", fmt.Errorf("unterminated parameter list in method descriptor %q", desc)
		}
		if desc[i] == ')' {
			i++
			break
		}
		name, next, err := parseFieldType(desc, i)
		if err != nil {
			return nil, "", err
		}
		params = append(params, name)
		i = next
	}
	ret, err := ReturnTypeName(desc[i:])
	if err != nil {
		return nil, "", fmt.Errorf("method descriptor %q: %w", desc, err)
	}
	return params, ret, nil
}

func parseFieldType(desc string, i int) (string, int, error) {
	dims := 0
	for i < len(desc) && desc[i] == '[' {
		dims++
		i++
	}
	if i >= len(desc) {
		return "", i, fmt.Errorf("truncated descriptor %q", desc)
	}
	var base string
	switch c := desc[i]; c {
	case 'L':
		end := strings.IndexByte(desc[i:], ';')
		if end < 2 {
			return "", i, fmt.Errorf("invalid object type in descriptor %q", desc)
		}
		base = BinaryName(desc[i+1 : i+end])
		i += end + 1
	default:
		p, ok := primitiveDescriptors[c]
		if !ok {
			return "", i, fmt.Errorf("invalid descriptor character %q in %q", c, desc)
		}
		base = p
		i++
	}
	return base + strings.Repeat("[]", dims), i, nil
}

// ComponentTypeName strips every trailing "[]" from an array type name.
func ComponentTypeName(name string) string {
	for strings.HasSuffix(name, "[]") {
		name = strings.TrimSuffix(name, "[]")
	}
	return name
}

// IsPrimitiveTypeName reports whether name is a primitive type or void.
func IsPrimitiveTypeName(name string) bool {
	for _, p := range PrimitiveTypeNames {
		if p == name {
			return true
		}
	}
	return false
}
