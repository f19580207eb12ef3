package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Context_Builtins(t *testing.T) {
	tc := NewContext()

	for _, name := range []string{"integer", "double", "boolean", "char", "void"} {
		typ, ok := tc.Get(name)
		require.True(t, ok, "builtin %s should be registered", name)
		assert.Equal(t, name, typ.Name())
		assert.IsType(t, &PrimitiveKind{}, typ.Kind())
	}
}

func Test_TypeEquality_IsByName(t *testing.T) {
	tc := NewContext()

	a := tc.Integer()
	b, _ := tc.Get("integer")
	c := tc.Integer()

	// symmetric and transitive over the registry's set
	assert.True(t, a.Equals(b))
	assert.True(t, b.Equals(a))
	assert.True(t, b.Equals(c))
	assert.True(t, a.Equals(c))

	assert.False(t, a.Equals(tc.Double()))
	assert.False(t, tc.Double().Equals(a))
}

func Test_ArrayKind_Memoizes(t *testing.T) {
	tc := NewContext()

	a := tc.Array(tc.Integer(), 3)
	b := tc.Array(tc.Integer(), 3)
	assert.True(t, a.Equals(b))
	assert.Equal(t, "array[3] of integer", a.Name())

	c := tc.Array(tc.Integer(), 2)
	assert.False(t, a.Equals(c))

	d := tc.Array(tc.Double(), 3)
	assert.False(t, a.Equals(d))
}

func Test_StringKind_IsArrayOfChar(t *testing.T) {
	tc := NewContext()

	s := tc.String(6)
	assert.Equal(t, "string", s.Name())

	array, ok := AsArray(s.Kind())
	require.True(t, ok)
	assert.Equal(t, 6, array.Size)
	assert.True(t, array.Elem.Equals(tc.Char()))

	// all string applications compare equal regardless of length
	assert.True(t, s.Equals(tc.String(9)))
}

func Test_FunctionKind_CarriesSignature(t *testing.T) {
	tc := NewContext()

	ret := tc.Integer()
	sig := NewSignature([]SignatureArg{
		{Name: "x", Type: tc.Integer()},
		{Name: "y", Type: tc.Integer()},
	}, &ret)

	f := tc.Function(sig)
	kind, ok := f.Kind().(*FunctionKind)
	require.True(t, ok)
	assert.True(t, kind.Sig.Equals(sig))
	assert.Equal(t, "function(x:integer,y:integer) -> integer", f.Name())
}

func Test_Signature_Equality(t *testing.T) {
	tc := NewContext()
	ret := tc.Integer()

	a := NewSignature([]SignatureArg{{Name: "x", Type: tc.Integer()}}, &ret)
	b := NewSignature([]SignatureArg{{Name: "renamed", Type: tc.Integer()}}, &ret)
	c := NewSignature([]SignatureArg{{Name: "x", Type: tc.Double()}}, &ret)
	d := NewSignature([]SignatureArg{{Name: "x", Type: tc.Integer()}}, nil)

	// structural over argument types and return type; names don't matter
	assert.True(t, a.Equals(b))
	assert.False(t, a.Equals(c))
	assert.False(t, a.Equals(d))
}

// Every registered type must carry the full capability set its category
// requires; operators rely on the narrowing never failing for these.
func Test_TraitTotality(t *testing.T) {
	tc := NewContext()

	_, ok := tc.Integer().Trait().(Ordered)
	assert.True(t, ok, "integer must be Ordered")

	_, ok = tc.Double().Trait().(Ordered)
	assert.True(t, ok, "double must be Ordered")

	_, ok = tc.Boolean().Trait().(Boolean)
	assert.True(t, ok, "boolean must support equality")
	_, isField := tc.Boolean().Trait().(Field)
	assert.False(t, isField, "boolean must not support arithmetic")

	_, ok = tc.Char().Trait().(Boolean)
	assert.True(t, ok, "char must support equality")

	_, ok = tc.Array(tc.Integer(), 4).Trait().(Indexable)
	assert.True(t, ok, "arrays must be indexable")

	_, ok = tc.String(4).Trait().(Indexable)
	assert.True(t, ok, "strings must be indexable")

	ret := tc.Void()
	fn := tc.Function(NewSignature(nil, &ret))
	_, ok = fn.Trait().(Callable)
	assert.True(t, ok, "functions must be callable")
}

func Test_UnresolvedType(t *testing.T) {
	var unresolved Type
	assert.False(t, unresolved.IsResolved())
	assert.True(t, NewContext().Integer().IsResolved())
}
