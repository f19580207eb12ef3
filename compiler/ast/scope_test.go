package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slate/compiler"
)

func Test_Scope_RegisterAndFind(t *testing.T) {
	scope := NewScope("test")
	decl := NewVariableDecl(compiler.LocationZero, "x", NewIntegerLiteral(compiler.LocationZero, 1))

	scope.Register(decl.Sym())

	found := scope.Find("x")
	require.NotNil(t, found)
	assert.Equal(t, "x", found.Name)
	assert.Equal(t, SymbolLocalVariable, found.Kind)
	assert.Nil(t, scope.Find("y"))
}

func Test_Scope_FindWalksEnclosingChain(t *testing.T) {
	outer := NewScope("outer")
	inner := NewScope("inner")
	inner.SetParent(outer)

	decl := NewVariableDecl(compiler.LocationZero, "x", NewIntegerLiteral(compiler.LocationZero, 1))
	outer.Register(decl.Sym())

	found := inner.Find("x")
	require.NotNil(t, found)
	assert.Equal(t, decl.Sym(), found)
}

func Test_Scope_ShadowingReturnsInnermost(t *testing.T) {
	outer := NewScope("outer")
	inner := NewScope("inner")
	inner.SetParent(outer)

	outerDecl := NewVariableDecl(compiler.LocationZero, "x", NewIntegerLiteral(compiler.LocationZero, 1))
	innerDecl := NewVariableDecl(compiler.LocationZero, "x", NewIntegerLiteral(compiler.LocationZero, 2))
	outer.Register(outerDecl.Sym())
	inner.Register(innerDecl.Sym())

	assert.Equal(t, innerDecl.Sym(), inner.Find("x"))
	assert.Equal(t, outerDecl.Sym(), outer.Find("x"))
}

func Test_Scope_ExistsOnSameScopeIsLocal(t *testing.T) {
	outer := NewScope("outer")
	inner := NewScope("inner")
	inner.SetParent(outer)

	decl := NewVariableDecl(compiler.LocationZero, "x", NewIntegerLiteral(compiler.LocationZero, 1))
	outer.Register(decl.Sym())

	assert.True(t, outer.ExistsOnSameScope("x"))
	assert.False(t, inner.ExistsOnSameScope("x"))
}

func Test_Scope_SelfParentIsIgnored(t *testing.T) {
	scope := NewScope("test")
	scope.SetParent(scope)

	// the enclosing-chain walk must terminate
	assert.Nil(t, scope.Find("missing"))
	assert.Nil(t, scope.Parent())
}

func Test_Scope_DuplicateNamesAreDecorated(t *testing.T) {
	first := NewScope("dup")
	second := NewScope("dup")
	assert.NotEqual(t, first.Name(), second.Name())
}

func Test_SymbolKind_Strings(t *testing.T) {
	assert.Equal(t, "local variable", SymbolLocalVariable.String())
	assert.Equal(t, "function argument", SymbolFunctionArgument.String())
	assert.Equal(t, "function", SymbolFunction.String())
}
