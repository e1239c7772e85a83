package resolve

import (
	"testing"

	"github.com/mark3labs/swagger2ts/internal/ir"
	"github.com/mark3labs/swagger2ts/pkg/generrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ref(to, at string) *ir.Model {
	return &ir.Model{Kind: ir.KindReference, Ref: to, Pointer: at}
}

func prim(typ string) *ir.Model {
	return &ir.Model{Kind: ir.KindGeneric, Type: typ}
}

func errorShape(ptr string, requiredCode bool) *ir.Model {
	return &ir.Model{
		Kind: ir.KindInterface, Pointer: ptr, Anonymous: true,
		Properties: []ir.Property{
			{Name: "code", Required: requiredCode, Model: prim("integer")},
			{Name: "message", Model: prim("string")},
		},
	}
}

func opReturning(id, ptr string) ir.Operation {
	return ir.Operation{ID: id, Results: []ir.Result{{Class: ir.Failure, Status: "default", Model: ref(ptr, ptr)}}}
}

func TestResolve_SelfReferenceIsLazy(t *testing.T) {
	t.Parallel()
	pet := &ir.Model{
		Alias: "Pet", Pointer: "#/definitions/Pet", Kind: ir.KindInterface,
		Properties: []ir.Property{
			{Name: "id", Model: prim("integer")},
			{Name: "name", Model: prim("string")},
			{Name: "owner", Model: ref("#/definitions/Pet", "#/definitions/Pet/properties/owner")},
		},
	}
	in := &ir.Draft{Models: []*ir.Model{pet}}

	out, err := Resolve(in)
	require.NoError(t, err)
	require.Len(t, out.Models, 1)
	owner := out.Models[0].Properties[2].Model
	assert.Equal(t, ir.KindReference, owner.Kind)
	assert.Equal(t, "#/definitions/Pet", owner.Ref)
	assert.True(t, owner.Lazy)

	assert.False(t, in.Models[0].Properties[2].Model.Lazy, "input draft must not be modified")
}

func TestResolve_MutualCycle(t *testing.T) {
	t.Parallel()
	a := &ir.Model{Alias: "A", Pointer: "#/definitions/A", Kind: ir.KindInterface,
		Properties: []ir.Property{{Name: "b", Model: ref("#/definitions/B", "#/definitions/A/properties/b")}}}
	b := &ir.Model{Alias: "B", Pointer: "#/definitions/B", Kind: ir.KindArray,
		Items: ref("#/definitions/A", "#/definitions/B/items")}

	out, err := Resolve(&ir.Draft{Models: []*ir.Model{a, b}})
	require.NoError(t, err)
	assert.False(t, out.Models[0].Properties[0].Model.Lazy)
	assert.True(t, out.Models[1].Items.Lazy)
}

func TestResolve_MergesIdenticalAnonymousModels(t *testing.T) {
	t.Parallel()
	p1 := "#/paths/~1a/get/responses/default/schema"
	p2 := "#/paths/~1b/get/responses/default/schema"
	d := &ir.Draft{
		Models: []*ir.Model{errorShape(p1, false), errorShape(p2, false)},
		Services: []*ir.Service{{Alias: "Default", Operations: []ir.Operation{
			opReturning("a", p1),
			opReturning("b", p2),
		}}},
	}
	out, err := Resolve(d)
	require.NoError(t, err)
	require.Len(t, out.Models, 1)
	assert.Equal(t, p1, out.Models[0].Pointer)
	ops := out.Services[0].Operations
	assert.Equal(t, p1, ops[0].Results[0].Model.Ref)
	assert.Equal(t, p1, ops[1].Results[0].Model.Ref)
}

func TestResolve_DifferentRequiredSetsStayDistinct(t *testing.T) {
	t.Parallel()
	d := &ir.Draft{Models: []*ir.Model{errorShape("#/a", true), errorShape("#/b", false)}}
	out, err := Resolve(d)
	require.NoError(t, err)
	assert.Len(t, out.Models, 2)
}

func TestResolve_NamedModelsAreNeverMerged(t *testing.T) {
	t.Parallel()
	x := errorShape("#/definitions/X", false)
	y := errorShape("#/definitions/Y", false)
	x.Anonymous, y.Anonymous = false, false
	out, err := Resolve(&ir.Draft{Models: []*ir.Model{x, y}})
	require.NoError(t, err)
	assert.Len(t, out.Models, 2)
}

func TestResolve_UnresolvedReference(t *testing.T) {
	t.Parallel()
	pet := &ir.Model{Alias: "Pet", Pointer: "#/definitions/Pet", Kind: ir.KindInterface,
		Properties: []ir.Property{{Name: "tag", Model: ref("#/definitions/Tag", "#/definitions/Pet/properties/tag")}}}

	_, err := Resolve(&ir.Draft{Models: []*ir.Model{pet}})
	require.ErrorIs(t, err, generrors.ErrUnresolvedReference)
	var ge *generrors.Error
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, "#/definitions/Tag", ge.Pointer)
	assert.Equal(t, "#/definitions/Pet/properties/tag", ge.Location)
}

func TestResolve_UnresolvedReferenceFromOperation(t *testing.T) {
	t.Parallel()
	d := &ir.Draft{Services: []*ir.Service{{Alias: "Default", Operations: []ir.Operation{
		opReturning("a", "#/definitions/Missing"),
	}}}}
	_, err := Resolve(d)
	assert.ErrorIs(t, err, generrors.ErrUnresolvedReference)
}

func TestShape_IgnoresDocumentation(t *testing.T) {
	t.Parallel()
	a := errorShape("#/a", false)
	b := errorShape("#/b", false)
	b.Description = "an error"
	b.Alias = "other"
	assert.Equal(t, Shape(a), Shape(b))

	b.Properties[1].Model.Nullable = true
	assert.NotEqual(t, Shape(a), Shape(b))
}
