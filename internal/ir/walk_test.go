package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func petModel() *Model {
	return &Model{
		Name: "Pet", Pointer: "#/definitions/Pet", Kind: KindInterface,
		Properties: []Property{
			{Name: "id", Model: &Model{Kind: KindGeneric, Type: "integer"}},
			{Name: "owner", Model: &Model{Kind: KindReference, Ref: "#/definitions/Pet"}},
			{Name: "tags", Model: &Model{Kind: KindArray, Items: &Model{Kind: KindReference, Ref: "#/definitions/Tag"}}},
		},
	}
}

func TestClone_IsDeep(t *testing.T) {
	t.Parallel()
	orig := petModel()
	c := orig.Clone()
	c.Properties[1].Model.Ref = "changed"
	c.Properties[2].Model.Items.Ref = "changed"

	assert.Equal(t, "#/definitions/Pet", orig.Properties[1].Model.Ref)
	assert.Equal(t, "#/definitions/Tag", orig.Properties[2].Model.Items.Ref)
}

func TestReferences_DedupesInWalkOrder(t *testing.T) {
	t.Parallel()
	m := petModel()
	m.Properties = append(m.Properties, Property{Name: "friend", Model: &Model{Kind: KindReference, Ref: "#/definitions/Pet"}})

	assert.Equal(t, []string{"#/definitions/Pet", "#/definitions/Tag"}, References(m))
}

func TestDraftClone_CopiesOperations(t *testing.T) {
	t.Parallel()
	d := &Draft{
		Version: "1.0",
		Models:  []*Model{petModel()},
		Services: []*Service{{Name: "Pets", Operations: []Operation{{
			ID:         "getPet",
			Parameters: []Parameter{{Name: "id", In: InPath, Model: &Model{Kind: KindGeneric, Type: "string"}}},
			Results:    []Result{{Class: Success, Model: &Model{Kind: KindReference, Ref: "#/definitions/Pet"}}},
		}}}},
		Schemas: []*Schema{{Name: "Pet", Raw: map[string]any{"type": "object"}}},
	}
	c := d.Clone()
	c.Services[0].Operations[0].Results[0].Model.Ref = "x"
	c.Schemas[0].Raw.(map[string]any)["type"] = "string"

	require.Len(t, c.Services, 1)
	assert.Equal(t, "#/definitions/Pet", d.Services[0].Operations[0].Results[0].Model.Ref)
	assert.Equal(t, "object", d.Schemas[0].Raw.(map[string]any)["type"])
}

func TestLocationValid(t *testing.T) {
	t.Parallel()
	for _, l := range []Location{InPath, InQuery, InHeader, InCookie, InBody} {
		assert.True(t, l.Valid(), l)
	}
	assert.False(t, Location("formData").Valid())
}
