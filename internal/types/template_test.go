//nolint:revive // types is a standard Go package name pattern
package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCachedTemplate_Expired(t *testing.T) {
	now := time.Now()

	fresh := CachedTemplate{Key: "greenhouse:application", CreatedAt: now.Add(-24 * time.Hour)}
	assert.False(t, fresh.Expired(DefaultTemplateTTL, now))

	stale := CachedTemplate{Key: "greenhouse:application", CreatedAt: now.Add(-31 * 24 * time.Hour)}
	assert.True(t, stale.Expired(DefaultTemplateTTL, now))

	// Boundary: exactly at the TTL is still fresh
	edge := CachedTemplate{CreatedAt: now.Add(-DefaultTemplateTTL)}
	assert.False(t, edge.Expired(DefaultTemplateTTL, now))
}

func TestCachedTemplate_OverThreshold(t *testing.T) {
	tmpl := CachedTemplate{FailCount: 2}
	assert.False(t, tmpl.OverThreshold(DefaultFailThreshold))

	tmpl.FailCount = 3
	assert.True(t, tmpl.OverThreshold(DefaultFailThreshold))
}

func TestFormField_Shape_StripsRuntimeAttributes(t *testing.T) {
	field := FormField{
		Selector:    "#email",
		Label:       "Email",
		Type:        FieldTypeText,
		Required:    true,
		Placeholder: "you@example.com",
	}

	shape := field.Shape()
	assert.Equal(t, "#email", shape.Selector)
	assert.Equal(t, "Email", shape.Label)
	assert.Equal(t, FieldTypeText, shape.Type)
	assert.Empty(t, shape.Options)
}

func TestShapesFromFields_PreservesOrder(t *testing.T) {
	fields := []FormField{
		{Selector: "#first", Label: "First Name", Type: FieldTypeText},
		{Selector: "#last", Label: "Last Name", Type: FieldTypeText},
		{Selector: "#country", Label: "Country", Type: FieldTypeSelect, Options: []string{"US", "CA"}},
	}

	shapes := ShapesFromFields(fields)
	assert.Len(t, shapes, 3)
	assert.Equal(t, "#first", shapes[0].Selector)
	assert.Equal(t, "#last", shapes[1].Selector)
	assert.Equal(t, []string{"US", "CA"}, shapes[2].Options)
}
