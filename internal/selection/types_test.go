package selection

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstructors(t *testing.T) {
	key := NewKeySelector("foo")
	assert.Equal(t, TypeDevices, key.SelectionType)
	assert.Equal(t, KeyKey, key.Key)
	assert.Equal(t, "foo", key.Value)
	assert.Equal(t, "foo", key.String())

	attrs := NewAttributesSelector(map[string]string{"bar": "baz"})
	got, ok := attrs.Attributes()
	require.True(t, ok)
	assert.Equal(t, map[string]string{"bar": "baz"}, got)

	_, err := NewAndClause()
	assert.Error(t, err)
	_, err = NewOrClause()
	assert.Error(t, err)

	and, err := NewAndClause(key, attrs)
	require.NoError(t, err)
	assert.Len(t, and.Selectors, 2)
}

func TestMarshalWireForm(t *testing.T) {
	inner, err := NewAndClause(NewKeySelector("foo"), NewAttributesSelector(map[string]string{"bar": "baz"}))
	require.NoError(t, err)
	outer, err := NewOrClause(NewKeySelector("foo"), inner)
	require.NoError(t, err)

	data, err := json.Marshal(outer)
	require.NoError(t, err)
	assert.JSONEq(t, `{"or":[{"key":"foo"},{"and":[{"key":"foo"},{"attributes":{"bar":"baz"}}]}]}`, string(data))

	data, err = json.Marshal(Selection{Selection: NewKeySelector("foo"), Select: TypeSensors})
	require.NoError(t, err)
	assert.JSONEq(t, `{"select":"sensors","filter":{"key":"foo"}}`, string(data))

	data, err = json.Marshal(Selection{Selection: inner})
	require.NoError(t, err)
	assert.JSONEq(t, `{"and":[{"key":"foo"},{"attributes":{"bar":"baz"}}]}`, string(data))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name     string
		clause   Clause
		wantErr  bool
		wantPath string
	}{
		{
			name:   "key selector",
			clause: NewKeySelector("foo"),
		},
		{
			name:     "empty key",
			clause:   NewKeySelector(""),
			wantErr:  true,
			wantPath: "filter.key",
		},
		{
			name:     "nil clause",
			clause:   nil,
			wantErr:  true,
			wantPath: "filter",
		},
		{
			name:     "empty and",
			clause:   AndClause{},
			wantErr:  true,
			wantPath: "filter.and",
		},
		{
			name: "nested bad selector",
			clause: OrClause{Selectors: []Clause{
				NewKeySelector("foo"),
				AndClause{Selectors: []Clause{Selector{SelectionType: TypeDevices, Key: KeyAttributes, Value: "oops"}}},
			}},
			wantErr:  true,
			wantPath: "filter.or[1].and[0].attributes",
		},
		{
			name:     "bad selection type",
			clause:   Selector{SelectionType: "gateways", Key: KeyKey, Value: "foo"},
			wantErr:  true,
			wantPath: "filter",
		},
		{
			name:   "raw filter",
			clause: RawFilter{"operation": "select"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.clause)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.wantPath, verr.Path)
		})
	}
}
