package hierarchy

import (
	"errors"
	"testing"

	"github.com/l3aro/go-spygen/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTopSingleModule(t *testing.T) {
	// a lone module is returned even when it has no edges at all
	reg := newRegistry(t, types.ModuleRecord{Name: "only"})

	top, err := ResolveTop(reg, "")
	require.NoError(t, err)
	assert.Equal(t, "only", top.Name)
}

func TestResolveTopSingleModuleIgnoresEdges(t *testing.T) {
	reg := newRegistry(t, types.ModuleRecord{Name: "only", Body: "only u_self ();"})

	top, err := ResolveTop(reg, "")
	require.NoError(t, err)
	assert.Equal(t, "only", top.Name)
}

func TestResolveTopInferred(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{Name: "b", Body: "c u_c ();"},
		types.ModuleRecord{Name: "a", Body: "b u_b ();"},
		types.ModuleRecord{Name: "c"},
	)

	top, err := ResolveTop(reg, "")
	require.NoError(t, err)
	assert.Equal(t, "a", top.Name)
}

func TestResolveTopLeavesAreNotCandidates(t *testing.T) {
	// "unused" is never instantiated but has no children either
	reg := newRegistry(t,
		types.ModuleRecord{Name: "top", Body: "leaf u_leaf ();"},
		types.ModuleRecord{Name: "leaf"},
		types.ModuleRecord{Name: "unused"},
	)

	top, err := ResolveTop(reg, "")
	require.NoError(t, err)
	assert.Equal(t, "top", top.Name)
}

func TestResolveTopOverrideWins(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{Name: "top", Body: "mid u_mid ();"},
		types.ModuleRecord{Name: "mid", Body: "leaf u_leaf ();"},
		types.ModuleRecord{Name: "leaf"},
	)

	top, err := ResolveTop(reg, "mid")
	require.NoError(t, err)
	assert.Equal(t, "mid", top.Name, "override wins even when instantiated elsewhere")
}

func TestResolveTopUnknownOverride(t *testing.T) {
	tests := []struct {
		name    string
		records []types.ModuleRecord
		want    string
	}{
		{
			name:    "single module",
			records: []types.ModuleRecord{{Name: "only"}},
			want:    "only",
		},
		{
			name: "inferable top",
			records: []types.ModuleRecord{
				{Name: "top", Body: "leaf u_leaf ();"},
				{Name: "leaf"},
			},
			want: "top",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, tt.records...)

			top, err := ResolveTop(reg, "typo")
			require.NoError(t, err)
			assert.Equal(t, tt.want, top.Name)
		})
	}
}

func TestResolveTopUnknownOverrideNotInferable(t *testing.T) {
	reg := newRegistry(t, types.ModuleRecord{Name: "x"}, types.ModuleRecord{Name: "y"})

	_, err := ResolveTop(reg, "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTopModuleNotFound)

	var notFound *TopModuleNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, "nope", notFound.Override)
	assert.Equal(t, []string{"x", "y"}, notFound.Modules)
	assert.Contains(t, err.Error(), `"nope" is not a known module`)
}

func TestResolveTopNotFound(t *testing.T) {
	tests := []struct {
		name    string
		records []types.ModuleRecord
	}{
		{
			name:    "only leaves",
			records: []types.ModuleRecord{{Name: "x"}, {Name: "y"}},
		},
		{
			name: "every parent is instantiated",
			records: []types.ModuleRecord{
				{Name: "a", Body: "b u_b ();"},
				{Name: "b", Body: "a u_a ();"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := newRegistry(t, tt.records...)

			_, err := ResolveTop(reg, "")
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrTopModuleNotFound)

			var notFound *TopModuleNotFoundError
			require.True(t, errors.As(err, &notFound))
			assert.Len(t, notFound.Modules, len(tt.records))
		})
	}
}

func TestResolveTopAmbiguous(t *testing.T) {
	reg := newRegistry(t,
		types.ModuleRecord{Name: "tb_b", Body: "leaf u_leaf ();"},
		types.ModuleRecord{Name: "tb_a", Body: "leaf u_leaf ();"},
		types.ModuleRecord{Name: "leaf"},
	)

	_, err := ResolveTop(reg, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAmbiguousTopModule)

	var ambiguous *AmbiguousTopModuleError
	require.True(t, errors.As(err, &ambiguous))
	assert.Equal(t, []string{"tb_a", "tb_b"}, ambiguous.Candidates)
	assert.Contains(t, err.Error(), "tb_a, tb_b")

	top, err := ResolveTop(reg, "tb_b")
	require.NoError(t, err)
	assert.Equal(t, "tb_b", top.Name)
}
