package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_HasBuiltinResponders(t *testing.T) {
	reg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, []string{"finance", "hr", "dev"}, reg.IDs())
	assert.Equal(t, 3, reg.Len())

	fin, ok := reg.Lookup("finance")
	require.True(t, ok)
	assert.Equal(t, "Finance Agent", fin.Name)
	assert.NotEmpty(t, fin.Description)
	assert.NotEmpty(t, fin.Target)
}

func TestNew_RejectsDuplicateIDs(t *testing.T) {
	_, err := New(
		Responder{ID: "a", Name: "A"},
		Responder{ID: "a", Name: "A again"},
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate")
}

func TestNew_RejectsEmptyID(t *testing.T) {
	_, err := New(Responder{ID: "  ", Name: "blank"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty id")
}

func TestNew_Empty(t *testing.T) {
	_, err := New()
	assert.ErrorIs(t, err, ErrEmpty)
}

func TestNew_NameDefaultsToID(t *testing.T) {
	reg, err := New(Responder{ID: "legal"})
	require.NoError(t, err)

	resp, ok := reg.Lookup("legal")
	require.True(t, ok)
	assert.Equal(t, "legal", resp.Name)
}

func TestDisplayName_UnknownFallsBackToID(t *testing.T) {
	reg, err := New(Responder{ID: "hr", Name: "HR Agent"})
	require.NoError(t, err)

	assert.Equal(t, "HR Agent", reg.DisplayName("hr"))
	assert.Equal(t, "ghost", reg.DisplayName("ghost"))
}

func TestAll_PreservesOrder(t *testing.T) {
	reg, err := New(
		Responder{ID: "z", Name: "Zed"},
		Responder{ID: "a", Name: "Ay"},
	)
	require.NoError(t, err)

	all := reg.All()
	require.Len(t, all, 2)
	assert.Equal(t, "z", all[0].ID)
	assert.Equal(t, "a", all[1].ID)
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "responders.yaml")
	doc := `responders:
  - id: legal
    name: Legal Agent
    description: contracts and compliance
    target: app-legal
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	reg, err := Load(path)
	require.NoError(t, err)

	resp, ok := reg.Lookup("legal")
	require.True(t, ok)
	assert.Equal(t, "app-legal", resp.Target)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	reg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("responders: [unterminated"))
	require.Error(t, err)
}

func TestNilRegistry_IsSafe(t *testing.T) {
	var reg *Registry
	_, ok := reg.Lookup("x")
	assert.False(t, ok)
	assert.Equal(t, 0, reg.Len())
	assert.Nil(t, reg.All())
	assert.Equal(t, "x", reg.DisplayName("x"))
}

func TestDefaultYAML_ReturnsCopy(t *testing.T) {
	a := DefaultYAML()
	require.NotEmpty(t, a)
	a[0] = '!'
	assert.NotEqual(t, a[0], DefaultYAML()[0])
}
