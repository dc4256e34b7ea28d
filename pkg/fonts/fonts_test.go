package fonts

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"

	qerrors "github.com/r3d91ll/quire/pkg/errors"
)

func writeFont(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "GoRegular.ttf")
	require.NoError(t, os.WriteFile(path, goregular.TTF, 0644))
	return path
}

// -----------------------------------------------------------------------------
// Font loading
// -----------------------------------------------------------------------------

func TestParse_Metrics(t *testing.T) {
	f, err := Parse("Go", goregular.TTF)
	require.NoError(t, err)

	assert.NotEmpty(t, f.PostScriptName)
	assert.NotContains(t, f.PostScriptName, " ")
	assert.Greater(t, f.UnitsPerEm, 0)
	assert.Greater(t, f.Ascent, 0.0)
	assert.Less(t, f.Descent, 0.0)
	assert.Greater(t, f.NumGlyphs(), 100)
	assert.NotNil(t, f.NewFace())

	gid, ok := f.GlyphIndex('A')
	require.True(t, ok)
	assert.Greater(t, f.Width(gid), 0)
	assert.Equal(t, f.DefaultWidth, f.Width(-1))

	assert.False(t, f.HasRune('ب'), "Go Regular has no Arabic")
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse("junk", []byte("not a font"))
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontInvalid))

	_, err = Parse("empty", nil)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontInvalid))
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load("UrduFont", "/no/such/NotoNastaliqUrdu-Regular.ttf")
	require.Error(t, err)

	qe, ok := qerrors.AsQuireError(err)
	require.True(t, ok)
	assert.Equal(t, qerrors.ErrResourceFontMissing, qe.Code)
	assert.Equal(t, qerrors.CategoryResource, qe.Category)
	assert.Equal(t, "UrduFont", qe.Context["font"])
	assert.NotEmpty(t, qe.Suggestions)
}

// -----------------------------------------------------------------------------
// Registry
// -----------------------------------------------------------------------------

func TestRegistry_RegisterAndSeal(t *testing.T) {
	r := NewRegistry()
	path := writeFont(t)

	require.NoError(t, r.Register("UrduFont", path))
	err := r.Register("UrduFont", path)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontDuplicate))

	r.Seal()
	assert.True(t, r.Sealed())
	err = r.Register("Other", path)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceRegistrySealed))

	f, err := r.Require("UrduFont")
	require.NoError(t, err)
	assert.Equal(t, path, f.Path)
	assert.Equal(t, []string{"UrduFont"}, r.Names())
}

func TestRegistry_RequireUnknown(t *testing.T) {
	_, err := NewRegistry().Require("UrduFont")
	require.Error(t, err)
	assert.True(t, qerrors.IsCode(err, qerrors.ErrResourceFontNotRegistered))
}

func TestRegistry_ConcurrentReads(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("UrduFont", writeFont(t)))
	r.Seal()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f, ok := r.Get("UrduFont")
			assert.True(t, ok)
			assert.True(t, f.HasRune('x'))
		}()
	}
	wg.Wait()
}
