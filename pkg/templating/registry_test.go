package templating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	assert.Equal(t, []string{"j2", "jinja", "tpl", "md"}, r.Extensions())

	h, ok := r.ForExtension(".tpl")
	require.True(t, ok)
	assert.Equal(t, HandlerTypePongo2, h.Type())

	h, ok = r.ForExtension("JINJA")
	require.True(t, ok)
	assert.Equal(t, HandlerTypeGonja, h.Type())

	_, ok = r.ForExtension("erb")
	assert.False(t, ok)
}

func TestRegistry_Default(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	h, err := r.Default()
	require.NoError(t, err)
	assert.Equal(t, HandlerTypeGonja, h.Type())

	require.NoError(t, r.SetDefault(HandlerTypePongo2))
	h, err = r.Lookup("")
	require.NoError(t, err)
	assert.Equal(t, HandlerTypePongo2, h.Type())
}

func TestRegistry_Lookup(t *testing.T) {
	r, err := DefaultRegistry()
	require.NoError(t, err)

	tests := []struct {
		name     string
		expected HandlerType
	}{
		{name: "gonja", expected: HandlerTypeGonja},
		{name: "j2", expected: HandlerTypeGonja},
		{name: "Pongo2", expected: HandlerTypePongo2},
		{name: "markdown", expected: HandlerTypeMarkdown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := r.Lookup(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, h.Type())
		})
	}

	_, err = r.Lookup("erb")
	var unsupported *UnsupportedHandlerError
	require.ErrorAs(t, err, &unsupported)
	assert.Equal(t, "erb", unsupported.Handler)
}

func TestRegistry_RegisterDuplicates(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(NewPongo2Handler()))

	err := r.Register(NewPongo2Handler())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already registered")

	assert.Error(t, r.Register(nil))
}

func TestRegistry_EmptyHasNoDefault(t *testing.T) {
	r := NewRegistry()

	_, err := r.Default()
	var unsupported *UnsupportedHandlerError
	assert.ErrorAs(t, err, &unsupported)

	assert.Error(t, r.SetDefault(HandlerTypeMarkdown))
	assert.Empty(t, r.Extensions())
}

func TestParseHandlerType(t *testing.T) {
	ht, err := ParseHandlerType(" Markdown ")
	require.NoError(t, err)
	assert.Equal(t, HandlerTypeMarkdown, ht)
	assert.Equal(t, "markdown", ht.String())

	_, err = ParseHandlerType("haml")
	assert.Error(t, err)

	assert.Equal(t, "unknown", HandlerType(42).String())
}
