package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentStore(t *testing.T) {
	store := NewDocumentStore()
	assert.Nil(t, store.Get("file:///a.py"))

	require.True(t, store.Put(&Document{URI: "file:///b.py", Version: 1}))
	require.True(t, store.Put(&Document{URI: "file:///a.py", Version: 1}))
	assert.Equal(t, []string{"file:///a.py", "file:///b.py"}, store.URIs())

	require.True(t, store.Put(&Document{URI: "file:///a.py", Version: 3, Text: []byte("x")}))
	assert.False(t, store.Put(&Document{URI: "file:///a.py", Version: 2}))
	assert.Equal(t, int32(3), store.Get("file:///a.py").Version)

	store.Remove("file:///a.py")
	assert.Nil(t, store.Get("file:///a.py"))
	assert.Equal(t, []string{"file:///b.py"}, store.URIs())
}
