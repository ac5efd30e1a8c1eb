package receipts

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Save(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/comprovantes/")
	require.NoError(t, err)

	url, err := store.Save("user-1", "payment-1", "recibo.PNG", strings.NewReader("fake image"))
	require.NoError(t, err)
	assert.Equal(t, "/comprovantes/user-1/payment-1.png", url)

	data, err := os.ReadFile(filepath.Join(store.Dir(), "user-1", "payment-1.png"))
	require.NoError(t, err)
	assert.Equal(t, "fake image", string(data))
}

func TestStore_Save_RejectsUnknownExtension(t *testing.T) {
	store, err := NewStore(t.TempDir(), "/comprovantes")
	require.NoError(t, err)

	_, err = store.Save("user-1", "payment-1", "recibo.exe", strings.NewReader("nope"))
	require.Error(t, err)
}
