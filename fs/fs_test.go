package appfs

import (
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS(t *testing.T) {
	for _, name := range []string{
		"assets/templates/email/_base.txt",
		"assets/templates/email/_base.gohtml",
		"assets/templates/email/welcome.txt",
	} {
		t.Run(name, func(t *testing.T) {
			data, err := fs.ReadFile(FS, name)
			require.NoError(t, err)
			assert.NotEmpty(t, data)
		})
	}

	migrations, err := fs.Glob(FS, "migrations/*.sql")
	require.NoError(t, err)
	assert.NotEmpty(t, migrations)
}
