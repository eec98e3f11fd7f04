package logsvc

import (
	"bytes"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/plany/core"
	"github.com/trezcool/plany/core/identity"
)

func TestRollbarLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewRollbarLogger(log.New(&buf, "", 0), core.NewTestConfig())

	usr := &identity.User{ID: "42", Email: "t@test.test"}
	err := errors.New("boom")

	args := logger.prepare("failed", []interface{}{err, usr, map[string]interface{}{"k": "v"}})
	assert.Equal(t, []interface{}{"failed", err, map[string]interface{}{"k": "v"}}, args)

	logger.Error("failed", err, usr)
	assert.Equal(t, "ERROR: failed\nboom\n", buf.String())
}
