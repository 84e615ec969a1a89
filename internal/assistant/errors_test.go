package assistant

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestKindOfThroughWrapping(t *testing.T) {
	base := newToolExecutionError("get_stock_price", errors.New("boom"))
	wrapped := fmt.Errorf("query: %w", base)

	assert.Equal(t, ErrToolExecution, KindOf(wrapped))
	assert.Equal(t, ErrUnknown, KindOf(errors.New("plain")))
	assert.Equal(t, ErrUnknown, KindOf(nil))
	assert.Equal(t, "executing tool get_stock_price: boom", base.Error())
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "Unknown tool name: drop_table", newUnknownToolError("drop_table").Error())
	assert.Contains(t, newArgumentParseError("x", "{bad", errors.New("unexpected EOF")).Error(),
		"Invalid JSON in tool arguments: {bad: parsing failed: unexpected EOF")
	assert.Equal(t, "model call failed: timeout", newModelCallError(errors.New("timeout")).Error())
	assert.Equal(t, "connection", ErrConnection.String())
	assert.Equal(t, "model_call", ErrModelCall.String())
}
