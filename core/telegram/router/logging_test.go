package router

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	tele "gopkg.in/telebot.v4"
)

type lookupError struct{}

func (*lookupError) Error() string { return "lookup" }

func TestHandlerName(t *testing.T) {
	assert.Equal(t, "cmd.remind_now", handlerName("cmd", "/remind_now"))
	assert.Equal(t, "button.my_notes", handlerName("button", " My Notes "))
	assert.Equal(t, "button.unknown", handlerName("button", ""))
	assert.Equal(t, "text", handlerName("", "Text"))
}

func TestErrorCode(t *testing.T) {
	assert.Empty(t, errorCode(nil))
	assert.Equal(t, "TG_403", errorCode(fmt.Errorf("send: %w", &tele.Error{Code: 403, Description: "Forbidden"})))
	assert.Equal(t, "TIMEOUT", errorCode(fmt.Errorf("ocr: %w", context.DeadlineExceeded)))
	assert.Equal(t, "CANCELLED", errorCode(context.Canceled))
	assert.Equal(t, "LOOKUPERROR", errorCode(&lookupError{}))
	assert.Equal(t, "ERRORSTRING", errorCode(errors.New("boom")))
}
