package log

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestWithComponentAndSession(t *testing.T) {
	l := WithSession(WithComponent("session"), "s1")
	assert.NotEqual(t, zerolog.Disabled, l.GetLevel())
	assert.NotNil(t, WhatsApp("client"))
}
