package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatAmount(t *testing.T) {
	assert.Equal(t, "0", FormatAmount(0))
	assert.Equal(t, "1,200", FormatAmount(1200))
	assert.Equal(t, "-1,234,567", FormatAmount(-1234567))
	assert.Equal(t, "999", FormatAmount(999))
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "0xabc", ShortHash("0xabc"))
	assert.Equal(t, "0xfe3b55…8dbd73", ShortHash("0xfe3b557e8fb62b89f4916b721be55ceb828dbd73"))
	assert.Equal(t, "-", FormatUnix(0))
}
