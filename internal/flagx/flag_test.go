package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs_SeparateValue(t *testing.T) {
	args := []string{"-a", "localhost:8080", "-x", "junk", "-i", "5"}
	got := FilterArgs(args, []string{"-a", "-i"})
	assert.Equal(t, []string{"-a", "localhost:8080", "-i", "5"}, got)
}

func TestFilterArgs_EqualsForm(t *testing.T) {
	args := []string{"--config=conf.json", "--other=1", "-i=7"}
	got := FilterArgs(args, []string{"--config", "-i"})
	assert.Equal(t, []string{"--config=conf.json", "-i=7"}, got)
}

func TestFilterArgs_FlagWithoutValue(t *testing.T) {
	args := []string{"-v", "-a", "host"}
	got := FilterArgs(args, []string{"-v"})
	assert.Equal(t, []string{"-v"}, got)
}

func TestFilterArgs_Empty(t *testing.T) {
	got := FilterArgs(nil, []string{"-a"})
	assert.NotNil(t, got)
	assert.Len(t, got, 0)
}

func TestJsonConfigFlags_ReadsShortFlag(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"test", "-c", "conf.json"}
	assert.Equal(t, "conf.json", JsonConfigFlags())
}

func TestJsonConfigFlags_AbsentReturnsEmpty(t *testing.T) {
	old := os.Args
	defer func() { os.Args = old }()

	os.Args = []string{"test", "-a", "host"}
	assert.Equal(t, "", JsonConfigFlags())
}
