package al

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvLogLevelDefaultsToInfo(t *testing.T) {
	t.Setenv("ALSOFT_LOGLEVEL", "")
	assert.Equal(t, 3, envLogLevel())
}

func TestEnvLogLevelParsesValidRange(t *testing.T) {
	t.Setenv("ALSOFT_LOGLEVEL", "5")
	assert.Equal(t, 5, envLogLevel())
}

func TestEnvLogLevelFallsBackOnOutOfRangeOrGarbage(t *testing.T) {
	t.Setenv("ALSOFT_LOGLEVEL", "99")
	assert.Equal(t, 3, envLogLevel())

	t.Setenv("ALSOFT_LOGLEVEL", "not-a-number")
	assert.Equal(t, 3, envLogLevel())
}

func TestEnvDriversParsesOrderAndExclusions(t *testing.T) {
	t.Setenv("ALSOFT_DRIVERS", "pulse, -oss,alsa")
	order, excluded := envDrivers()
	assert.Equal(t, []string{"pulse", "alsa"}, order)
	assert.True(t, excluded["oss"])
	assert.False(t, excluded["alsa"])
}

func TestEnvDriversEmptyReturnsNils(t *testing.T) {
	t.Setenv("ALSOFT_DRIVERS", "")
	order, excluded := envDrivers()
	assert.Nil(t, order)
	assert.Nil(t, excluded)
}

func TestEnvBoolRecognizesTruthyVariants(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", "on", "yes"} {
		t.Setenv("ALCORE_TEST_BOOL", v)
		assert.Truef(t, envBool("ALCORE_TEST_BOOL"), "expected %q to be truthy", v)
	}
	for _, v := range []string{"0", "false", "", "nope"} {
		t.Setenv("ALCORE_TEST_BOOL", v)
		assert.Falsef(t, envBool("ALCORE_TEST_BOOL"), "expected %q to be falsy", v)
	}
}

func TestEnvTrapALErrorFallsBackToGlobalTrap(t *testing.T) {
	t.Setenv("ALSOFT_TRAP_ERROR", "1")
	t.Setenv("ALSOFT_TRAP_AL_ERROR", "")
	assert.True(t, envTrapALError())
}

func TestEnvSuspendContextIgnoredIsCaseInsensitive(t *testing.T) {
	t.Setenv("__ALSOFT_SUSPEND_CONTEXT", "IGNORE")
	assert.True(t, envSuspendContextIgnored())

	t.Setenv("__ALSOFT_SUSPEND_CONTEXT", "")
	assert.False(t, envSuspendContextIgnored())
}
