package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAnxietyLevel(t *testing.T) {
	assert.Equal(t, LevelLow, ParseAnxietyLevel("Low"))
	assert.Equal(t, LevelModerate, ParseAnxietyLevel("MODERATE"))
	assert.Equal(t, LevelHigh, ParseAnxietyLevel("high"))
	assert.Equal(t, LevelExtreme, ParseAnxietyLevel("Extreme"))
	assert.Equal(t, LevelUnknown, ParseAnxietyLevel("panic"))
	assert.Equal(t, LevelUnknown, ParseAnxietyLevel(""))
}

func TestParseUserAction(t *testing.T) {
	a, err := ParseUserAction("ACCEPT")
	require.NoError(t, err)
	assert.Equal(t, ActionAccept, a)

	a, err = ParseUserAction("dismiss")
	require.NoError(t, err)
	assert.Equal(t, ActionDismiss, a)

	a, err = ParseUserAction("request_feedback")
	require.NoError(t, err)
	assert.Equal(t, ActionRequestFeedback, a)

	_, err = ParseUserAction("shrug")
	assert.Error(t, err)
}

func TestSessionDataCloneIsDeep(t *testing.T) {
	s := SessionData{
		Keystrokes:    []KeystrokeEvent{{Key: 'a'}},
		ErrorSequence: []string{"sig"},
	}
	c := s.Clone()
	c.Keystrokes[0].Key = 'z'
	c.ErrorSequence[0] = "other"

	assert.Equal(t, rune('a'), s.Keystrokes[0].Key)
	assert.Equal(t, "sig", s.ErrorSequence[0])
}
