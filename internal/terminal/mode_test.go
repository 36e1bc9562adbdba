package terminal

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestModeSuppression(t *testing.T) {
	assert.False(t, Passive.Suppressed())
	for _, m := range []Mode{Command, AddCode, DeleteCode, FreeText, SuffixText, SelectUser, SelectRadarPing, SelectRadarFlash} {
		assert.True(t, m.Suppressed(), m.String())
	}
	assert.Equal(t, "Mode(42)", Mode(42).String())
}

func TestStatusJSON(t *testing.T) {
	in := Status{
		Mode:  SelectRadarFlash,
		Codes: []string{"b3"},
		Event: Event{Text: "No radar number: 4", Severity: SeverityFailure},
	}
	data, err := json.Marshal(in)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"mode":"SelectRadarFlash"`)
	assert.Contains(t, string(data), `"severity":"failure"`)

	var out Status
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, in, out)

	assert.Error(t, json.Unmarshal([]byte(`{"mode":"Bogus"}`), &out))
}

func TestNotifiersFanOut(t *testing.T) {
	var got []Mode
	n := Notifiers{
		NotifierFunc(func(s Status) { got = append(got, s.Mode) }),
		nil,
		NotifierFunc(func(s Status) { got = append(got, s.Mode) }),
	}
	n.Notify(Status{Mode: Command})
	assert.Equal(t, []Mode{Command, Command}, got)
}
