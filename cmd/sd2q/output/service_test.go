package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*OutputManager, *bytes.Buffer) {
	t.Helper()
	var console bytes.Buffer
	om, err := NewOutputManager(t.TempDir(), zerolog.ConsoleWriter{Out: &console, NoColor: true}, zerolog.DebugLevel)
	require.NoError(t, err)
	t.Cleanup(func() { om.Close() })
	return om, &console
}

func TestWriteToJSON(t *testing.T) {
	om, _ := newTestManager(t)

	path, err := om.WriteToJSON(map[string]string{"resourceType": "Questionnaire"}, "AuCorePatient")
	require.NoError(t, err)

	assert.Equal(t, om.GetOutputPath("AuCorePatient_"+om.GetTimestamp()+".json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var decoded map[string]string
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "Questionnaire", decoded["resourceType"])
	assert.Contains(t, string(data), "\n  \"resourceType\"")
}

func TestLoggerWritesConsoleAndFile(t *testing.T) {
	om, console := newTestManager(t)

	log := om.GetLogger()
	log.Info().Msg("converted profile")
	require.NoError(t, om.Close())

	assert.Contains(t, console.String(), "converted profile")

	logged, err := os.ReadFile(om.GetOutputPath(filepath.Join("logs", "app.log")))
	require.NoError(t, err)
	assert.Contains(t, string(logged), `"message":"converted profile"`)
}

func TestWriteToJSON_Unencodable(t *testing.T) {
	om, _ := newTestManager(t)
	_, err := om.WriteToJSON(make(chan int), "broken")
	assert.Error(t, err)
}
