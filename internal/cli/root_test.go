package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "attendance", cmd.Use)

	for _, name := range []string{"serve", "today", "export"} {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}

	configFlag := cmd.PersistentFlags().Lookup("config")
	require.NotNil(t, configFlag)
	assert.Equal(t, "c", configFlag.Shorthand)
}

// withLedger points the configuration at a temp ledger and staff list.
func withLedger(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	ledger := filepath.Join(dir, "attendance.csv")
	body := "staff_id,date,time,status,ip,distance_meters\n" +
		"A1,2024-05-01,07:00 AM,ON_TIME,10.0.0.1,3.5\n" +
		"B2,2024-05-01,09:10 AM,LATE,10.0.0.2,12\n" +
		"A1,2024-05-02,07:05 AM,ON_TIME,10.0.0.1,1\n"
	require.NoError(t, os.WriteFile(ledger, []byte(body), 0o644))

	staffFile := filepath.Join(dir, "staff_list.csv")
	require.NoError(t, os.WriteFile(staffFile, []byte("staff_id,staff_name\nA1,Ada Obi\nB2,Bola Ade\n"), 0o644))

	t.Setenv("LEDGER_DRIVER", "csv")
	t.Setenv("LEDGER_PATH", ledger)
	t.Setenv("STAFF_FILE", staffFile)
	t.Setenv("TIMEZONE", "UTC")
	return dir
}

func TestTodayCommand(t *testing.T) {
	withLedger(t)

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"today", "--date", "2024-05-01"})
	require.NoError(t, cmd.Execute())

	assert.Contains(t, out.String(), "Ada Obi")
	assert.Contains(t, out.String(), "Bola Ade")
	assert.Contains(t, out.String(), "2 signed in on 2024-05-01")
}

func TestTodayCommand_InvalidDate(t *testing.T) {
	withLedger(t)

	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"today", "--date", "yesterday"})
	assert.Error(t, cmd.Execute())
}

func TestExportCommand(t *testing.T) {
	dir := withLedger(t)
	output := filepath.Join(dir, "report.xlsx")

	cmd := NewRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"export", "-d", "2024-05-01", "-o", output})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "wrote 2 entries")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Attendance 2024-05-01")
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestResolveDate(t *testing.T) {
	d, err := resolveDate("", "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-05-06", d)

	d, err = resolveDate(" 2024-01-31 ", "2024-05-06")
	require.NoError(t, err)
	assert.Equal(t, "2024-01-31", d)

	_, err = resolveDate("31/01/2024", "2024-05-06")
	assert.Error(t, err)
}
