package attendance

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSVWithTardiness(t *testing.T) {
	policy := morningShift()
	exit := MustTimeOfDay("13:00:00")
	records := []Record{
		{
			RecordID:  "r1",
			StudentID: "A1",
			Name:      "Juan Perez",
			Grade:     "1",
			Section:   "A",
			Date:      "2026-08-31",
			EntryTime: MustTimeOfDay("07:15:00"),
			ExitTime:  &exit,
		},
		{
			RecordID:  "r2",
			StudentID: "B2",
			Name:      "Maria Lopez",
			Grade:     "2",
			Section:   "B",
			Date:      "2026-08-31",
			EntryTime: MustTimeOfDay("06:58:00"),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, records, &policy))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Fecha", "Matricula", "Nombre", "Grado", "Grupo",
		"Hora Entrada", "Hora Salida", "Estado", "Minutos Retardo", "Excede Tolerancia"}, rows[0])

	assert.Equal(t, []string{"2026-08-31", "A1", "Juan Perez", "1", "A",
		"07:15:00", "13:00:00", "Complete", "15", "true"}, rows[1])

	assert.Equal(t, []string{"2026-08-31", "B2", "Maria Lopez", "2", "B",
		"06:58:00", "", "Entry only", "0", "false"}, rows[2])
}

func TestWriteCSVWithoutTardiness(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []Record{
		{StudentID: "A1", Name: "Juan", Date: "2026-08-31", EntryTime: MustTimeOfDay("07:00:00")},
	}, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Len(t, rows[0], 8)
}
