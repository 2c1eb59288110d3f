package attendance

import (
	"encoding/csv"
	"io"
	"strconv"
)

// WriteCSV writes the record set as CSV, one row per record. When a policy
// is given, tardiness columns are appended with the tolerance flag
// recomputed from the raw entry time, consistent with weekly aggregation.
// A nil policy omits the columns (tardiness tracking inactive).
func WriteCSV(w io.Writer, records []Record, policy *ShiftPolicy) error {
	cw := csv.NewWriter(w)

	header := []string{"Fecha", "Matricula", "Nombre", "Grado", "Grupo", "Hora Entrada", "Hora Salida", "Estado"}
	if policy != nil {
		header = append(header, "Minutos Retardo", "Excede Tolerancia")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		exit := ""
		if rec.ExitTime != nil {
			exit = rec.ExitTime.String()
		}
		row := []string{
			rec.Date,
			rec.StudentID,
			rec.Name,
			rec.Grade,
			rec.Section,
			rec.EntryTime.String(),
			exit,
			rec.Status(),
		}
		if policy != nil {
			cls := policy.Classify(rec.EntryTime)
			row = append(row,
				strconv.Itoa(cls.MinutesLate),
				strconv.FormatBool(cls.ExceedsTolerance))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
