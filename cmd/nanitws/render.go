package main

import (
	"fmt"
	"io"
	"time"

	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sonirico/nanitws"
)

func renderRecord(w io.Writer, record nanitws.BirthdayRecord, now time.Time) {
	age := nanitws.CalculateAge(record.BirthDate, nanitws.DateOf(now))

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Name", "Birth date", "Theme", "Age"})
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.Append([]string{
		record.Name,
		record.BirthDate.String(),
		record.Theme.String(),
		fmt.Sprintf("%d %s", age.Value, age.DisplayText()),
	})
	table.Render()
}

func renderState(w io.Writer, state nanitws.SessionState) {
	var style color.Style
	switch state.Phase {
	case nanitws.PhaseConnected:
		style = color.New(color.FgGreen)
	case nanitws.PhaseConnecting:
		style = color.New(color.FgYellow)
	default:
		style = color.New(color.FgGray)
	}
	if state.ErrorMessage != "" {
		style = color.New(color.FgRed)
	}

	label := style.Render(fmt.Sprintf("[%s]", state.Phase))
	fmt.Fprintf(w, "%s %s\n", label, state.StatusMessage)
}
