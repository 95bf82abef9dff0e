package main

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mccorkel/mnr-hackathon-mobile/internal/auth"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/fhir"
	"github.com/mccorkel/mnr-hackathon-mobile/internal/orchestrator"
)

type viewOptions struct {
	JSON     bool
	Category string
}

type viewFunc func(w io.Writer, cycle orchestrator.Cycle, opts viewOptions) error

var views = map[string]viewFunc{
	"records":    renderRecords,
	"vitals":     renderVitals,
	"categories": renderCategories,
	"patients": func(w io.Writer, cycle orchestrator.Cycle, opts viewOptions) error {
		if opts.JSON {
			return writeJSON(w, cycle.Snapshot.Patients)
		}
		return renderPatients(w, cycle.Snapshot.Patients, "")
	},
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func renderRecords(w io.Writer, cycle orchestrator.Cycle, opts viewOptions) error {
	records := cycle.Snapshot.Records
	if opts.Category != "" {
		records = fhir.FilterByCategory(records, fhir.Category(opts.Category))
	}
	if opts.JSON {
		if records == nil {
			records = []fhir.NormalizedRecord{}
		}
		return writeJSON(w, records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No records")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tCATEGORY\tTITLE\tPROVIDER")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Date, r.Category, r.Title, r.Provider)
	}
	return tw.Flush()
}

func renderVitals(w io.Writer, cycle orchestrator.Cycle, opts viewOptions) error {
	vitals := cycle.Snapshot.Vitals
	if opts.JSON {
		if vitals == nil {
			vitals = []fhir.VitalSignSample{}
		}
		return writeJSON(w, vitals)
	}
	if len(vitals) == 0 {
		_, err := fmt.Fprintln(w, "No vitals")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VITAL\tVALUE\tDATE")
	for _, v := range vitals {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", v.DisplayName, v.Value, v.FormattedDate)
	}
	return tw.Flush()
}

func renderCategories(w io.Writer, cycle orchestrator.Cycle, opts viewOptions) error {
	if opts.JSON {
		return writeJSON(w, cycle.Snapshot.Categories)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, c := range cycle.Snapshot.Categories {
		fmt.Fprintf(tw, "%s\t%d\n", c.Category, c.Count)
	}
	return tw.Flush()
}

// renderPatients lists patients, marking the one chosen as self
func renderPatients(w io.Writer, patients []fhir.PatientIdentity, selfID string) error {
	if len(patients) == 0 {
		_, err := fmt.Fprintln(w, "No patients found")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\t")
	for _, p := range patients {
		mark := ""
		if p.ID == selfID {
			mark = "(self)"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, p.DisplayName, mark)
	}
	return tw.Flush()
}

func renderStatus(w io.Writer, st auth.Status) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Domain:\t%s\n", st.Domain)
	if !st.SignedIn {
		fmt.Fprintln(tw, "Session:\tsigned out")
		return tw.Flush()
	}
	fmt.Fprintf(tw, "Username:\t%s\n", st.Username)
	if st.SelfPatientID != "" {
		fmt.Fprintf(tw, "Self-patient:\t%s\n", st.SelfPatientID)
	} else {
		fmt.Fprintln(tw, "Self-patient:\tnot chosen, run \"fasten self\"")
	}
	if st.Token != nil && !st.Token.ExpiresAt.IsZero() {
		state := "valid"
		if st.Token.Expired {
			state = "expired"
		}
		fmt.Fprintf(tw, "Token:\t%s until %s\n", state, st.Token.ExpiresAt.Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}
