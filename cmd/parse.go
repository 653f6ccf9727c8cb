package main

import (
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AveryRegier/actsix/internal/contactlog"
	"github.com/AveryRegier/actsix/internal/model"
	"github.com/AveryRegier/actsix/internal/notes"
)

var (
	parseNotesText  string
	parseNotesFile  string
	parseRosterPath string
	parseMembers    string
	parseAssigned   string
	parseLastDate   string
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Split a single note into dated segments without touching the store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if err := cfg.Validate("parse"); err != nil {
			return err
		}
		loc, err := cfg.Import.Location()
		if err != nil {
			return err
		}

		text := parseNotesText
		if parseNotesFile != "" {
			data, err := os.ReadFile(parseNotesFile)
			if err != nil {
				return eris.Wrap(err, "read notes file")
			}
			text = string(data)
		}

		var roster []model.Person
		if parseRosterPath != "" {
			roster, err = loadRoster(parseRosterPath)
			if err != nil {
				return err
			}
		}

		in := parseInput{
			Notes:           text,
			Roster:          roster,
			Members:         membersFromNames(parseMembers),
			Assigned:        parseAssigned,
			LastContactDate: parseLastDate,
		}
		return parseNotes(cmd.OutOrStdout(), notes.NewDateParser(loc), in)
	},
}

// parseInput is one note plus the people needed to attribute it.
type parseInput struct {
	Notes           string
	Roster          []model.Person
	Members         []model.Person
	Assigned        string
	LastContactDate string
}

type parsedSegment struct {
	Date        string            `json:"date,omitempty"`
	Lead        string            `json:"lead,omitempty"`
	Summary     string            `json:"summary"`
	ContactType model.ContactType `json:"contactType"`
	Caretakers  []string          `json:"caretakers"`
	Defaulted   bool              `json:"defaulted,omitempty"`
}

// parseNotes prints the note's segments as a JSON array. Segments with no
// caretaker of their own show the assigned caretakers and are marked
// defaulted.
func parseNotes(w io.Writer, dates *notes.DateParser, in parseInput) error {
	dir := notes.NewDirectory(in.Roster)
	var assigned []model.Person
	for _, name := range notes.SplitNames(in.Assigned) {
		if p, ok := dir.Resolve(name); ok {
			assigned = append(assigned, p)
		}
	}
	dir.Override(assigned...)
	dir.ExcludeMembers(in.Members...)

	var anchor *time.Time
	if t, ok := dates.ParseLastContact(in.LastContactDate); ok {
		anchor = &t
	}

	out := []parsedSegment{}
	for _, seg := range notes.Split(notes.NewClassifier(dates, dir), in.Notes, anchor) {
		ps := parsedSegment{
			Lead:        seg.Lead,
			Summary:     seg.Summary(),
			ContactType: contactlog.ClassifyContact(seg.Summary()),
			Caretakers:  []string{},
		}
		if seg.Anchor != nil {
			ps.Date = seg.Anchor.Format(contactlog.DayLayout)
		}
		people := seg.Caretakers
		if len(people) == 0 {
			people = assigned
			ps.Defaulted = len(assigned) > 0
		}
		for _, p := range people {
			ps.Caretakers = append(ps.Caretakers, p.FullName())
		}
		out = append(out, ps)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// loadRoster reads a YAML list of caretakers.
func loadRoster(path string) ([]model.Person, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "read roster")
	}
	var roster []model.Person
	if err := yaml.Unmarshal(data, &roster); err != nil {
		return nil, eris.Wrap(err, "decode roster")
	}
	for i := range roster {
		if roster[i].ID == "" {
			roster[i].ID = roster[i].FullName()
		}
	}
	return roster, nil
}

// membersFromNames turns "Ruth Miller, Harry" into people. A single word is
// a first name.
func membersFromNames(list string) []model.Person {
	var members []model.Person
	for _, name := range notes.SplitNames(list) {
		first, last, _ := strings.Cut(name, " ")
		members = append(members, model.Person{FirstName: first, LastName: strings.TrimSpace(last)})
	}
	return members
}

func init() {
	parseCmd.Flags().StringVar(&parseNotesText, "notes", "", "note text to parse")
	parseCmd.Flags().StringVar(&parseNotesFile, "notes-file", "", "read the note text from a file")
	parseCmd.Flags().StringVar(&parseRosterPath, "caretakers", "", "YAML roster of caretakers (id, first_name, last_name)")
	parseCmd.Flags().StringVar(&parseMembers, "members", "", "household member names, e.g. \"Ruth Miller, Harry\"")
	parseCmd.Flags().StringVar(&parseAssigned, "assigned", "", "assigned caretaker name(s)")
	parseCmd.Flags().StringVar(&parseLastDate, "last-contact", "", "last contact date for text before the first date")
	parseCmd.MarkFlagsMutuallyExclusive("notes", "notes-file")
	rootCmd.AddCommand(parseCmd)
}
