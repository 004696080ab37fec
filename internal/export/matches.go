package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/fadilmartias/resume-matcher/internal/model"
)

// MatchesCSV writes scored pairs as CSV with a header row, in the order
// given. Scores keep full float64 precision.
func MatchesCSV(w io.Writer, matches []model.Match) error {
	cw := csv.NewWriter(w)
	header := []string{
		"resume_id", "resume_name", "job_id", "job_title",
		"company", "department", "location", "similarity_score",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, m := range matches {
		record := []string{
			strconv.FormatUint(uint64(m.ResumeID), 10),
			m.ResumeName,
			strconv.FormatUint(uint64(m.JobID), 10),
			m.JobTitle,
			m.CompanyName,
			deref(m.Department),
			deref(m.Location),
			strconv.FormatFloat(m.SimilarityScore, 'f', -1, 64),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("writing csv record: %w", err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// MatchesJSON writes scored pairs as an indented JSON array.
func MatchesJSON(w io.Writer, matches []model.Match) error {
	if matches == nil {
		matches = []model.Match{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(matches)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
