package export

import (
	"bytes"
	"encoding/csv"
)

func (r *Renderer) csv(entries []Entry) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		r.labels.RequirementNo,
		r.labels.RequirementText,
		r.labels.Explanation,
		r.labels.Score,
		r.labels.Recommendation,
	}
	header = append(header, r.sections...)
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, e := range entries {
		record := []string{e.RequirementNo, e.RequirementText, e.Explanation, e.Score, e.Recommendation}
		for _, heading := range r.sections {
			record = append(record, e.section(heading))
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
