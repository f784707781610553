package narrative

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/visibility-audit/internal/model"
)

// auditOutput is the wire shape the model is instructed to return.
type auditOutput struct {
	OverallScore int `json:"overallScore"`
	Subscores    struct {
		Completeness int `json:"completeness"`
		Trust        int `json:"trust"`
		Conversion   int `json:"conversion"`
		Media        int `json:"media"`
		LocalSEO     int `json:"localSeo"`
	} `json:"subscores"`
	WhatsappTeaser string `json:"whatsappTeaser"`
	ReportMarkdown string `json:"reportMarkdown"`
}

// parseSummary decodes the model's JSON, clamps every subscore to [0, 20]
// and re-derives the overall score as the clamped sum. The model's own
// overallScore is never trusted, even when present and consistent.
func parseSummary(text string) (*model.ScoreSummary, error) {
	cleaned := stripFences(text)

	var out auditOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return nil, eris.Wrap(ErrGenerationFailed, err.Error())
	}

	subs := model.Subscores{
		Completeness: clamp(out.Subscores.Completeness, 0, 20),
		Trust:        clamp(out.Subscores.Trust, 0, 20),
		Conversion:   clamp(out.Subscores.Conversion, 0, 20),
		Media:        clamp(out.Subscores.Media, 0, 20),
		LocalSEO:     clamp(out.Subscores.LocalSEO, 0, 20),
	}

	return &model.ScoreSummary{
		OverallScore: clamp(subs.Sum(), 0, 100),
		Subscores:    subs,
		Teaser:       out.WhatsappTeaser,
		Narrative:    out.ReportMarkdown,
	}, nil
}

// stripFences removes markdown code fences the model sometimes wraps
// around its JSON.
func stripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
