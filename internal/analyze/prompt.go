// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package analyze

import (
	"bytes"
	"fmt"
	"text/template"
)

// Delimiter separates the five-section summary from the relevance verdict.
const Delimiter = "|||"

// analysisPromptTmpl is sent alongside the document bytes. The bracketed
// tags and the delimiter are parsed back by ParseResponse and must not change.
var analysisPromptTmpl = template.Must(template.New("analysis").Parse(`You are an AI assistant helping a researcher. Your task is to analyze the attached PDF paper and provide two outputs: an English summary divided into five specific sections, and an assessment of its relevance.

**My Research Area:**
"{{.ResearchArea}}"

**Instructions:**

1.  **Paper Summary (English):** Please summarize the paper, strictly following the five-part structure below. Use the exact tags {{range $i, $s := .Sections}}{{if $i}}, {{end}}` + "`[{{$s}}]`" + `{{end}} to label each section. Each section should be a concise paragraph.
    * ` + "`[MOTIVATION]`" + `: What problem does this research aim to solve, and why is it important?
    * ` + "`[DIFFERENCES]`" + `: How is this work different from or improving upon previous approaches?
    * ` + "`[CONTRIBUTIONS]`" + `: What are the main contributions and novel aspects of this paper?
    * ` + "`[METHOD]`" + `: What method or approach do the authors propose?
    * ` + "`[RESULTS]`" + `: What are the key results that demonstrate the effectiveness of the proposed method?

2.  **Relevance Assessment:** Please determine if the paper's contributions are directly relevant to my research area.

3.  **Output Format:** You **MUST** follow the exact format below, using "{{.Delimiter}}" as a delimiter. Do not include any additional commentary or greetings.

**Output Format:**
{{range .Sections}}[{{.}}]
... summary ...
{{end}}{{.Delimiter}}[Yes. or No.]
`))

type promptData struct {
	ResearchArea string
	Sections     []string
	Delimiter    string
}

// renderPrompt fills the analysis prompt with the researcher's interest.
func renderPrompt(researchArea string) (string, error) {
	sections := make([]string, len(sectionOrder))
	for i, s := range sectionOrder {
		sections[i] = string(s)
	}

	var buf bytes.Buffer
	err := analysisPromptTmpl.Execute(&buf, promptData{
		ResearchArea: researchArea,
		Sections:     sections,
		Delimiter:    Delimiter,
	})
	if err != nil {
		return "", fmt.Errorf("executing prompt template: %w", err)
	}
	return buf.String(), nil
}
