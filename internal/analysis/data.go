package analysis

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"analysis-backend/internal/llm"
	"analysis-backend/internal/tabular"
)

// Analysis modes offered for tabular data.
const (
	ModePredictive    = "Predictive Classification"
	ModeClustering    = "Clustering Model"
	ModeRegression    = "Regression Model"
	ModeVisualization = "Data Visualization"
)

var modeGuidance = map[string]string{
	ModePredictive: `Propose a classification setup: a sensible target column, candidate feature columns, preprocessing for missing values and text columns, model families worth trying, and how to evaluate them. Estimate class balance from the profile.`,
	ModeClustering: `Propose a clustering approach: which numeric columns to cluster on, whether scaling or dimensionality reduction is warranted, a plausible range for the number of clusters, and how to validate cluster quality.`,
	ModeRegression: `Propose a regression setup: a sensible continuous target, candidate features and their expected influence based on the correlations, preprocessing steps, model families worth trying, and evaluation metrics.`,
	ModeVisualization: `Describe the most informative visualizations for this dataset: which distributions, comparisons, and correlation pairs to plot and what each is likely to show. Describe the charts; do not produce drawing code.`,
}

// Model aliases as presented in the UI, mapped to engine names. modelNames
// fixes the display order.
var (
	modelNames = []string{"GPT-4-Turbo", "GPT-3.5-Turbo"}

	modelAliases = map[string]string{
		"GPT-4-Turbo":   "gpt-4-turbo",
		"GPT-3.5-Turbo": "gpt-3.5-turbo",
	}
)

func ResolveModel(name string) (string, error) {
	if engine, ok := modelAliases[name]; ok {
		return engine, nil
	}
	return "", fmt.Errorf("model %s not supported", name)
}

func Models() []string {
	return slices.Clone(modelNames)
}

func Modes() []string {
	return []string{ModePredictive, ModeClustering, ModeRegression, ModeVisualization}
}

const profileSampleRows = 5

// DataAnalyzer runs mode-guided analysis of a parsed table. The table never
// leaves the process; the model sees its statistical profile and a few
// sample rows.
type DataAnalyzer struct {
	llm llm.LLM
}

func NewDataAnalyzer(client llm.LLM) *DataAnalyzer {
	return &DataAnalyzer{llm: client}
}

// Analyze runs one analysis pass. Either mode names one of the guided
// pipelines, or query carries a free-form question (both may be present;
// the query is folded into the prompt).
func (a *DataAnalyzer) Analyze(ctx context.Context, table *tabular.Table, mode, query string) (string, error) {
	guidance, ok := modeGuidance[mode]
	if !ok {
		if strings.TrimSpace(query) == "" {
			return "", fmt.Errorf("unknown analysis mode %q and no query provided", mode)
		}
		mode = "Data Analysis"
		guidance = "Answer the user question using the profile."
	}

	var prompt strings.Builder
	err := dataPromptTmpl.Execute(&prompt, dataPromptFields{
		Mode:     mode,
		Guidance: guidance,
		Profile:  table.Describe(profileSampleRows),
		Query:    query,
	})
	if err != nil {
		return "", fmt.Errorf("error rendering analysis prompt: %w", err)
	}

	return a.llm.Generate(ctx, dataSystemPrompt, prompt.String())
}
