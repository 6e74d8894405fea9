package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"analysis-backend/internal/knowledge"
	"analysis-backend/internal/llm"
)

// Legal analysis types offered for uploaded documents.
const (
	LegalContractReview  = "Contract Review"
	LegalResearch        = "Legal Research"
	LegalRiskAssessment  = "Risk Assessment"
	LegalComplianceCheck = "Compliance Check"
	LegalCustomQuery     = "Custom Query"
)

var (
	ErrUnknownAnalysisType = errors.New("unknown analysis type")
	ErrQueryRequired       = errors.New("a query is required for custom analysis")
)

type legalAgent struct {
	Name         string
	Role         string
	Instructions []string
}

var (
	legalResearcher = legalAgent{
		Name: "Legal Researcher",
		Role: "Legal research specialist",
		Instructions: []string{
			"Find and cite relevant legal cases and precedents",
			"Provide detailed research summaries with sources",
			"Reference specific sections from the uploaded document",
		},
	}
	contractAnalyst = legalAgent{
		Name: "Contract Analyst",
		Role: "Contract analysis specialist",
		Instructions: []string{
			"Review contracts thoroughly",
			"Identify key terms and potential issues",
			"Reference specific clauses from the document",
		},
	}
	legalStrategist = legalAgent{
		Name: "Legal Strategist",
		Role: "Legal strategy specialist",
		Instructions: []string{
			"Develop comprehensive legal strategies",
			"Provide actionable recommendations",
			"Consider both risks and opportunities",
		},
	}
	teamLead = legalAgent{
		Name: "Legal Team Lead",
		Role: "Legal team coordinator",
		Instructions: []string{
			"Coordinate analysis between team members",
			"Provide comprehensive responses",
			"Ensure all recommendations are properly sourced",
			"Reference specific parts of the uploaded document",
		},
	}
)

type analysisConfig struct {
	Query  string
	Agents []legalAgent
}

var analysisConfigs = map[string]analysisConfig{
	LegalContractReview: {
		Query:  "Review this contract and identify key terms, obligations, and potential issues.",
		Agents: []legalAgent{contractAnalyst},
	},
	LegalResearch: {
		Query:  "Research relevant cases and precedents related to this document.",
		Agents: []legalAgent{legalResearcher},
	},
	LegalRiskAssessment: {
		Query:  "Analyze potential legal risks and liabilities in this document.",
		Agents: []legalAgent{contractAnalyst, legalStrategist},
	},
	LegalComplianceCheck: {
		Query:  "Check this document for regulatory compliance issues.",
		Agents: []legalAgent{legalResearcher, contractAnalyst, legalStrategist},
	},
	LegalCustomQuery: {
		Agents: []legalAgent{legalResearcher, contractAnalyst, legalStrategist},
	},
}

func AnalysisTypes() []string {
	return []string{
		LegalContractReview,
		LegalResearch,
		LegalRiskAssessment,
		LegalComplianceCheck,
		LegalCustomQuery,
	}
}

// Retriever supplies document context for the agents. Satisfied by
// knowledge.Base.
type Retriever interface {
	Search(ctx context.Context, sessionID uuid.UUID, query string, limit int) ([]knowledge.Result, error)
}

// LegalReport is the composed team output: the lead's analysis plus the two
// follow-up passes.
type LegalReport struct {
	Analysis        string `json:"analysis"`
	KeyPoints       string `json:"key_points"`
	Recommendations string `json:"recommendations"`
}

const retrievalLimit = 5

type specialistReport struct {
	Agent   string
	Content string
}

// LegalTeam runs the multi-agent review: each focus agent answers over
// retrieved document context, and the team lead composes their findings.
type LegalTeam struct {
	llm       llm.LLM
	retriever Retriever
}

func NewLegalTeam(client llm.LLM, retriever Retriever) *LegalTeam {
	return &LegalTeam{llm: client, retriever: retriever}
}

func (a legalAgent) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, a %s.\nInstructions:\n", a.Name, a.Role)
	for _, inst := range a.Instructions {
		fmt.Fprintf(&b, "- %s\n", inst)
	}
	b.WriteString("Respond in markdown.")
	return b.String()
}

func (t *LegalTeam) Analyze(ctx context.Context, sessionID uuid.UUID, analysisType, query string) (*LegalReport, error) {
	config, ok := analysisConfigs[analysisType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAnalysisType, analysisType)
	}

	taskQuery := config.Query
	if analysisType == LegalCustomQuery {
		if strings.TrimSpace(query) == "" {
			return nil, ErrQueryRequired
		}
		taskQuery = query
	}

	excerpts, err := t.retriever.Search(ctx, sessionID, taskQuery, retrievalLimit)
	if err != nil {
		return nil, fmt.Errorf("error retrieving document context: %w", err)
	}
	contextTexts := make([]string, len(excerpts))
	for i, excerpt := range excerpts {
		contextTexts[i] = excerpt.Text
	}

	var prompt strings.Builder
	if err := specialistPromptTmpl.Execute(&prompt, specialistPromptFields{Query: taskQuery, Context: contextTexts}); err != nil {
		return nil, fmt.Errorf("error rendering specialist prompt: %w", err)
	}

	reports := make([]specialistReport, 0, len(config.Agents))
	for _, agent := range config.Agents {
		content, err := t.llm.Generate(ctx, agent.systemPrompt(), prompt.String())
		if err != nil {
			return nil, fmt.Errorf("agent %s failed: %w", agent.Name, err)
		}
		reports = append(reports, specialistReport{Agent: agent.Name, Content: content})
	}

	var leadPrompt strings.Builder
	if err := teamLeadPromptTmpl.Execute(&leadPrompt, teamLeadPromptFields{Query: taskQuery, Reports: reports}); err != nil {
		return nil, fmt.Errorf("error rendering team lead prompt: %w", err)
	}

	analysis, err := t.llm.Generate(ctx, teamLead.systemPrompt(), leadPrompt.String())
	if err != nil {
		return nil, fmt.Errorf("team lead failed: %w", err)
	}

	keyPoints, err := t.llm.Generate(ctx, teamLead.systemPrompt(), keyPointsPrompt+analysis)
	if err != nil {
		return nil, fmt.Errorf("key points pass failed: %w", err)
	}

	recommendations, err := t.llm.Generate(ctx, teamLead.systemPrompt(), recommendationsPrompt+analysis)
	if err != nil {
		return nil, fmt.Errorf("recommendations pass failed: %w", err)
	}

	return &LegalReport{
		Analysis:        analysis,
		KeyPoints:       keyPoints,
		Recommendations: recommendations,
	}, nil
}
