package analysis

import "text/template"

type dataPromptFields struct {
	Mode     string
	Guidance string
	Profile  string
	Query    string
}

const dataPrompt = `You are assisting with the "{{ .Mode }}" analysis of a tabular dataset.

Dataset profile:
{{ .Profile }}
{{ if .Query }}
User question:
{{ .Query }}
{{ end }}
{{ .Guidance }}

Respond in markdown. Ground every statement in the profile above; do not invent columns or values.`

var dataPromptTmpl = template.Must(template.New("dataPrompt").Parse(dataPrompt))

const dataSystemPrompt = `You are an expert data analyst. You are given a statistical profile of a dataset rather than the raw data. Be precise, quantitative, and explicit about uncertainty.`

type specialistPromptFields struct {
	Query   string
	Context []string
}

const specialistPrompt = `Using the uploaded document as reference:

{{ .Query }}

Relevant document excerpts:
{{ range .Context }}---
{{ . }}
{{ end }}---

Please provide specific references from the document.`

var specialistPromptTmpl = template.Must(template.New("specialistPrompt").Parse(specialistPrompt))

type teamLeadPromptFields struct {
	Query   string
	Reports []specialistReport
}

const teamLeadPrompt = `Coordinate the findings of your team into one comprehensive response to:

{{ .Query }}

Team findings:
{{ range .Reports }}
## {{ .Agent }}
{{ .Content }}
{{ end }}

Ensure all recommendations are properly sourced and reference specific parts of the uploaded document.`

var teamLeadPromptTmpl = template.Must(template.New("teamLeadPrompt").Parse(teamLeadPrompt))

const keyPointsPrompt = `Summarize the key points from: `

const recommendationsPrompt = `Provide recommendations based on: `
