package semdiff

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

const analysisTemplate = `You are an expert at analyzing changes to LLM prompts. Your task is to analyze the semantic differences between two versions of a prompt and provide a structured analysis.

## OLD PROMPT:
` + "```" + `
%s
` + "```" + `

## NEW PROMPT:
` + "```" + `
%s
` + "```" + `

## INSTRUCTIONS:
Analyze the changes between these two prompts. Focus on:
1. **Intent Changes**: Has the purpose or goal of the prompt changed?
2. **Scope Changes**: Has the coverage or range of tasks changed?
3. **Constraint Changes**: Have any requirements, limitations, or rules changed?
4. **Tone Changes**: Has the style, voice, or manner changed?
5. **Structure Changes**: Has the format, organization, or layout changed?
6. **Breaking Changes**: Are there changes that would break existing usage?

## OUTPUT FORMAT:
Return your analysis as a JSON object with the following structure:
{
    "intent_changes": [
        {"description": "string", "severity": "low|medium|high"}
    ],
    "scope_changes": [
        {"description": "string", "severity": "low|medium|high"}
    ],
    "constraint_changes": [
        {"description": "string", "severity": "low|medium|high"}
    ],
    "tone_changes": [
        {"description": "string", "severity": "low|medium|high"}
    ],
    "structure_changes": [
        {"description": "string", "severity": "low|medium|high"}
    ],
    "breaking_changes": ["string describing each breaking change"],
    "summary": "A concise paragraph summarizing the overall changes"
}

If a category has no changes, return an empty array for that category. Be specific and descriptive in your analysis.`

func buildAnalysisPrompt(oldPrompt, newPrompt string) string {
	return fmt.Sprintf(analysisTemplate, oldPrompt, newPrompt)
}

var (
	fencedJSONPattern = regexp.MustCompile("```(?:json)?\\s*\\n?(\\{[\\s\\S]*?\\})\\s*```")
	bareJSONPattern   = regexp.MustCompile(`(\{[\s\S]*\})`)
)

// parseAnalysisResponse extracts the JSON object from a model reply, which
// may arrive fenced in a markdown code block or surrounded by prose. An
// unparseable reply degrades to a result carrying the raw text rather than
// failing the whole analysis.
func parseAnalysisResponse(response string) map[string]any {
	text := response
	if m := fencedJSONPattern.FindStringSubmatch(text); m != nil {
		text = strings.TrimSpace(m[1])
	} else if !strings.HasPrefix(strings.TrimSpace(text), "{") {
		if m := bareJSONPattern.FindStringSubmatch(text); m != nil {
			text = strings.TrimSpace(m[1])
		}
	}

	var result map[string]any
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		fallback := emptyAnalysis(fmt.Sprintf("Could not parse LLM response: %v", err))
		fallback["raw_response"] = response
		return fallback
	}
	return result
}
