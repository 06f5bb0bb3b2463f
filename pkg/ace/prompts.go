package ace

import (
	"strings"
)

// Prompt templates use {name} placeholders. Only the recognized names are
// substituted, so literal braces in the JSON examples survive rendering.
//
// Generator: {playbook} {reflection} {question} {context}
// Reflector: {question} {reasoning} {prediction} {ground_truth} {feedback} {playbook_excerpt}
// Curator:   {progress} {stats} {reflection} {playbook} {question_context}

// GeneratorPromptTemplate is the default prompt for producing answers from
// the playbook.
const GeneratorPromptTemplate = `You are an expert assistant that must solve the task using the provided playbook of strategies.
Apply relevant bullets, avoid known mistakes, and show step-by-step reasoning.

Playbook:
{playbook}

Recent reflection:
{reflection}

Question:
{question}

Additional context:
{context}

Respond with a compact JSON object:
{
  "reasoning": "<step-by-step chain of thought>",
  "bullet_ids": ["<id1>", "<id2>", "..."],
  "final_answer": "<concise final answer>"
}
`

// ReflectorPromptTemplate is the default prompt for diagnosing a generator
// trajectory.
const ReflectorPromptTemplate = `You are a senior reviewer diagnosing the generator's trajectory.
Use the playbook, model reasoning, and feedback to identify mistakes and actionable insights.
Output must be a single valid JSON object. Do NOT include analysis text or explanations outside the JSON.

Question:
{question}
Model reasoning:
{reasoning}
Model prediction: {prediction}
Ground truth (if available): {ground_truth}
Feedback: {feedback}
Playbook excerpts consulted:
{playbook_excerpt}

Return JSON:
{
  "reasoning": "<analysis>",
  "error_identification": "<what went wrong>",
  "root_cause_analysis": "<why it happened>",
  "correct_approach": "<what should be done>",
  "key_insight": "<reusable takeaway>",
  "bullet_tags": [
    {"id": "<bullet-id>", "tag": "helpful|harmful|neutral"}
  ]
}
`

// CuratorPromptTemplate is the default prompt for merging a reflection into
// playbook updates.
const CuratorPromptTemplate = `You are the curator of the playbook. Merge the latest reflection into structured updates.
Only add genuinely new material. Do not regenerate the entire playbook.
Respond with a single valid JSON object only, with no analysis or extra narration.

Training progress: {progress}
Playbook stats: {stats}

Recent reflection:
{reflection}

Current playbook:
{playbook}

Question context:
{question_context}

Respond with JSON:
{
  "reasoning": "<how you decided on the updates>",
  "operations": [
    {
      "type": "ADD|UPDATE|TAG|REMOVE",
      "section": "<section name>",
      "content": "<bullet text>",
      "bullet_id": "<optional existing id>",
      "metadata": {"helpful": 1, "harmful": 0}
    }
  ]
}
If no updates are required, return an empty list for "operations".
`

// renderTemplate substitutes {name} placeholders with the given values.
func renderTemplate(template string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		pairs = append(pairs, "{"+name+"}", value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// formatOptional renders an optional text field for prompt injection.
func formatOptional(value string) string {
	if value == "" {
		return "(none)"
	}
	return value
}
