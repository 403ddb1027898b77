package openai

import "fmt"

const summaryPromptTemplate = `You summarize presentation slide content for a search catalog.

You will receive the raw text of one slide: its title, body text, and speaker
notes. Write a neutral prose summary of what the slide conveys.

Rules:
- At most %d words, one to three sentences.
- Describe the slide's content; never quote numbers, names, or figures verbatim
  when a general description carries the meaning.
- No preamble, no bullet points, no markdown. Output the summary text only.
- If the slide text is trivial (a section divider, a lone title), summarize it
  in one short sentence.

Example:
Input: "Q3 Revenue
Up 12%% quarter over quarter
Driven by enterprise renewals"
Output: Quarterly revenue results showing double-digit growth, attributed to enterprise renewals.`

// buildSummaryPrompt creates the system prompt with the word cap embedded.
func buildSummaryPrompt(maxWords int) string {
	return fmt.Sprintf(summaryPromptTemplate, maxWords)
}
