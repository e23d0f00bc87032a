package script

import "strings"

const lecturePromptTemplate = `You are a podcast script writer. Convert the following content into an educational lecture-style dialogue between a Teacher (Speaker 1) and a Student (Speaker 2).

The Teacher should explain the concepts clearly and engagingly.
The Student should ask clarifying questions and show understanding.

Rules:
- Use exactly this format: "Speaker 1: [text]" or "Speaker 2: [text]"
- Keep each speaker's turn to 1-3 sentences
- Make it sound natural and conversational
- Total length: 8-12 exchanges

Content to convert:
{{SOURCE}}

Generate the podcast script:`

// LecturePrompt embeds the source text in the fixed lecture prompt.
func LecturePrompt(sourceText string) string {
	return strings.Replace(lecturePromptTemplate, "{{SOURCE}}", sourceText, 1)
}
