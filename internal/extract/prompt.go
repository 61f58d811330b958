package extract

import "strings"

const SystemPrompt = "You are a helpful assistant that extracts and formats multiple-choice questions (MCQs) from text."

const extractionPrompt = `Extract the questions and options from the following text, and format them as a numbered list of questions with their options. Each question should be on a new line, preceded by its number, followed by its options (A, B, C, D) on separate lines. Here's the text:

{{TEXT}}

Format the output as follows:
1. [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]

2. [Question text]
A) [Option A]
B) [Option B]
C) [Option C]
D) [Option D]

... and so on.

Respond only with the formatted questions and options, no additional text.`

// BuildChunkPrompt embeds one chunk of extracted text into the user message.
func BuildChunkPrompt(chunkText string) string {
	return strings.Replace(extractionPrompt, "{{TEXT}}", chunkText, 1)
}
