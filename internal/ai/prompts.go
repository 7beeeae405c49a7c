package ai

import (
	"fmt"
	"unicode/utf8"
)

// maxLessonContext bounds how much lesson text is quoted back into the quiz
// prompt. Callers must not assume the whole lesson is preserved.
const maxLessonContext = 500

// CurriculumSchema is the required shape of a generated curriculum.
var CurriculumSchema = Schema{
	Name: "curriculum",
	Document: `{
		"type": "object",
		"required": ["chapters"],
		"properties": {
			"chapters": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["title", "description"],
					"properties": {
						"title": {"type": "string"},
						"description": {"type": "string"}
					}
				}
			}
		}
	}`,
}

// QuizSchema is the required shape of a generated quiz.
var QuizSchema = Schema{
	Name: "quiz",
	Document: `{
		"type": "object",
		"required": ["questions"],
		"properties": {
			"questions": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["question", "options", "correct_answer"],
					"properties": {
						"question": {"type": "string"},
						"options": {
							"type": "object",
							"additionalProperties": {"type": "string"}
						},
						"correct_answer": {"type": "string"},
						"explanation": {"type": "string"}
					}
				}
			}
		}
	}`,
}

// CurriculumPrompt builds the prompt and schema for generating a chapter list.
func CurriculumPrompt(grade int, subject string) (string, Schema) {
	prompt := fmt.Sprintf(`Generate a fun and engaging curriculum for %s for a Grade %d student.
Create 5-8 chapters.
Each chapter should have a 'title' (fun name) and 'description'.`, subject, grade)
	return prompt, CurriculumSchema
}

// LessonPrompt builds the free-text prompt for generating a lesson body.
func LessonPrompt(title, description string, grade int) string {
	return fmt.Sprintf(`You are an expert educator creating engaging lesson content for a Grade %d student.

Chapter: %s
Description: %s

Create a fun, interactive lesson that:
1. Explains the concept in simple, kid-friendly language
2. Uses real-world examples and analogies
3. Includes 2-3 fun facts or interesting tidbits
4. Is approximately 300-500 words

Write the lesson in a conversational, encouraging tone. Use emojis sparingly to make it engaging.`, grade, title, description)
}

// QuizPrompt builds the prompt and schema for generating a multiple-choice
// quiz from a lesson. Only a bounded prefix of the lesson text is included.
func QuizPrompt(title, lessonText string, grade int) (string, Schema) {
	excerpt := lessonText
	if len(excerpt) > maxLessonContext {
		// Back up to a rune boundary: lesson bodies carry emoji, and a raw
		// byte cut can split one in half.
		cut := maxLessonContext
		for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
			cut--
		}
		excerpt = excerpt[:cut] + "..."
	}

	prompt := fmt.Sprintf(`Based on this lesson about "%s" for Grade %d students:

%s

Generate 5 multiple-choice questions to test understanding.
Each question should have:
- A clear question text
- 4 answer options (labeled A, B, C, D)
- The correct answer (letter)
- A brief explanation of why that answer is correct

Make questions fun and engaging, not too difficult.`, title, grade, excerpt)
	return prompt, QuizSchema
}
