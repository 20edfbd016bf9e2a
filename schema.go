package topicquiz

// Schema names the structured shape a provider must return
type Schema struct {
	Name        string
	Description string
	Definition  map[string]interface{}
}

// QuizSetSchema is the JSON schema of a generated quiz.
var QuizSetSchema = &Schema{
	Name:        "submit_quiz",
	Description: "Submit the generated multiple choice quiz",
	Definition: map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"questions": map[string]interface{}{
				"type":        "array",
				"minItems":    QuestionsPerQuiz,
				"maxItems":    QuestionsPerQuiz,
				"description": "Exactly 5 quiz questions",
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"question": map[string]interface{}{
							"type":        "string",
							"description": "The question text",
						},
						"options": map[string]interface{}{
							"type":        "array",
							"minItems":    OptionsPerQuestion,
							"maxItems":    OptionsPerQuestion,
							"items":       map[string]interface{}{"type": "string"},
							"description": "Exactly 4 answer options",
						},
						"correct_index": map[string]interface{}{
							"type":        "integer",
							"minimum":     0,
							"maximum":     OptionsPerQuestion - 1,
							"description": "Index (0-3) of the correct answer",
						},
						"reasoning": map[string]interface{}{
							"type":        "array",
							"minItems":    OptionsPerQuestion,
							"maxItems":    OptionsPerQuestion,
							"items":       map[string]interface{}{"type": "string"},
							"description": "Exactly 4 explanations, one for each option explaining why it's correct or incorrect",
						},
					},
					"required": []string{"question", "options", "correct_index", "reasoning"},
				},
			},
		},
		"required": []string{"questions"},
	},
}
