package llm

import "fmt"

// questionPromptTemplate asks for a JSON array of {"question": ...} objects.
const questionPromptTemplate = `You are an expert Java interviewer conducting interviews for college-level placement.
Generate %d Java basic interview questions. Dont ask any implementation questions. These questions should:

1. Be relevant for entry-level Java positions
2. Have continuity and flow well from one to another
3. Be at a basic to intermediate level, suitable for college graduates
4. Cover a range of fundamental Java concepts

Your response must be a valid JSON array of objects. Each object must have a 'question' key.
Do not include any additional text or formatting outside of the JSON structure.`

// evaluationPromptTemplate fixes the line layout parsed by the interview package.
const evaluationPromptTemplate = `You are an expert Java interviewer. Evaluate the candidate's answer to the following question:

Question: %s
Answer: %s

Evaluate the answer based on the following criteria:
1. Relevance (0-10)
2. Correctness (0-10)
3. Clarity (0-10)
4. Depth (0-10)

Provide a score and brief feedback for each criterion. Then give an overall score.
Format your response exactly as follows:

Relevance: [score]
Relevance Feedback: [1-2 sentence explanation]
Correctness: [score]
Correctness Feedback: [1-2 sentence explanation]
Clarity: [score]
Clarity Feedback: [1-2 sentence explanation]
Depth: [score]
Depth Feedback: [1-2 sentence explanation]
Overall Score: [average of all scores]`

// QuestionPrompt builds the question-generation prompt for n questions.
func QuestionPrompt(n int) string {
	return fmt.Sprintf(questionPromptTemplate, n)
}

// EvaluationPrompt builds the scoring prompt for a question/answer pair.
func EvaluationPrompt(question, answer string) string {
	return fmt.Sprintf(evaluationPromptTemplate, question, answer)
}
