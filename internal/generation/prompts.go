package generation

import "fmt"

// DefaultAnswerWords is the target explanation length.
const DefaultAnswerWords = 100

// ImagePrompt asks the model for a short image-generator prompt.
func ImagePrompt(topic string) string {
	return fmt.Sprintf(`Create a simple, descriptive prompt for an AI image generator on the topic of "%s". The prompt should be a short phrase, like "A photorealistic image of..." or "An oil painting of...".`, topic)
}

// AnswerPrompt asks the model for a plain explanation of about words words.
func AnswerPrompt(topic string, words int) string {
	if words <= 0 {
		words = DefaultAnswerWords
	}
	return fmt.Sprintf(`Explain the topic "%s" in a clear and simple way, in about %d words.`, topic, words)
}
