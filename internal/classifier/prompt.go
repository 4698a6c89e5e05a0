package classifier

import (
	"strings"

	"intent-classifier/internal/models"
)

// BuildPrompt renders the single instruction sent to the model. Taxonomy
// entries are listed in name order so identical inputs give identical prompts.
func BuildPrompt(userInput string, intents, entities models.Taxonomy) string {
	var b strings.Builder
	b.WriteString("Extract the desired information from the following passage.\n")
	b.WriteString("Use the following list of possible intents for classification:\n")
	b.WriteString(intents.Describe())
	b.WriteString("\nUse the following list of possible entities to detect:\n")
	b.WriteString(entities.Describe())
	b.WriteString("\nUser input:\n")
	b.WriteString(userInput)
	return b.String()
}
