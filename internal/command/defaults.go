package command

// DefaultBaseCommand is the command word applied when the clipboard carries no trailing token.
const DefaultBaseCommand = "fix"

// DefaultCatalog returns the built-in rewrites shipped with a fresh config.
func DefaultCatalog() Catalog {
	return Catalog{
		{
			Name:         "Fix",
			Word:         "fix",
			Instructions: "Fix spelling errors, grammar, formatting and capitalization; don't change content and style.",
		},
		{
			Name:         "Improve",
			Word:         "improve",
			Instructions: "Improve the text to enhance its writing quality while maintaining its original meaning and intent.",
		},
		{
			Name:         "Explain",
			Word:         "explain",
			Instructions: "Explain the code/text in a clear and concise language.",
		},
		{
			Name:         "Translate to english",
			Word:         "entranslate",
			Instructions: "Translate the text to english.",
		},
		{
			Name:         "Shorten",
			Word:         "short",
			Instructions: "Rewrite the text in a shorter, more concise form without losing key ideas. Maintain the original narrative perspective (e.g., first person if used).",
		},
		{
			Name: "Work",
			Word: "work",
			Instructions: "Rewrite the following message to be clear and collaborative. Fix all spelling, grammar, formatting, and capitalization issues. " +
				"Avoid blame, defensiveness, or retrospective justifications (e.g., references to having warned or said something before), unless strictly necessary, while keeping the original meaning intact. " +
				"Where appropriate, introduce a gently positive and constructive undertone, emphasizing collaboration, openness, and forward momentum. " +
				"If the message sounds overly pessimistic, make it slightly more uplifting without exaggeration or artificial optimism. " +
				"You can even add a touch of humor to handle difficult situations. " +
				"The tone should feel human, natural and warm, suitable for a workplace slack message, email or internal communication in a relatively casual professional environment; " +
				"Avoid sounding cynical; Avoid em dashes, keep original text emojis if it makes sense to.",
		},
		{
			Name:         "Shell",
			Word:         "shell",
			Instructions: "Write a Unix shell command that performs the actions described in the text. Output only the command, with no additional text, and ensure it is ready to execute (do not include a ```bash prefix).",
		},
		{
			Name:         "SQL",
			Word:         "sql",
			Instructions: "Write an SQL query that performs the actions described in the text. Output only the query, with no additional text, and ensure it is ready to execute (do not include a ```sql prefix).",
		},
	}
}
