// Package prompts holds the default prompt templates. They are seeded into
// the database at startup so operators can tune wording without a deploy;
// the dispatcher treats their contents as opaque strings.
package prompts

// Template identifiers, used as primary keys in the prompt_templates table.
const (
	IDPunctuation    = "punctuation"
	IDTranscription  = "audio_transcription"
	IDCategorization = "categorization"
	IDAnalysis       = "journal_analysis"
	IDOCR            = "ocr"
	IDChat           = "chat_persona"
	IDAnalytics      = "analytics_summary"
)

// Categories used for classifying journal entries, injected into the
// categorization template.
var JournalCategories = []string{
	"Work", "Family", "Health", "Relationships", "Personal Growth",
	"Finances", "Hobbies", "Travel", "Gratitude", "Challenges",
}

// Punctuation asks the model to add punctuation and capitalization to a raw
// transcript without changing the words. Placeholder: %s = raw text.
const Punctuation = `Please meticulously review the following raw text. Your task is to add appropriate punctuation (periods, commas, question marks, etc.), capitalization (for sentence beginnings and proper nouns), and sentence breaks to transform it into well-formatted, grammatically correct, and naturally flowing prose.
It is crucial that you preserve the original words and the core meaning of the text. Do not add or remove information.

If the input text contains lists or bullet points, ensure they are structured and formatted appropriately within the output, maintaining their original intent and hierarchy.

    Raw Text: "%s"

    Formatted Text:`

// Transcription prompts the model to transcribe an attached audio part.
const Transcription = "Transcribe the following audio file accurately."

// Categorization asks for a JSON object with sentiment, topics and
// categories. Placeholders: first %s = entry text, second %s = category list.
const Categorization = `Analyze the following journal entry:
---
%s
---
Provide the sentiment (positive, negative, neutral, mixed), 1-3 brief topics, and select categories from the following list: [%s].
Your response MUST be a valid JSON object with keys "sentiment", "topics" and "categories".`

// Analysis is the therapist-style reflection on an entry in the context of
// recent history. Placeholders: username, current entry, history context.
const Analysis = `Act as a thoughtful and reflective therapist. Your goal is to help %[1]s understand their own thoughts and feelings.

Analyze %[1]s's most recent journal entry in the context of their previous entries.
- Identify recurring themes, emotional patterns, and any notable changes or progress.
- Provide structured insights and observations.
- Pose gentle, open-ended questions to encourage deeper self-reflection.
- Maintain a supportive and non-judgmental tone.
- Do not give medical advice.
- Be concise: keep your analysis focused and avoid unnecessary verbosity.
- Address %[1]s directly and warmly.

Here is the user's data:
%[2]s
%[3]s

Analysis:`

// OCR prompts the model to extract text from an attached image part.
const OCR = "Extract text accurately from this image, preserving line breaks if possible."

// Chat is the persona preamble for the conversational mode.
// Placeholder: %s = username.
const Chat = `You are a warm, attentive journaling companion talking with %s. Answer naturally and concisely, ask at most one follow-up question, and never give medical advice.`

// Analytics asks for a short narrative over aggregate journal statistics.
// Placeholder: %s = JSON-encoded aggregates.
const Analytics = `Analyze the following user journal data and provide a brief, insightful summary.

%s`

// Defaults maps template IDs to their built-in text and category, used to
// seed the database and as fallback when a stored template is missing.
var Defaults = map[string]struct {
	Text     string
	Category string
}{
	IDPunctuation:    {Punctuation, "AI_Utility"},
	IDTranscription:  {Transcription, "AI_Utility"},
	IDCategorization: {Categorization, "AI_Analysis"},
	IDAnalysis:       {Analysis, "AI_Analysis"},
	IDOCR:            {OCR, "AI_Utility"},
	IDChat:           {Chat, "AI_Chat"},
	IDAnalytics:      {Analytics, "AI_Analysis"},
}
