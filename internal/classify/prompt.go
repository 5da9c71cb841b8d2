package classify

// Prompt kinds selectable in the batch config.
const (
	PromptBaseline    = "baseline"
	PromptFewshot     = "fewshot"
	PromptReasoned    = "reasoned"
	PromptCoT         = "cot"
	PromptEnhancedCoT = "enhanced_cot"
)

const basePrompt = `You are a public-health fact-checking assistant.

Given the transcript below, do these tasks and then respond ONLY as JSON (no markdown, no prose):
1) Choose exactly one label from this set:
   [NO_MISINFO, MISINFO, DEBUNKING, CANNOT_RECOGNIZE]
2) Extract up to 10 keywords that summarize the content (list, not strings with commas).
3) Provide a confidence score between 0 and 1.
4) Provide a short explanation (2-4 sentences) describing why you chose that label.
5) Provide 1-3 exact quotes from the transcript (verbatim sentences or clauses) that most influenced your decision.

Return a single JSON object with this shape:
{
  "label": "DEBUNKING|MISINFO|NO_MISINFO|CANNOT_RECOGNIZE",
  "keywords": ["kw1","kw2", "..."],
  "confidence": 0.87,
  "explanation": "...",
  "evidence_sentences": ["...", "..."]
}
`

const fewshotSuffix = `
Here are examples to calibrate your judgement:

Example A (DEBUNKING):
Transcript: "A doctor explains that vaccines do NOT cause autism and cites CDC."
JSON: {"label":"DEBUNKING","keywords":["vaccines","autism","CDC"],"confidence":0.9}

Example B (MISINFO):
Transcript: "Drinking bleach cures infections."
JSON: {"label":"MISINFO","keywords":["bleach","cure","infections"],"confidence":0.95}

Now classify the provided transcript with the same JSON schema only.
`

const reasonedSuffix = `
Think step-by-step but only return the final JSON (do not include your reasoning).
`

const cotSuffix = `
Before deciding, reason through these steps internally:
1) What health claims does the transcript make?
2) Does each claim agree or conflict with established public-health guidance?
3) Is the speaker spreading a false claim, or correcting one?
Then return ONLY the final JSON object.
`

const enhancedCoTSuffix = `
Before deciding, reason through these steps internally:
1) List every health claim in the transcript.
2) For each claim, state whether it agrees or conflicts with established public-health guidance, and how certain you are.
3) Decide whether the speaker asserts the claims (MISINFO), refutes them (DEBUNKING), makes no health claims (NO_MISINFO), or cannot be judged (CANNOT_RECOGNIZE).
4) Set the confidence score from the weakest link in your reasoning.
Do not include the reasoning in your answer. Return ONLY the final JSON object.
`

// BuildPrompt returns the system instruction for the given prompt kind.
// Unknown kinds fall back to the baseline prompt.
func BuildPrompt(kind string) string {
	switch kind {
	case PromptFewshot:
		return basePrompt + "\n" + fewshotSuffix
	case PromptReasoned:
		return basePrompt + "\n" + reasonedSuffix
	case PromptCoT:
		return basePrompt + "\n" + cotSuffix
	case PromptEnhancedCoT:
		return basePrompt + "\n" + enhancedCoTSuffix
	default:
		return basePrompt
	}
}
