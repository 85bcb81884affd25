package openai

const entityResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "persons": {"type": "array", "items": {"type": "string"}},
    "organizations": {"type": "array", "items": {"type": "string"}},
    "places": {"type": "array", "items": {"type": "string"}},
    "dates": {"type": "array", "items": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}},
    "amounts": {"type": "array", "items": {"type": "string"}},
    "legal_refs": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["persons", "organizations", "places", "dates", "amounts", "legal_refs"],
  "additionalProperties": false
}`

const entityPromptTemplate = `Analyze the given legal document text and extract the relevant entities as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "dates" entries use the YYYY-MM-DD format.
- "amounts" entries use the EUR locale format with "." as thousands separator and "," as decimal separator, e.g. "1.234,56".
- "legal_refs" entries are normative references such as "art. 633 c.p.c." or "articolo 2043 del codice civile".
- Include only entities that appear in the text. Do not hallucinate.
- If a category has no entities, return an empty array for it.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "Con ricorso ex art. 633 c.p.c., Mario Rossi chiedeva a Beta S.r.l. il pagamento di EUR 1.234,56 presso il Tribunale di Milano in data 2023-01-15."
Output:
{
  "persons": ["Mario Rossi"],
  "organizations": ["Beta S.r.l.", "Tribunale di Milano"],
  "places": ["Milano"],
  "dates": ["2023-01-15"],
  "amounts": ["1.234,56"],
  "legal_refs": ["art. 633 c.p.c."]
}`

const classifyPromptTemplate = `Classify the given legal document text into exactly one of the following categories: %s.

Output ONLY the category label, lowercase, with no punctuation, explanation, or any other text.

Category guide:
- decree: court decrees, including payment decrees ("decreto", "decreto ingiuntivo").
- injunction: injunction orders ("ingiunzione", "ordinanza ingiuntiva").
- judgment: court judgments ("sentenza").
- expert-report: technical or medical expert reports ("perizia", "CTU").
- other: anything that fits none of the above.`

const summaryPrompt = `Summarize the following legal document text concisely and effectively, highlighting:
- The main subject
- The parties involved
- The principal decisions or conclusions
- The relevant dates

Answer in the language of the document. Maximum 250 words. Output only the summary.

Text:
`

const queryResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "search_text": {"type": "string"},
    "doc_type": {"type": "string"},
    "date_range": {
      "type": "object",
      "properties": {
        "start": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"},
        "end": {"type": "string", "pattern": "^\\d{4}-\\d{2}-\\d{2}$"}
      }
    },
    "entities": {
      "type": "object",
      "properties": {
        "persons": {"type": "array", "items": {"type": "string"}},
        "organizations": {"type": "array", "items": {"type": "string"}},
        "places": {"type": "array", "items": {"type": "string"}}
      }
    }
  },
  "required": ["search_text"],
  "additionalProperties": false
}`

const queryPromptTemplate = `Analyze the given natural-language search query over a corpus of legal documents and extract the search parameters as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- "search_text" is the free-text portion to search for; it is required. If the whole query is a filter, repeat the query verbatim.
- "doc_type" must be one of: %s. Omit it when the query does not name a document type.
- "date_range" bounds the upload date. Omit it, or either bound, when not specified.
- "entities" lists persons, organizations, or places that results must mention. Omit empty categories.
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "sentenze del 2023 che riguardano Mario Rossi"
Output:
{
  "search_text": "Mario Rossi",
  "doc_type": "judgment",
  "date_range": {"start": "2023-01-01", "end": "2023-12-31"},
  "entities": {"persons": ["Mario Rossi"]}
}`
