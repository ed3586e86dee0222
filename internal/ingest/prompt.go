package ingest

import "fmt"

// PromptVersion is part of the extraction cache key. Bump it whenever the
// system prompt or the record shape changes.
const PromptVersion = "p6-v2"

const systemPrompt = `You are an expert ESG auditor. Extract the SEBI BRSR Principle 6 (Environmental Responsibilities) disclosures from the report text supplied by the user.

Focus on:
1. Scope 1, 2 and 3 greenhouse gas emissions.
2. Water consumption and water intensity.
3. Waste generated, hazardous waste and the share of waste recycled or re-used.

Rules:
- Extract a value only when the text states it explicitly.
- When a value is not present, set "value" to null. Never guess or estimate.
- For every value you extract, copy the sentence or table row that states it into "quote" exactly as it appears in the text, and set "page" to the number of the nearest preceding [Page N] marker.
- Report the unit stated in the text in "unit". Do not convert units.
- Values are plain numbers without thousands separators. recycled_percentage is between 0 and 100.
- List other environmental initiatives the report describes in "other_initiatives" as short phrases.

Respond with a single JSON object and nothing else, using exactly this shape:
{
  "emissions": {
    "scope_1": {"value": number|null, "unit": string, "quote": string, "page": integer},
    "scope_2": {"value": number|null, "unit": string, "quote": string, "page": integer},
    "scope_3": {"value": number|null, "unit": string, "quote": string, "page": integer}
  },
  "water": {
    "total_water_consumed": {"value": number|null, "unit": string, "quote": string, "page": integer},
    "water_intensity": {"value": number|null, "unit": string, "quote": string, "page": integer}
  },
  "waste": {
    "total_waste_generated": {"value": number|null, "unit": string, "quote": string, "page": integer},
    "hazardous_waste": {"value": number|null, "unit": string, "quote": string, "page": integer},
    "recycled_percentage": {"value": number|null, "unit": string, "quote": string, "page": integer}
  },
  "other_initiatives": [string]
}
Use an empty quote and page 0 for values that are null.`

const userPromptTemplate = `Analyze the following text from the BRSR report of %s and extract the Principle 6 data:

%s`

func userPrompt(company, text string) string {
	if company == "" {
		company = "the reporting company"
	}
	return fmt.Sprintf(userPromptTemplate, company, text)
}
