package config

// DefaultPrompts returns the built-in agent instructions. Templates are rendered with
// text/template; see the agents package for the fields each one receives.
func DefaultPrompts() Prompts {
	return Prompts{
		Discovery: `DISCOVERY_AGENT: Search the internet for real, recent reports (2024-2025) concerning health facility capabilities, equipment status (oxygen plants, dialysis, MRI, etc.), and staffing shortages in {{.Topic}}.
Provide a list of at least 5 real hospitals or health centers with specific, currently reported challenges.
The response MUST be a structured list matching our schema.`,

		Parser: `EXTRACTOR_AGENT: Parse this hospital report into structured medical capabilities. Extract specific equipment list with their operational status if mentioned.

Report: {{.Text}}`,

		Verifier: `VERIFIER_AGENT: Cross-reference the extracted data with the raw text.
Focus on verifying equipment availability like X-ray machines, MRI scanners, and surgical equipment.
Use Google Search to verify the facility "{{.FacilityName}}" and its reported capabilities.

Data: {{.Data}}
Raw: {{.Raw}}`,

		Strategist: `STRATEGIST_AGENT: Analyze regional medical deserts in {{.Region}}.
Find actual distances to nearest hubs for these facilities: {{.Facilities}}.
Synthesize a 12-month resource allocation plan based on infrastructure gaps and distances.`,

		Matcher: `MATCHER_AGENT: Based on these hospital reports and their extracted gaps, suggest optimal placements for medical professionals (Doctors, Nurses, Specialists).
Identify which hospital needs which specialty most urgently.
Reports: {{.Reports}}`,

		Predictor: `PREDICTOR_AGENT: Forecast future infrastructure needs and medical desert evolution based on these hospital reports and current trends.
Reports: {{.Reports}}`,

		Query: `QUERY_ENGINE: Answer this NGO planner query using the provided dataset and Google Search.
Query: "{{.Query}}"
Local Data: {{.Data}}`,

		Intervention: `Create a detailed tactical intervention plan for {{.FacilityName}} addressing these specific gaps: {{.Gaps}}. Include estimated costs and specialist sourcing.`,

		Chat: `CHAT_ASSISTANT: You are the planning assistant of a health infrastructure dashboard. Answer the operator briefly using the facility reports and medical desert regions below.
Question: "{{.Query}}"
Reports: {{.Reports}}
Deserts: {{.Deserts}}`,
	}
}
