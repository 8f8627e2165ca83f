package agents

import "github.com/agenthands/meddesert/internal/llm"

func equipmentListSchema(statusDesc string) *llm.Schema {
	status := llm.String()
	if statusDesc != "" {
		status = status.Describe(statusDesc)
	}
	return llm.ArrayOf(llm.Object(map[string]*llm.Schema{
		"name":   llm.String(),
		"status": status,
	}))
}

func discoverySchema() *llm.Schema {
	return llm.ArrayOf(llm.Object(map[string]*llm.Schema{
		"facilityName":     llm.String(),
		"region":           llm.String(),
		"reportDate":       llm.String(),
		"unstructuredText": llm.String().Describe("A detailed summary of the findings from the web search."),
		"coordinates":      llm.ArrayOf(llm.Number()).Describe("[latitude, longitude]"),
		"extractedData": llm.Object(map[string]*llm.Schema{
			"beds":          llm.Integer(),
			"specialties":   llm.ArrayOf(llm.String()),
			"equipmentList": equipmentListSchema(""),
			"gaps":          llm.ArrayOf(llm.String()),
			"verified":      llm.Boolean(),
			"confidence":    llm.Number(),
		}),
	}))
}

func parserSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"facilityName":  llm.String(),
		"beds":          llm.Integer(),
		"specialties":   llm.ArrayOf(llm.String()),
		"equipment":     llm.ArrayOf(llm.String()),
		"equipmentList": equipmentListSchema("Operational, Limited, or Offline"),
		"gaps":          llm.ArrayOf(llm.String()),
		"confidence":    llm.Number(),
	})
}

func matcherSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"recommendations": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"facility": llm.String(),
			"role":     llm.String(),
			"reason":   llm.String(),
			"priority": llm.String(),
		})),
	})
}

func predictorSchema() *llm.Schema {
	return llm.Object(map[string]*llm.Schema{
		"forecasts": llm.ArrayOf(llm.Object(map[string]*llm.Schema{
			"region":      llm.String(),
			"futureGap":   llm.String(),
			"probability": llm.Number(),
			"timeframe":   llm.String(),
		})),
	})
}
