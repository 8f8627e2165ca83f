package driver

// IndexQueries are run once at start-up.
var IndexQueries = []string{
	"CREATE INDEX ON :Facility(id);",
	"CREATE INDEX ON :Region(name);",
	"CREATE INDEX ON :Gap(name);",
	"CREATE INDEX ON :Equipment(name);",
	"CREATE INDEX ON :Specialty(name);",
}

const (
	SaveFacilityQuery = `
		MERGE (f:Facility {id: $id})
		SET f.name = $name,
			f.report_date = $report_date,
			f.text = $text,
			f.lat = $lat,
			f.lng = $lng,
			f.beds = $beds,
			f.verified = $verified,
			f.confidence = $confidence,
			f.updated_at = $updated_at
		MERGE (r:Region {name: $region})
		MERGE (f)-[:LOCATED_IN]->(r)
		RETURN f.id AS id
	`

	LinkGapsQuery = `
		MATCH (f:Facility {id: $id})
		UNWIND $gaps AS gap
		MERGE (g:Gap {name: gap})
		MERGE (f)-[:LACKS]->(g)
	`

	LinkEquipmentQuery = `
		MATCH (f:Facility {id: $id})
		UNWIND $equipment AS item
		MERGE (e:Equipment {name: item.name})
		MERGE (f)-[h:HAS_EQUIPMENT]->(e)
		SET h.status = item.status
	`

	LinkSpecialtiesQuery = `
		MATCH (f:Facility {id: $id})
		UNWIND $specialties AS specialty
		MERGE (s:Specialty {name: specialty})
		MERGE (f)-[:OFFERS]->(s)
	`

	RegionGapsQuery = `
		MATCH (f:Facility)-[:LOCATED_IN]->(r:Region)
		OPTIONAL MATCH (f)-[:LACKS]->(g:Gap)
		RETURN r.name AS region, count(DISTINCT f) AS facilities, collect(DISTINCT g.name) AS gaps
		ORDER BY region
	`

	FacilitiesWithGapQuery = `
		MATCH (f:Facility)-[:LACKS]->(g:Gap)
		WHERE toLower(g.name) CONTAINS toLower($gap)
		MATCH (f)-[:LOCATED_IN]->(r:Region)
		RETURN DISTINCT f.id AS id, f.name AS name, r.name AS region, g.name AS gap
		ORDER BY name
	`
)
