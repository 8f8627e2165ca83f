// Package graph mirrors discovered facility reports into a Memgraph property graph
// (Facility, Region, Gap, Equipment, Specialty) and answers cross-run gap queries.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/meddesert/internal/core/model"
	"github.com/agenthands/meddesert/internal/driver"
)

type ReportGraph struct {
	Driver driver.GraphDriver
	Logger logrus.FieldLogger
	now    func() time.Time
}

func NewReportGraph(d driver.GraphDriver, logger logrus.FieldLogger) *ReportGraph {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ReportGraph{Driver: d, Logger: logger, now: time.Now}
}

func (g *ReportGraph) BuildIndices(ctx context.Context) error {
	return g.Driver.BuildIndices(ctx)
}

// SaveReports upserts every report with its region, gaps, equipment and specialties.
func (g *ReportGraph) SaveReports(ctx context.Context, reports []model.HospitalReport) error {
	for _, r := range reports {
		if err := g.saveReport(ctx, r); err != nil {
			return fmt.Errorf("failed to save facility %s: %w", r.FacilityName, err)
		}
	}
	g.Logger.WithField("count", len(reports)).Debug("Saved reports to graph")
	return nil
}

func (g *ReportGraph) saveReport(ctx context.Context, r model.HospitalReport) error {
	params := map[string]interface{}{
		"id":          r.ID,
		"name":        r.FacilityName,
		"region":      r.Region,
		"report_date": r.ReportDate,
		"text":        r.UnstructuredText,
		"lat":         nil,
		"lng":         nil,
		"beds":        nil,
		"verified":    false,
		"confidence":  nil,
		"updated_at":  g.now().UTC(),
	}
	if loc, ok := r.Location(); ok {
		params["lat"] = loc.Lat
		params["lng"] = loc.Lng
	}
	data := r.ExtractedData
	if data != nil {
		params["beds"] = int64(data.Beds)
		params["verified"] = data.Verified
		params["confidence"] = data.Confidence
	}

	if _, err := g.Driver.ExecuteQuery(ctx, driver.SaveFacilityQuery, params); err != nil {
		return err
	}
	if data == nil {
		return nil
	}

	if len(data.Gaps) > 0 {
		if _, err := g.Driver.ExecuteQuery(ctx, driver.LinkGapsQuery, map[string]interface{}{
			"id":   r.ID,
			"gaps": toAny(data.Gaps),
		}); err != nil {
			return err
		}
	}
	if len(data.EquipmentList) > 0 {
		items := make([]interface{}, 0, len(data.EquipmentList))
		for _, e := range data.EquipmentList {
			items = append(items, map[string]interface{}{"name": e.Name, "status": string(e.Status)})
		}
		if _, err := g.Driver.ExecuteQuery(ctx, driver.LinkEquipmentQuery, map[string]interface{}{
			"id":        r.ID,
			"equipment": items,
		}); err != nil {
			return err
		}
	}
	if len(data.Specialties) > 0 {
		if _, err := g.Driver.ExecuteQuery(ctx, driver.LinkSpecialtiesQuery, map[string]interface{}{
			"id":          r.ID,
			"specialties": toAny(data.Specialties),
		}); err != nil {
			return err
		}
	}
	return nil
}

type RegionSummary struct {
	Region     string   `json:"region"`
	Facilities int64    `json:"facilities"`
	Gaps       []string `json:"gaps"`
}

// RegionGaps lists each region with its facility count and the distinct gaps reported there.
func (g *ReportGraph) RegionGaps(ctx context.Context) ([]RegionSummary, error) {
	result, err := g.Driver.ExecuteQuery(ctx, driver.RegionGapsQuery, nil)
	if err != nil {
		return nil, err
	}

	out := []RegionSummary{}
	for _, record := range result.Records {
		region, _ := record.Get("region")
		facilities, _ := record.Get("facilities")
		gaps, _ := record.Get("gaps")

		s := RegionSummary{Gaps: []string{}}
		s.Region, _ = region.(string)
		s.Facilities, _ = facilities.(int64)
		if list, ok := gaps.([]interface{}); ok {
			for _, v := range list {
				if name, ok := v.(string); ok {
					s.Gaps = append(s.Gaps, name)
				}
			}
		}
		out = append(out, s)
	}
	return out, nil
}

type GapMatch struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Region string `json:"region"`
	Gap    string `json:"gap"`
}

// FacilitiesWithGap finds facilities reporting a gap containing term, case-insensitively.
func (g *ReportGraph) FacilitiesWithGap(ctx context.Context, term string) ([]GapMatch, error) {
	result, err := g.Driver.ExecuteQuery(ctx, driver.FacilitiesWithGapQuery, map[string]interface{}{"gap": term})
	if err != nil {
		return nil, err
	}

	out := []GapMatch{}
	for _, record := range result.Records {
		var m GapMatch
		if v, ok := record.Get("id"); ok {
			m.ID, _ = v.(string)
		}
		if v, ok := record.Get("name"); ok {
			m.Name, _ = v.(string)
		}
		if v, ok := record.Get("region"); ok {
			m.Region, _ = v.(string)
		}
		if v, ok := record.Get("gap"); ok {
			m.Gap, _ = v.(string)
		}
		out = append(out, m)
	}
	return out, nil
}

func toAny(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
