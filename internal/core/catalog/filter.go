package catalog

import (
	"strings"

	"github.com/agenthands/meddesert/internal/core/model"
)

// AllRegions disables the region filter.
const AllRegions = "All"

// FilterReports returns the reports whose "facilityName region" contains search
// (case-insensitive) and whose region matches. An empty search matches everything.
func FilterReports(reports []model.HospitalReport, search, region string) []model.HospitalReport {
	needle := strings.ToLower(search)
	out := make([]model.HospitalReport, 0, len(reports))
	for _, r := range reports {
		haystack := strings.ToLower(r.FacilityName + " " + r.Region)
		if !strings.Contains(haystack, needle) {
			continue
		}
		if region != "" && region != AllRegions && r.Region != region {
			continue
		}
		out = append(out, r)
	}
	return out
}

// FilterAudit keeps logs with the given status; "all" or empty keeps everything.
func FilterAudit(logs []model.AuditLog, status string) []model.AuditLog {
	out := make([]model.AuditLog, 0, len(logs))
	for _, l := range logs {
		if status == "" || status == "all" || string(l.Status) == status {
			out = append(out, l)
		}
	}
	return out
}

// Regions lists the distinct report regions in first-seen order.
func Regions(reports []model.HospitalReport) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range reports {
		if r.Region == "" || seen[r.Region] {
			continue
		}
		seen[r.Region] = true
		out = append(out, r.Region)
	}
	return out
}
