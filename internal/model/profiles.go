package model

import "github.com/wonny/edupulse/backend/internal/contracts"

// Canonical cluster ids
const (
	ClusterHighPerformers = iota
	ClusterAcademic
	ClusterFinancial
	ClusterDisengaged

	ClusterCount
)

// FallbackCluster is reported for ids outside 0..3
const FallbackCluster = ClusterDisengaged

// ⭐ SSOT: cluster reference data
var profiles = [ClusterCount]contracts.ClusterProfile{
	{
		ID:          ClusterHighPerformers,
		Name:        "High Performers",
		Description: "Students with strong academics and good engagement",
		TypicalIssues: []string{
			"May face burnout from overwork",
			"Peer pressure to maintain performance",
			"May neglect extracurriculars",
		},
		Intervention: "Maintain motivation, offer leadership opportunities, ensure work-life balance",
	},
	{
		ID:          ClusterAcademic,
		Name:        "Academic Strugglers",
		Description: "Students with low CGPA and multiple backlogs",
		TypicalIssues: []string{
			"Learning difficulties or gaps",
			"Wrong course/stream choice",
			"Lack of study skills",
			"Possible learning disabilities",
		},
		Intervention: "Academic mentoring, remedial classes, peer tutoring, study skill workshops",
	},
	{
		ID:          ClusterFinancial,
		Name:        "Financially Stressed",
		Description: "Students with pending fees and financial constraints",
		TypicalIssues: []string{
			"Family financial problems",
			"May be working part-time",
			"Stress affecting studies",
			"May skip classes for work",
		},
		Intervention: "Scholarship information, fee installment plans, work-study programs, financial counselling",
	},
	{
		ID:          ClusterDisengaged,
		Name:        "Disengaged Students",
		Description: "Low attendance, low engagement, disconnected from college",
		TypicalIssues: []string{
			"Lack of interest in course",
			"Personal or family problems",
			"Mental health issues",
			"Peer group influence",
			"Substance abuse (rare)",
		},
		Intervention: "One-on-one counselling, interest assessment, parent meeting, mental health support",
	},
}

// ClusterInfo looks up a cluster profile. Unknown ids fall back to the
// disengaged profile; the lookup never fails.
func ClusterInfo(id int) contracts.ClusterProfile {
	if id < 0 || id >= ClusterCount {
		id = FallbackCluster
	}
	p := profiles[id]
	p.TypicalIssues = append([]string(nil), p.TypicalIssues...)
	return p
}

// Profiles returns every cluster profile in id order
func Profiles() []contracts.ClusterProfile {
	out := make([]contracts.ClusterProfile, ClusterCount)
	for id := range out {
		out[id] = ClusterInfo(id)
	}
	return out
}
