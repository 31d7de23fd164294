package model

import "github.com/wonny/edupulse/backend/internal/contracts"

// =============================================================================
// Cluster id canonicalisation
// =============================================================================

// prototypes are typical students for each canonical profile. Train scales
// them with the fitted scaler and matches each one to a k-means centroid.
var prototypes = [ClusterCount]contracts.StudentSnapshot{
	ClusterHighPerformers: snapshotOf(94, 8.8, 0, false, 0, 85, 80, 1, 5),
	ClusterAcademic:       snapshotOf(80, 4.0, 4, false, 0, 32, 52, 1, 4),
	ClusterFinancial:      snapshotOf(76, 6.4, 0, true, 80000, 60, 55, 0, 4),
	ClusterDisengaged:     snapshotOf(45, 6.0, 0, false, 0, 40, 10, 0, 4),
}

func snapshotOf(attendance, cgpa float64, backlogs int, feesPending bool, feesDue, quiz, engagement float64, sessions, semester int) contracts.StudentSnapshot {
	return contracts.StudentSnapshot{
		AttendancePercentage: contracts.Ptr(attendance),
		CGPA:                 contracts.Ptr(cgpa),
		Backlogs:             contracts.Ptr(backlogs),
		FeesPending:          contracts.Ptr(feesPending),
		FeesAmountDue:        contracts.Ptr(feesDue),
		QuizScoreAvg:         contracts.Ptr(quiz),
		BotEngagementScore:   contracts.Ptr(engagement),
		CounsellingSessions:  contracts.Ptr(sessions),
		Semester:             contracts.Ptr(semester),
	}
}

// scaledPrototypes maps every prototype into the fitted profile space
func scaledPrototypes(s Scaler) [ClusterCount][]float64 {
	var out [ClusterCount][]float64
	for id, p := range prototypes {
		out[id] = s.Transform(Features(p))[:profileFeatures]
	}
	return out
}

// affinity scores how well a scaled centroid matches each canonical profile:
// the negative squared distance to that profile's scaled prototype
func affinity(c []float64, anchors [ClusterCount][]float64) [ClusterCount]float64 {
	var out [ClusterCount]float64
	for id, a := range anchors {
		out[id] = -sqDist(c, a)
	}
	return out
}

// canonicalOrder returns perm where perm[raw] is the canonical id of the raw
// k-means cluster. Every one of the 4! assignments is scored and the one with
// the highest total affinity wins; ties keep the first one visited.
func canonicalOrder(centroids [][]float64, anchors [ClusterCount][]float64) [ClusterCount]int {
	scores := make([][ClusterCount]float64, len(centroids))
	for raw, c := range centroids {
		scores[raw] = affinity(c, anchors)
	}

	var best [ClusterCount]int
	bestScore := 0.0
	first := true

	permute([ClusterCount]int{0, 1, 2, 3}, 0, func(p [ClusterCount]int) {
		total := 0.0
		for raw, canonical := range p {
			total += scores[raw][canonical]
		}
		if first || total > bestScore {
			best, bestScore, first = p, total, false
		}
	})
	return best
}

// permute visits every ordering of p
func permute(p [ClusterCount]int, k int, visit func([ClusterCount]int)) {
	if k == len(p) {
		visit(p)
		return
	}
	for i := k; i < len(p); i++ {
		p[k], p[i] = p[i], p[k]
		permute(p, k+1, visit)
		p[k], p[i] = p[i], p[k]
	}
}
