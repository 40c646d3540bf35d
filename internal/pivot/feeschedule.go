package pivot

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/practicepulse/feestrategy/internal/coerce"
	"github.com/practicepulse/feestrategy/internal/model"
)

// precedence values for candidate fee schedules, lowest wins.
const (
	precedenceCarrierSpecific = 1
	precedenceLocationDefault = 2
	precedenceGlobalFallback  = 3
)

var ucrOrDefault = regexp.MustCompile(`(?i)UCR|DEFAULT`)

// feeCandidate is one (schedule, matching fee) pair gathered while resolving
// the applicable scheduled fee for a (locationCode, procCode, carrierName)
// triple.
type feeCandidate struct {
	precedence  int
	collectedAt time.Time
	amount      float64
}

// resolveFeeSchedule gathers every fee across every snapshot whose
// ProcedureCode matches procCode, classifies each by precedence against
// carrierName, then takes the (precedence asc, collectedAt desc) winner.
// Returns nil if no candidate matches.
func resolveFeeSchedule(snapshots []model.FeeScheduleSnapshot, carrierName, procCode string) *float64 {
	carrierUpper := strings.ToUpper(strings.TrimSpace(carrierName))

	var candidates []feeCandidate
	for _, snap := range snapshots {
		collectedAt, _ := coerce.Time(snap.CollectedAt)
		for _, schedule := range snap.FeeSchedules {
			for _, fee := range schedule.Fees {
				if fee.ProcedureCode != procCode {
					continue
				}
				candidates = append(candidates, feeCandidate{
					precedence:  classifySchedule(schedule.Description, carrierUpper),
					collectedAt: collectedAt,
					amount:      coerce.Float64(fee.Amount),
				})
			}
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].precedence != candidates[j].precedence {
			return candidates[i].precedence < candidates[j].precedence
		}
		return candidates[i].collectedAt.After(candidates[j].collectedAt)
	})

	amount := candidates[0].amount
	return &amount
}

// classifySchedule ranks a candidate schedule: a carrier-specific
// substring match wins, UCR/DEFAULT is the global fallback, everything
// else is a location default.
func classifySchedule(description, carrierUpper string) int {
	descUpper := strings.ToUpper(description)
	if carrierUpper != "" && strings.Contains(descUpper, carrierUpper) {
		return precedenceCarrierSpecific
	}
	if ucrOrDefault.MatchString(description) {
		return precedenceGlobalFallback
	}
	return precedenceLocationDefault
}
