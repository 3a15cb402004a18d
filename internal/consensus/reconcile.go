package consensus

import (
	"sort"

	"github.com/wonny/argos/internal/contracts"
)

// Reconcile merges one candidate's fully-settled verdict set into a
// single ConsensusResult.
//
// 규칙:
//   - 2개 이상 동일 verdict: 해당 verdict, 신뢰도는 동의한 프로바이더 평균, agreement=true
//   - 전원 불일치: 신뢰도가 엄격히 높은 쪽, 동률이면 primary 프로바이더 우선, agreement=false
//   - 1개만 성공: 그대로 사용, agreement=false
//   - 전원 실패: unavailable (다운스트림은 수동 검토로 처리)
func Reconcile(code string, verdicts []contracts.AIVerdict, primary string) contracts.ConsensusResult {
	result := contracts.ConsensusResult{
		Code:     code,
		Verdicts: verdicts,
	}

	succeeded := make([]contracts.AIVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Success {
			succeeded = append(succeeded, v)
		}
	}

	switch len(succeeded) {
	case 0:
		result.Unavailable = true
		return result
	case 1:
		only := succeeded[0]
		result.Verdict = only.Verdict
		result.Confidence = only.Confidence
		result.Agreement = false
		result.Providers = []string{only.Provider}
		return result
	}

	// Group by verdict label
	groups := make(map[contracts.Verdict][]contracts.AIVerdict)
	for _, v := range succeeded {
		groups[v.Verdict] = append(groups[v.Verdict], v)
	}

	if winner, ok := agreeingGroup(groups, primary); ok {
		var sum float64
		providerIDs := make([]string, 0, len(winner))
		for _, v := range winner {
			sum += v.Confidence
			providerIDs = append(providerIDs, v.Provider)
		}
		sort.Strings(providerIDs)

		result.Verdict = winner[0].Verdict
		result.Confidence = sum / float64(len(winner))
		result.Agreement = true
		result.Providers = providerIDs
		return result
	}

	// All disagree: strictly higher confidence wins, ties favor primary
	best := succeeded[0]
	for _, v := range succeeded[1:] {
		if v.Confidence > best.Confidence {
			best = v
			continue
		}
		if v.Confidence == best.Confidence {
			if v.Provider == primary {
				best = v
			} else if best.Provider != primary && v.Provider < best.Provider {
				// deterministic fallback when neither side is primary
				best = v
			}
		}
	}

	result.Verdict = best.Verdict
	result.Confidence = best.Confidence
	result.Agreement = false
	result.Providers = []string{best.Provider}
	return result
}

// agreeingGroup returns the verdict group with >= 2 members, when one
// exists. 복수 그룹 동률은 (크기, 평균 신뢰도, primary 포함 여부, 라벨)
// 순으로 결정적으로 선택.
func agreeingGroup(groups map[contracts.Verdict][]contracts.AIVerdict, primary string) ([]contracts.AIVerdict, bool) {
	type scored struct {
		verdict    contracts.Verdict
		members    []contracts.AIVerdict
		meanConf   float64
		hasPrimary bool
	}

	candidates := make([]scored, 0, len(groups))
	for verdict, members := range groups {
		if len(members) < 2 {
			continue
		}
		var sum float64
		hasPrimary := false
		for _, v := range members {
			sum += v.Confidence
			if v.Provider == primary {
				hasPrimary = true
			}
		}
		candidates = append(candidates, scored{
			verdict:    verdict,
			members:    members,
			meanConf:   sum / float64(len(members)),
			hasPrimary: hasPrimary,
		})
	}

	if len(candidates) == 0 {
		return nil, false
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if len(a.members) != len(b.members) {
			return len(a.members) > len(b.members)
		}
		if a.meanConf != b.meanConf {
			return a.meanConf > b.meanConf
		}
		if a.hasPrimary != b.hasPrimary {
			return a.hasPrimary
		}
		return a.verdict < b.verdict
	})

	return candidates[0].members, true
}
