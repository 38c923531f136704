package interview

import (
	"context"
	"fmt"

	"talentscout/pkg/effect"
	"talentscout/pkg/workflow"
)

// Drive applies ev, executes the effects it produces and applies their results until the
// machine settles. Steps are atomic: on any error the original state is returned.
func Drive(ctx context.Context, rt effect.Runtime, s State, ev Event) (State, error) {
	cur := s
	queue := []Event{ev}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]

		from := cur.Phase()
		next, effects, err := Apply(cur, e)
		if err != nil {
			return s, err
		}
		if to := next.Phase(); to != from {
			rt.DebugState(string(from), string(to), e.EventName())
		}
		cur = next

		for _, eff := range effects {
			result, err := eff.Execute(ctx, rt)
			if err != nil {
				return s, workflow.FromLLM(workflow.StageInterview, err, fmt.Sprintf("%s failed", eff.Type()))
			}
			followUp, err := resultEvent(result)
			if err != nil {
				return s, err
			}
			queue = append(queue, followUp)
		}
	}
	return cur, nil
}

func resultEvent(result any) (Event, error) {
	switch r := result.(type) {
	case *effect.DrawingAnalysis:
		return DrawingAnalyzed{Analysis: r.Text}, nil
	case *effect.Judgment:
		return AnswerJudged{Continue: r.Continue, Reaction: r.Reaction}, nil
	default:
		return nil, workflow.Errorf(workflow.StageInterview, workflow.KindIllegal, "unexpected effect result %T", result)
	}
}
