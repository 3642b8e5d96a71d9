package service

import "sort"

// TopScales - сколько шкал попадает в результаты.
const TopScales = 3

type ScaleScore struct {
	Scale ScaleID `json:"scale"`
	Score int     `json:"score"`
}

// ComputeResults считает баллы шкал по всем ответам и возвращает не больше
// TopScales лучших. Шкалы без баллов отбрасываются. При равенстве сохраняется
// порядок объявления.
func (e *Engine) ComputeResults(answers []string) []ScaleScore {
	tally := make([]ScaleScore, len(e.scales))
	for i, s := range e.scales {
		tally[i] = ScaleScore{Scale: s.ID}
	}
	for _, answer := range answers {
		for i := range tally {
			if e.scoring.Awards(tally[i].Scale, answer) {
				tally[i].Score++
			}
		}
	}

	sort.SliceStable(tally, func(i, j int) bool {
		return tally[i].Score > tally[j].Score
	})

	ranked := make([]ScaleScore, 0, TopScales)
	for _, t := range tally {
		if len(ranked) == TopScales || t.Score == 0 {
			break
		}
		ranked = append(ranked, t)
	}
	return ranked
}

// Results возвращает рейтинг законченного теста, считая его при первом
// обращении.
func (e *Engine) Results(s *Session) ([]ScaleScore, error) {
	if s.Results != nil {
		return s.Results, nil
	}
	if len(s.Answers) < len(e.questions) {
		return nil, ErrNoResults
	}
	s.Results = e.ComputeResults(s.Answers)
	return s.Results, nil
}
