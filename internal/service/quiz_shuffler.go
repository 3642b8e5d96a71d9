package service

import (
	"math/rand"
	"time"
)

// ShuffleOptions возвращает копию q с вариантами в случайном порядке. Ответы
// пишутся по коду, поэтому порядок на подсчёт не влияет.
func ShuffleOptions(q Question) Question {
	return ShuffleOptionsWith(q, rand.New(rand.NewSource(time.Now().UnixNano())))
}

// ShuffleOptionsWith перемешивает с заданным источником (Фишер-Йейтс).
func ShuffleOptionsWith(q Question, r *rand.Rand) Question {
	shuffled := make([]AnswerOption, len(q.Options))
	copy(shuffled, q.Options)

	for i := len(shuffled) - 1; i > 0; i-- {
		j := r.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}

	q.Options = shuffled
	return q
}
