package service

import (
	"errors"
	"strconv"
)

var (
	ErrNotTakingTest     = errors.New("respondent is not taking the test")
	ErrStaleReference    = errors.New("stale reference to a rebuilt list")
	ErrNoResults         = errors.New("no test results yet")
	ErrInvalidTransition = errors.New("invalid navigator transition")
	ErrUnknownScale      = errors.New("unknown scale")
)

type AnswerOption struct {
	Text string
	Code string
}

type Question struct {
	Index   int
	Text    string
	Options []AnswerOption
}

// HasOption проверяет, есть ли у вопроса вариант с кодом code.
func (q Question) HasOption(code string) bool {
	for _, o := range q.Options {
		if o.Code == code {
			return true
		}
	}
	return false
}

// AnswerCallbackPrefix начинает callback-данные кнопки ответа.
const AnswerCallbackPrefix = "ans_"

// MaxCallbackData - лимит Telegram на длину callback_data в байтах.
const MaxCallbackData = 64

// AnswerCallbackData кодирует ответ как "ans_<индекс>_<код>".
func AnswerCallbackData(index int, code string) string {
	return AnswerCallbackPrefix + strconv.Itoa(index) + "_" + code
}

// State - экран навигатора, на котором находится пользователь.
type State string

const (
	StateIdle               State = "idle"
	StateTakingTest         State = "taking_test"
	StateViewingResults     State = "viewing_results"
	StateViewingDirections  State = "viewing_directions"
	StateViewingProfessions State = "viewing_professions"
	StateViewingSummary     State = "viewing_profession_summary"
	StateViewingDetail      State = "viewing_profession_detail"
)

// Session - временное состояние одного пользователя. Индекс текущего вопроса
// всегда len(Answers).
type Session struct {
	UserID    int64        `json:"user_id"`
	AttemptID string       `json:"attempt_id,omitempty"`
	State     State        `json:"state"`
	Answers   []string     `json:"answers"`
	Results   []ScaleScore `json:"results,omitempty"`

	Catalog          bool         `json:"catalog,omitempty"`
	Scale            ScaleID      `json:"scale,omitempty"`
	Directions       []string     `json:"directions,omitempty"`
	ScaleProfessions []Profession `json:"scale_professions,omitempty"`
	Direction        int          `json:"direction"`
	Professions      []Profession `json:"professions,omitempty"`
	Profession       int          `json:"profession"`
	// Generation растёт при каждой сборке списка; кнопки несут его в callback.
	Generation int `json:"generation"`
}

func NewSession(userID int64) *Session {
	return &Session{UserID: userID, State: StateIdle}
}

func (s *Session) QuestionIndex() int {
	return len(s.Answers)
}

func (s *Session) HasResults() bool {
	return s.Results != nil
}

func (s *Session) clearBrowsing() {
	s.Catalog = false
	s.Scale = ""
	s.Directions = nil
	s.ScaleProfessions = nil
	s.Direction = 0
	s.Professions = nil
	s.Profession = 0
}

// Clone возвращает копию без общих срезов с s. Карты полей профессий общие:
// после загрузки они не меняются.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Answers = cloneSlice(s.Answers)
	cp.Results = cloneSlice(s.Results)
	cp.Directions = cloneSlice(s.Directions)
	cp.ScaleProfessions = cloneSlice(s.ScaleProfessions)
	cp.Professions = cloneSlice(s.Professions)
	return &cp
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append(make([]T, 0, len(in)), in...)
}
