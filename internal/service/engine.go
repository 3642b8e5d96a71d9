package service

// Engine хранит банк вопросов и ведёт тест и навигатор по сессиям, которые
// передаёт вызывающий. Состояния пользователей он не держит.
type Engine struct {
	questions []Question
	scales    []Scale
	scoring   ScoringTable
}

func NewEngine(bank QuestionBank) (*Engine, error) {
	if err := bank.Validate(); err != nil {
		return nil, err
	}
	return &Engine{
		questions: bank.Questions,
		scales:    bank.Scales,
		scoring:   bank.Scoring,
	}, nil
}

func (e *Engine) TotalQuestions() int {
	return len(e.questions)
}

func (e *Engine) Scales() []Scale {
	return e.scales
}

func (e *Engine) Scale(id ScaleID) (Scale, bool) {
	for _, s := range e.scales {
		if s.ID == id {
			return s, true
		}
	}
	return Scale{}, false
}

// Start сбрасывает сессию и начинает новую попытку.
func (e *Engine) Start(s *Session) {
	s.Answers = []string{}
	s.Results = nil
	s.clearBrowsing()
	s.State = StateTakingTest
}

// NextQuestion возвращает вопрос по индексу или false, если тест закончен.
func (e *Engine) NextQuestion(index int) (Question, bool) {
	if index < 0 || index >= len(e.questions) {
		return Question{}, false
	}
	return e.questions[index], true
}

// Answer записывает code как ответ на вопрос questionIndex и возвращает
// следующий вопрос. done = true, если ответ завершил тест: тогда в сессии
// лежат результаты и она в StateViewingResults. Индекс или код не от
// текущего вопроса дают ErrStaleReference.
func (e *Engine) Answer(s *Session, questionIndex int, code string) (next Question, done bool, err error) {
	if s.State != StateTakingTest {
		return Question{}, false, ErrNotTakingTest
	}
	current, ok := e.NextQuestion(s.QuestionIndex())
	if !ok {
		return Question{}, false, ErrNotTakingTest
	}
	if questionIndex != current.Index || !current.HasOption(code) {
		return Question{}, false, ErrStaleReference
	}

	s.Answers = append(s.Answers, code)
	if next, ok := e.NextQuestion(s.QuestionIndex()); ok {
		return next, false, nil
	}

	if _, err := e.Results(s); err != nil {
		return Question{}, false, err
	}
	s.State = StateViewingResults
	return Question{}, true, nil
}

// Resume возвращает к незаконченному тесту: к текущему вопросу, если тест
// идёт или был прерван каталогом. false, если продолжать нечего.
func (e *Engine) Resume(s *Session) (Question, bool) {
	unfinished := s.State == StateTakingTest || (s.Results == nil && len(s.Answers) > 0)
	if !unfinished {
		return Question{}, false
	}
	q, ok := e.NextQuestion(s.QuestionIndex())
	if !ok {
		return Question{}, false
	}
	s.clearBrowsing()
	s.State = StateTakingTest
	return q, true
}
