package service

// OpenResults переходит к результатам. Из idle - только если результаты уже
// есть; посчитанный рейтинг не пересчитывается.
func (e *Engine) OpenResults(s *Session) ([]ScaleScore, error) {
	if s.State == StateTakingTest && s.QuestionIndex() < len(e.questions) {
		return nil, ErrInvalidTransition
	}
	results, err := e.Results(s)
	if err != nil {
		return nil, err
	}
	s.clearBrowsing()
	s.State = StateViewingResults
	return results, nil
}

// OpenScale собирает направления шкалы из professions. Пустой список не
// ошибка: состояние тогда не меняется.
func (e *Engine) OpenScale(s *Session, scale ScaleID, professions []Profession) ([]string, error) {
	if s.Results == nil {
		return nil, ErrNoResults
	}
	if s.State == StateTakingTest {
		return nil, ErrInvalidTransition
	}
	if _, ok := e.Scale(scale); !ok {
		return nil, ErrStaleReference
	}

	pool := []Profession{}
	for _, p := range professions {
		if p.Scale == scale {
			pool = append(pool, p)
		}
	}
	directions := directionsOf(pool)
	if len(directions) == 0 {
		return directions, nil
	}

	s.clearBrowsing()
	s.Scale = scale
	s.ScaleProfessions = pool
	s.Directions = directions
	s.State = StateViewingDirections
	s.Generation++
	return directions, nil
}

// OpenCatalog собирает направления всех шкал, без привязки к тесту. Ответы
// незаконченного теста сохраняются, его можно продолжить через Resume.
// Назад из каталога ведёт в idle.
func (e *Engine) OpenCatalog(s *Session, professions []Profession) []string {
	directions := directionsOf(professions)
	if len(directions) == 0 {
		return directions
	}
	s.clearBrowsing()
	s.Catalog = true
	s.ScaleProfessions = professions
	s.Directions = directions
	s.State = StateViewingDirections
	s.Generation++
	return directions
}

// OpenDirection открывает направление handle из списка поколения generation,
// собранного OpenScale или OpenCatalog.
func (e *Engine) OpenDirection(s *Session, generation, handle int) (string, []Profession, error) {
	if !s.browsing() || s.Directions == nil || generation != s.Generation {
		return "", nil, ErrStaleReference
	}
	if handle < 0 || handle >= len(s.Directions) {
		return "", nil, ErrStaleReference
	}

	direction := s.Directions[handle]
	var professions []Profession
	if s.Catalog {
		professions = professionsIn(s.ScaleProfessions, direction)
	} else {
		professions = ListProfessions(s.ScaleProfessions, s.Scale, direction)
	}

	s.Direction = handle
	s.Professions = professions
	s.Profession = 0
	s.State = StateViewingProfessions
	s.Generation++
	return direction, professions, nil
}

// OpenProfession открывает краткую карточку профессии handle из списка
// OpenDirection. Заодно сворачивает полную карточку.
func (e *Engine) OpenProfession(s *Session, generation, handle int) (Profession, error) {
	p, err := e.profession(s, generation, handle)
	if err != nil {
		return Profession{}, err
	}
	s.State = StateViewingSummary
	return p, nil
}

// ExpandProfession открывает полную карточку профессии handle.
func (e *Engine) ExpandProfession(s *Session, generation, handle int) (Profession, error) {
	p, err := e.profession(s, generation, handle)
	if err != nil {
		return Profession{}, err
	}
	s.State = StateViewingDetail
	return p, nil
}

func (e *Engine) profession(s *Session, generation, handle int) (Profession, error) {
	if generation != s.Generation {
		return Profession{}, ErrStaleReference
	}
	switch s.State {
	case StateViewingProfessions, StateViewingSummary, StateViewingDetail:
	default:
		return Profession{}, ErrStaleReference
	}
	if handle < 0 || handle >= len(s.Professions) {
		return Profession{}, ErrStaleReference
	}
	s.Profession = handle
	return s.Professions[handle], nil
}

// Back возвращает на родительский экран и сообщает новое состояние.
// Обе карточки ведут назад к списку профессий.
func (e *Engine) Back(s *Session) (State, error) {
	switch s.State {
	case StateViewingResults:
		s.clearBrowsing()
		s.State = StateIdle
	case StateViewingDirections:
		if s.Catalog {
			s.clearBrowsing()
			s.State = StateIdle
			break
		}
		if s.Results == nil {
			return s.State, ErrNoResults
		}
		s.clearBrowsing()
		s.State = StateViewingResults
	case StateViewingProfessions:
		s.Professions = nil
		s.Profession = 0
		s.State = StateViewingDirections
	case StateViewingSummary, StateViewingDetail:
		s.State = StateViewingProfessions
	default:
		return s.State, ErrInvalidTransition
	}
	return s.State, nil
}

// CurrentDirection - направление, выбранное последним OpenDirection.
func (s *Session) CurrentDirection() (string, bool) {
	if s.Direction < 0 || s.Direction >= len(s.Directions) {
		return "", false
	}
	return s.Directions[s.Direction], true
}

func (s *Session) browsing() bool {
	switch s.State {
	case StateViewingDirections, StateViewingProfessions, StateViewingSummary, StateViewingDetail:
		return true
	}
	return false
}
